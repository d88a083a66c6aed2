package contracts

import (
	"encoding/json"
	"time"
)

// IndicatorColumn is one named output aligned to the panel dates
type IndicatorColumn struct {
	Name   string
	Values []float64
}

// MarshalJSON encodes missing values as null
func (c IndicatorColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	}{c.Name, NullableSlice(c.Values)})
}

// UnmarshalJSON restores null values as Missing
func (c *IndicatorColumn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.Values = make([]float64, len(raw.Values))
	for i, v := range raw.Values {
		if v == nil {
			c.Values[i] = Missing()
			continue
		}
		c.Values[i] = *v
	}
	return nil
}

// IndicatorPanel is a set of indicator columns indexed by trade date
type IndicatorPanel struct {
	SecurityID string            `json:"security_id"`
	AsOf       time.Time         `json:"as_of"`
	Dates      []time.Time       `json:"dates"`
	Columns    []IndicatorColumn `json:"columns"`
}

// Column returns the named column
func (p *IndicatorPanel) Column(name string) ([]float64, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}
