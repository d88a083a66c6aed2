package contracts

import "time"

// NormalizationMode selects how raw factor metrics map to [0,100]
type NormalizationMode string

const (
	ModeBounded        NormalizationMode = "bounded"
	ModeCrossSectional NormalizationMode = "cross_sectional"
)

// NeutralScore is reported for a sub-score with no usable inputs
const NeutralScore = 50.0

// SubScore is one factor category score in [0,100]
type SubScore struct {
	Score   float64 `json:"score"`
	Missing bool    `json:"missing"`
}

// MissingScore is the neutral placeholder for an unavailable category
func MissingScore() SubScore {
	return SubScore{Score: NeutralScore, Missing: true}
}

// FactorScore holds the six factor scores for one security and date
// ⭐ SSOT: 팩터 엔진 → 호출자 점수 전달
type FactorScore struct {
	SecurityID string            `json:"security_id"`
	AsOf       time.Time         `json:"as_of"`
	Universe   string            `json:"universe"`
	Mode       NormalizationMode `json:"mode"`

	Value      SubScore `json:"value"`
	Quality    SubScore `json:"quality"`
	Momentum   SubScore `json:"momentum"`
	Size       SubScore `json:"size"`
	Volatility SubScore `json:"volatility"`
	Growth     SubScore `json:"growth"`

	Total float64 `json:"total"`

	// Details records the finite raw metrics that fed the scores
	Details map[string]float64 `json:"details"`
}

// SubScores returns the six categories in a fixed order
func (f *FactorScore) SubScores() []SubScore {
	return []SubScore{f.Value, f.Quality, f.Momentum, f.Size, f.Volatility, f.Growth}
}

// CompositeTotal is the mean of non-missing sub-scores, or NeutralScore if none
func CompositeTotal(subs []SubScore) float64 {
	sum, n := 0.0, 0
	for _, s := range subs {
		if s.Missing {
			continue
		}
		sum += s.Score
		n++
	}
	if n == 0 {
		return NeutralScore
	}
	return sum / float64(n)
}
