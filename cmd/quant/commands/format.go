package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const dateLayout = "2006-01-02"

// printJSON writes v to stdout as indented JSON
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// parseAsOf parses a YYYY-MM-DD flag; empty means today
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, contracts.InvalidParameters("as_of", "expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// parseWeights parses "ID=W,ID=W" into portfolio weights
func parseWeights(s string) (contracts.PortfolioWeights, error) {
	w := contracts.PortfolioWeights{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, raw, ok := strings.Cut(part, "=")
		if !ok || id == "" {
			return nil, contracts.InvalidParameters("weights", "expected ID=WEIGHT, got %q", part)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, contracts.InvalidParameters("weights", "bad weight for %s: %q", id, raw)
		}
		w[id] += v
	}
	if len(w) == 0 {
		return nil, contracts.InvalidParameters("weights", "at least one ID=WEIGHT pair is required")
	}
	return w, nil
}
