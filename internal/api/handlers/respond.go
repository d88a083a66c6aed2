package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

const dateLayout = "2006-01-02"

// errorBody is the JSON shape of every failed response
type errorBody struct {
	Error   string                 `json:"error"`
	Kind    contracts.ErrorKind    `json:"kind,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondEngineError maps an analytics error kind to an HTTP status.
// Unstructured errors are internal faults and their text is not exposed.
func respondEngineError(w http.ResponseWriter, err error) {
	var cerr *contracts.Error
	if !errors.As(err, &cerr) {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, statusFor(cerr.Kind), errorBody{
		Error:   cerr.Message,
		Kind:    cerr.Kind,
		Field:   cerr.Field,
		Context: cerr.Context,
	})
}

func statusFor(kind contracts.ErrorKind) int {
	switch kind {
	case contracts.KindInvalidParameters:
		return http.StatusBadRequest
	case contracts.KindNotFound:
		return http.StatusNotFound
	case contracts.KindInsufficientHistory, contracts.KindNonPSDCovariance,
		contracts.KindDegenerateUniverse, contracts.KindDegenerateBenchmark:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// parseAsOf reads YYYY-MM-DD; empty means today (UTC)
func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		y, m, d := time.Now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, contracts.InvalidParameters("as_of", "expected YYYY-MM-DD, got %q", raw)
	}
	return t, nil
}

// parseInt reads an optional integer query parameter
func parseInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, contracts.InvalidParameters(name, "expected an integer, got %q", raw)
	}
	return v, nil
}

// parseList splits a comma separated query parameter
func parseList(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
