package contracts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind is the closed set of expected analytics failures
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindInsufficientHistory ErrorKind = "insufficient_history"
	KindNonPSDCovariance    ErrorKind = "non_psd_covariance"
	KindDegenerateUniverse  ErrorKind = "degenerate_universe"
	KindDegenerateBenchmark ErrorKind = "degenerate_benchmark"
	KindInvalidParameters   ErrorKind = "invalid_parameters"
)

// Sentinels for errors.Is
var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrNonPSDCovariance    = errors.New("covariance not positive definite")
	ErrDegenerateUniverse  = errors.New("degenerate universe")
	ErrDegenerateBenchmark = errors.New("degenerate benchmark")
	ErrInvalidParameters   = errors.New("invalid parameters")
)

var sentinels = map[ErrorKind]error{
	KindNotFound:            ErrNotFound,
	KindInsufficientHistory: ErrInsufficientHistory,
	KindNonPSDCovariance:    ErrNonPSDCovariance,
	KindDegenerateUniverse:  ErrDegenerateUniverse,
	KindDegenerateBenchmark: ErrDegenerateBenchmark,
	KindInvalidParameters:   ErrInvalidParameters,
}

// Error is a structured analytics error
// ⭐ SSOT: 엔진 경계의 모든 예상 오류는 이 타입
type Error struct {
	Kind    ErrorKind              `json:"kind"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Field != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Field)
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, e.Context[k])
		}
	}
	return sb.String()
}

// Unwrap exposes the kind sentinel
func (e *Error) Unwrap() error {
	return sentinels[e.Kind]
}

// NewError builds an Error
func NewError(kind ErrorKind, field, message string, ctx map[string]interface{}) *Error {
	return &Error{Kind: kind, Field: field, Message: message, Context: ctx}
}

// NotFound reports an unknown security
func NotFound(field, securityID string) *Error {
	return NewError(KindNotFound, field, "unknown security "+securityID,
		map[string]interface{}{"security_id": securityID})
}

// InsufficientHistory reports too few rows for a computation
func InsufficientHistory(field string, required, observed int) *Error {
	return NewError(KindInsufficientHistory, field,
		fmt.Sprintf("need at least %d rows, have %d", required, observed),
		map[string]interface{}{"required": required, "observed": observed})
}

// InvalidParameters reports a rejected input
func InvalidParameters(field, format string, args ...interface{}) *Error {
	return NewError(KindInvalidParameters, field, fmt.Sprintf(format, args...), nil)
}

// KindOf extracts the kind from an error chain
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
