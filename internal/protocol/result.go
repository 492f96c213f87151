package protocol

import "strings"

// Result is the outcome of a finished build. The ordering follows the CI
// engine's ordinals: a higher value is a worse result.
type Result int

const (
	// ResultUnset is carried by builds that have not produced a result yet.
	ResultUnset Result = iota
	ResultSuccess
	ResultUnstable
	ResultFailure
	ResultNotBuilt
	ResultAborted
)

const (
	ResultNameSuccess  = "SUCCESS"
	ResultNameUnstable = "UNSTABLE"
	ResultNameFailure  = "FAILURE"
	ResultNameNotBuilt = "NOT_BUILT"
	ResultNameAborted  = "ABORTED"
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return ResultNameSuccess
	case ResultUnstable:
		return ResultNameUnstable
	case ResultFailure:
		return ResultNameFailure
	case ResultNotBuilt:
		return ResultNameNotBuilt
	case ResultAborted:
		return ResultNameAborted
	default:
		return ""
	}
}

func (r Result) Valid() bool {
	return r >= ResultSuccess && r <= ResultAborted
}

func (r Result) IsWorseThan(o Result) bool {
	return r > o
}

func (r Result) IsBetterThan(o Result) bool {
	return r < o
}

func (r Result) IsBetterOrEqualTo(o Result) bool {
	return r <= o
}

// ParseResult maps a result name to a Result. Unknown and empty names map to
// ResultUnset.
func ParseResult(name string) Result {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case ResultNameSuccess:
		return ResultSuccess
	case ResultNameUnstable:
		return ResultUnstable
	case ResultNameFailure:
		return ResultFailure
	case ResultNameNotBuilt:
		return ResultNotBuilt
	case ResultNameAborted:
		return ResultAborted
	default:
		return ResultUnset
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(b []byte) error {
	*r = ParseResult(string(b))
	return nil
}
