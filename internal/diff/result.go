package diff

import "fmt"

// Outcome classifies one comparison unit. Inconclusive means the
// comparison was not performed or not meaningful, which is distinct
// from a verified match.
type Outcome int

const (
	Match Outcome = iota
	Mismatch
	Inconclusive
)

func (o Outcome) String() string {
	switch o {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	case Inconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// Result is the tri-state outcome of comparing one unit, with a
// human-readable reason. Never a plain boolean.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason"`
}

func Matched(format string, args ...any) Result {
	return Result{Outcome: Match, Reason: fmt.Sprintf(format, args...)}
}

func Mismatched(format string, args ...any) Result {
	return Result{Outcome: Mismatch, Reason: fmt.Sprintf(format, args...)}
}

// Undecided builds an Inconclusive result.
func Undecided(format string, args ...any) Result {
	return Result{Outcome: Inconclusive, Reason: fmt.Sprintf(format, args...)}
}
