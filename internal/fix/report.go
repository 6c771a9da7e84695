package fix

import (
	"github.com/SirVer/giti/internal/git"
)

// Outcome is the result kind of formatting one file
type Outcome int

const (
	Formatted Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Formatted:
		return "formatted"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Skip reasons
const (
	ReasonDeleted     = "deleted"
	ReasonNoFormatter = "no formatter"
)

// Result is the outcome for one changed file
type Result struct {
	File    git.ChangedFile
	Outcome Outcome
	// Formatter names the rule that handled the file
	Formatter string
	Reason    string // set for Skipped
	Err       error  // set for Failed
}

// Report aggregates one Result per changed file, in input order
type Report struct {
	Results []Result
}

// OK reports whether no file failed
func (r *Report) OK() bool {
	return r.Count(Failed) == 0
}

// Count returns the number of results with outcome o
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Failures returns the failed results
func (r *Report) Failures() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Outcome == Failed {
			failed = append(failed, res)
		}
	}
	return failed
}
