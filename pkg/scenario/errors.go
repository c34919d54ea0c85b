package scenario

import (
	"fmt"
	"strings"
)

// DataError reports a scenario that could not be fetched, decoded or validated.
// It is fatal to startup: nothing can be played without a scenario.
type DataError struct {
	Source   string   // file path or URL the scenario came from, if known
	Problems []string // structural problems found by validation
	Err      error    // underlying read or decode failure
}

func (e *DataError) Error() string {
	var b strings.Builder
	b.WriteString("invalid scenario")
	if e.Source != "" {
		fmt.Fprintf(&b, " %s", e.Source)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Problems) > 0 {
		b.WriteString(":")
		for _, p := range e.Problems {
			b.WriteString("\n  - ")
			b.WriteString(p)
		}
	}
	return b.String()
}

func (e *DataError) Unwrap() error {
	return e.Err
}
