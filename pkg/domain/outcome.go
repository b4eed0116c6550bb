package domain

import "fmt"

// Outcome reports how a navigation step ended.
type Outcome int

const (
	// OutcomeCommitted means the step's data is now displayed.
	OutcomeCommitted Outcome = iota
	// OutcomeRolledBack means a speculative level was discarded after a failed fetch or validation.
	OutcomeRolledBack
	// OutcomeInvalid means a refresh fetched data that failed validation; a message was shown.
	OutcomeInvalid
	// OutcomeSuperseded means a newer step replaced this one before its fetch returned.
	OutcomeSuperseded
	// OutcomeRejected means the call was refused before any state change.
	OutcomeRejected
)

var outcomeNames = map[Outcome]string{
	OutcomeCommitted:  "committed",
	OutcomeRolledBack: "rolled_back",
	OutcomeInvalid:    "invalid",
	OutcomeSuperseded: "superseded",
	OutcomeRejected:   "rejected",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	for k, v := range outcomeNames {
		if v == string(b) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(b))
}
