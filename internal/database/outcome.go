package database

import "github.com/koustreak/cowclash/internal/errs"

// Outcome is the coarse result of one ExecuteQuery/ExecuteUpdate call.
type Outcome int

const (
	OutcomeOK      Outcome = iota // the statement ran
	OutcomeInvalid                // rejected before any I/O
	OutcomeFailed                 // the database was contacted and the call failed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "failed"
	}
}

// OutcomeOf classifies the error returned by a gateway call.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errs.IsInvalidInput(err):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}
