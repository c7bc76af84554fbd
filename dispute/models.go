package dispute

import "time"

// Status is the lifecycle state of a filed challenge as reported by the
// upstream violation-tracking system. Values outside the known set are kept
// verbatim so they can be surfaced rather than rejected.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusAccepted    Status = "accepted"
	StatusDenied      Status = "denied"
	StatusWithdrawn   Status = "withdrawn"
)

// Outcome is the closed classification every Status folds into. Analytics
// switch on Outcome, never on the raw Status string.
type Outcome int

const (
	// OutcomeUnrecognized covers empty or unknown status values.
	OutcomeUnrecognized Outcome = iota
	OutcomeOpen
	OutcomeWon
	OutcomeLost
	OutcomeWithdrawn
)

// Outcome classifies the status. Status is the sole source of truth for
// win/loss.
func (s Status) Outcome() Outcome {
	switch s {
	case StatusPending, StatusUnderReview:
		return OutcomeOpen
	case StatusAccepted:
		return OutcomeWon
	case StatusDenied:
		return OutcomeLost
	case StatusWithdrawn:
		return OutcomeWithdrawn
	default:
		return OutcomeUnrecognized
	}
}

// Resolved reports whether the challenge reached a final accepted/denied decision.
func (s Status) Resolved() bool {
	o := s.Outcome()
	return o == OutcomeWon || o == OutcomeLost
}

func (o Outcome) String() string {
	switch o {
	case OutcomeOpen:
		return "open"
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	case OutcomeWithdrawn:
		return "withdrawn"
	default:
		return "unrecognized"
	}
}

// Challenge is the formal dispute filed against a violation.
type Challenge struct {
	Submitted      bool
	Status         Status
	SubmissionDate *time.Time
	ResponseDate   *time.Time
	ChallengeType  string
}

// Record is a safety-violation record that may carry a challenge. It is owned
// by the upstream violation-tracking subsystem and is never mutated here.
type Record struct {
	ID               string
	CompanyID        string
	ViolationType    string
	JurisdictionCode string
	// SeverityWeight is zero when the upstream record has none.
	SeverityWeight float64
	PriorityScore  *float64
	Challenge      *Challenge
}

// Submitted reports whether the record participates in dispute analytics.
func (r Record) Submitted() bool {
	return r.Challenge != nil && r.Challenge.Submitted
}

// Status returns the challenge status, or "" when there is no challenge.
func (r Record) Status() Status {
	if r.Challenge == nil {
		return ""
	}
	return r.Challenge.Status
}
