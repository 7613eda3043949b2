package mastery

// Status classifies a learner's recent performance on one pattern.
type Status string

const (
	StatusSteady          Status = "steady"
	StatusPromote         Status = "promote"
	StatusDemote          Status = "demote"
	StatusAccurateButSlow Status = "accurate_but_slow"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSteady, StatusPromote, StatusDemote, StatusAccurateButSlow:
		return true
	}
	return false
}

// Transition records a status change for logging.
type Transition struct {
	UserID    string
	PatternID string
	From      Status // empty when no record existed
	To        Status
}

// Changed reports whether the transition moved to a different status.
func (t Transition) Changed() bool {
	return t.From != t.To
}
