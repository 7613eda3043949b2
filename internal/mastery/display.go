package mastery

// Advice returns a short recommendation shown next to a status.
func (s Status) Advice() string {
	switch s {
	case StatusPromote:
		return "ready for harder questions"
	case StatusDemote:
		return "review easier questions first"
	case StatusAccurateButSlow:
		return "accurate, work on speed"
	case StatusSteady:
		return "keep practicing at this level"
	default:
		return ""
	}
}

// Counts tallies records by status.
func Counts(records []Record) map[Status]int {
	out := make(map[Status]int, 4)
	for _, r := range records {
		out[r.Status]++
	}
	return out
}
