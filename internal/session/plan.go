package session

import (
	"github.com/abhisek/kakomon/internal/budget"
	"github.com/abhisek/kakomon/internal/ratio"
)

// Mix fractions for the difficulty plan. The high bucket takes the rest.
const (
	currentShare = 0.6
	lowShare     = 0.2
)

// Quota is the per-bucket difficulty plan of a session. After generation it
// holds the quota left unused.
type Quota struct {
	Low     int `json:"low"`
	Current int `json:"current"`
	High    int `json:"high"`
}

// NewQuota splits size across the recommended difficulty and its
// neighbours. A neighbour outside the difficulty scale gets no quota.
func NewQuota(size, recommended int) Quota {
	current := ratio.RoundHalfUp(float64(size) * currentShare)
	low := ratio.RoundHalfUp(float64(size) * lowShare)
	high := size - current - low

	q := Quota{Low: low, Current: current, High: high}
	if recommended-1 < budget.MinDifficulty {
		q.Low = 0
	}
	if recommended+1 > budget.MaxDifficulty {
		q.High = 0
	}
	return q
}

// Remaining returns the total quota left.
func (q Quota) Remaining() int {
	return q.Low + q.Current + q.High
}

// draw picks a bucket uniformly among those with quota left, consumes one
// unit of it and returns the difficulty it stands for. It returns false,
// without consuming randomness, when every bucket is exhausted.
func (q *Quota) draw(r *rng, recommended int) (int, bool) {
	type bucket struct {
		count  *int
		offset int
	}
	var open []bucket
	for _, b := range []bucket{{&q.Low, -1}, {&q.Current, 0}, {&q.High, 1}} {
		if *b.count > 0 {
			open = append(open, b)
		}
	}
	if len(open) == 0 {
		return 0, false
	}
	b := open[r.Intn(len(open))]
	*b.count--
	return recommended + b.offset, true
}
