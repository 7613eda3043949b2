package stats

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/ratio"
)

// Totals summarizes an attempt corpus.
type Totals struct {
	Attempts     int     `json:"attempts"`
	Accuracy     float64 `json:"accuracy"`
	OvertimeRate float64 `json:"overtime_rate"`
	ActiveUsers  int     `json:"active_users"`
}

// Overview is the corpus-wide report: totals plus every grouping.
type Overview struct {
	Totals     Totals  `json:"totals"`
	Patterns   []Group `json:"patterns"`
	Tags       []Group `json:"tags"`
	Difficulty []Group `json:"difficulty"`
}

// ComputeTotals returns corpus totals.
func ComputeTotals(attempts []attempt.Attempt) Totals {
	var correct, overtime int
	users := make(map[string]struct{})
	for _, a := range attempts {
		if a.IsCorrect {
			correct++
		}
		if a.Overtime {
			overtime++
		}
		users[a.UserID] = struct{}{}
	}
	return Totals{
		Attempts:     len(attempts),
		Accuracy:     ratio.Round4(ratio.Of(correct, len(attempts))),
		OvertimeRate: ratio.Round4(ratio.Of(overtime, len(attempts))),
		ActiveUsers:  len(users),
	}
}

// ComputeOverview builds the corpus overview. The three groupings run
// concurrently over the same read-only slice.
func ComputeOverview(ctx context.Context, attempts []attempt.Attempt) (*Overview, error) {
	ov := &Overview{Totals: ComputeTotals(attempts)}

	g, ctx := errgroup.WithContext(ctx)
	targets := []struct {
		by  GroupBy
		dst *[]Group
	}{
		{GroupByPattern, &ov.Patterns},
		{GroupByTag, &ov.Tags},
		{GroupByDifficulty, &ov.Difficulty},
	}
	for _, tgt := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			*tgt.dst = Compute(attempts, Options{GroupBy: tgt.by})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ov, nil
}
