package session

import (
	"cmp"
	"errors"
	"slices"
)

// ErrNoCandidates is returned when the candidate pool of a request is empty.
var ErrNoCandidates = errors.New("no candidate questions")

// antiRepeat is the longest run of picks allowed from one pattern.
const antiRepeat = 2

// candidate is one question eligible for selection. Difficulty is 0 when
// the question has none.
type candidate struct {
	id         string
	pattern    string
	difficulty int
}

// coreResult is the outcome of one constrained sampling run.
type coreResult struct {
	ids     []string
	counts  *Weights
	weights *Weights
	plan    Quota
}

// planner holds the mutable state of one sampling run.
type planner struct {
	rng         *rng
	recommended int
	plan        Quota
	weights     *Weights
	pools       map[string][]candidate
	ordered     []string

	selected []string
	counts   *Weights
	last     string
	streak   int
}

// generateCore selects up to size ids from cands. Patterns are visited by
// descending weight, one pick each, then the remaining slots are filled by
// weighted draws. No pattern is picked more than twice in a row while
// another pattern still has questions.
func generateCore(cands []candidate, size, recommended int, base *Weights, seed uint32) (coreResult, error) {
	if len(cands) == 0 {
		return coreResult{}, ErrNoCandidates
	}

	var patterns []string
	pools := make(map[string][]candidate)
	for _, c := range cands {
		if _, ok := pools[c.pattern]; !ok {
			patterns = append(patterns, c.pattern)
		}
		pools[c.pattern] = append(pools[c.pattern], c)
	}

	p := &planner{
		rng:         newRNG(seed),
		recommended: recommended,
		plan:        NewQuota(size, recommended),
		weights:     base.withDefaults(patterns, 1.0),
		pools:       pools,
		counts:      NewWeights(),
	}

	for _, pattern := range patterns {
		shuffle(p.pools[pattern], p.rng)
	}

	p.ordered = slices.Clone(patterns)
	shuffle(p.ordered, p.rng)
	slices.SortStableFunc(p.ordered, func(a, b string) int {
		return cmp.Compare(p.weights.Get(b), p.weights.Get(a))
	})

	p.firstPass(size)
	p.fill(size)

	return coreResult{
		ids:     p.selected,
		counts:  p.counts,
		weights: p.weights,
		plan:    p.plan,
	}, nil
}

// firstPass takes at most one question from each pattern in weight order.
func (p *planner) firstPass(size int) {
	for _, pattern := range p.ordered {
		if len(p.selected) >= size {
			return
		}
		pool := p.pools[pattern]
		if len(pool) == 0 {
			continue
		}
		if p.streak >= antiRepeat && pattern == p.last {
			continue
		}
		target, ok := p.plan.draw(p.rng, p.recommended)
		p.consume(pattern, p.pickFrom(pool, target, ok))
	}
}

// fill tops the session up with weighted draws until size is reached or
// every pool is empty.
func (p *planner) fill(size int) {
	for len(p.selected) < size {
		target, ok := p.plan.draw(p.rng, p.recommended)
		pattern, found := p.pickPattern()
		if !found {
			return
		}
		if p.streak >= antiRepeat && pattern == p.last {
			for _, alt := range p.ordered {
				if alt != p.last && len(p.pools[alt]) > 0 {
					pattern = alt
					break
				}
			}
		}
		pool := p.pools[pattern]
		if len(pool) == 0 {
			return
		}
		p.consume(pattern, p.pickFrom(pool, target, ok))
	}
}

// pickPattern draws a pattern with non-empty pool, proportionally to its
// weight, or uniformly when all weights are zero.
func (p *planner) pickPattern() (string, bool) {
	var available []string
	var total float64
	for _, pattern := range p.ordered {
		if len(p.pools[pattern]) > 0 {
			available = append(available, pattern)
			total += p.weights.Get(pattern)
		}
	}
	if len(available) == 0 {
		return "", false
	}
	if total <= 0 {
		return available[p.rng.Intn(len(available))], true
	}
	threshold := p.rng.Float64() * total
	for _, pattern := range available {
		threshold -= p.weights.Get(pattern)
		if threshold <= 0 {
			return pattern, true
		}
	}
	return available[len(available)-1], true
}

// pickFrom returns the index in pool of a question at the target difficulty,
// or of any question when none matches or there is no target. pool must not
// be empty.
func (p *planner) pickFrom(pool []candidate, target int, hasTarget bool) int {
	matches := make([]int, 0, len(pool))
	for i, c := range pool {
		if !hasTarget || c.difficulty == target {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return p.rng.Intn(len(pool))
	}
	return matches[p.rng.Intn(len(matches))]
}

// consume records the pick at idx and swap-removes it from its pool.
func (p *planner) consume(pattern string, idx int) {
	pool := p.pools[pattern]
	p.selected = append(p.selected, pool[idx].id)
	p.counts.Add(pattern, 1)

	last := len(pool) - 1
	pool[idx] = pool[last]
	p.pools[pattern] = pool[:last]

	if pattern == p.last {
		p.streak++
	} else {
		p.last = pattern
		p.streak = 1
	}
}
