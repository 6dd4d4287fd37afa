// Package timestamp generates randomized but plausible
// commit timestamps spread over the recent past.
//
// Every timestamp falls within the last 365 days.
// Weekend draws gain 12 to 23 extra hours, other draws
// move into the 18-23 evening hours with probability
// 0.6, so the series looks like spare-time work.
package timestamp

import (
	"math/rand"
	"sort"
	"time"
)

// Window is the span of the past within which all
// generated timestamps fall.
const Window = 365 * 24 * time.Hour

// Draws outside the weekend move into the evening with
// this probability.
const eveningBias = 0.6

// Generator draws weighted random timestamps. Create
// with New or NewSeeded.
type Generator struct {
	now func() time.Time
	rng *rand.Rand
}

// New returns a Generator anchored at the wall clock.
func New() *Generator {
	return NewSeeded(
		time.Now(), time.Now().UnixNano(),
	)
}

// NewSeeded returns a deterministic Generator anchored
// at now. Same anchor and seed, same series.
func NewSeeded(now time.Time, seed int64) *Generator {
	return &Generator{
		now: func() time.Time { return now },
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Draw returns one weighted random timestamp. The
// weekend bonus and the evening shift can leave the
// window at either edge; such values are clamped to
// the edge so every draw stays inside it.
func (g *Generator) Draw() time.Time {
	now := g.now()
	start := now.Add(-Window).Truncate(time.Second)

	secs := g.rng.Int63n(int64(Window/time.Second) + 1)
	at := start.Add(time.Duration(secs) * time.Second)

	switch {
	case isWeekend(at):
		at = at.Add(
			time.Duration(12+g.rng.Intn(12)) *
				time.Hour,
		)
	case g.rng.Float64() < eveningBias:
		at = time.Date(
			at.Year(), at.Month(), at.Day(),
			18+g.rng.Intn(6),
			at.Minute(), at.Second(), 0,
			at.Location(),
		)
	}

	if at.After(now) {
		at = now
	}

	if at.Before(start) {
		at = start
	}

	return at
}

// Times returns n timestamps sorted ascending, ready to
// pair with an oldest-first commit list.
func (g *Generator) Times(n int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = g.Draw()
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i].Before(times[j])
	})

	return times
}

// isWeekend reports whether t falls on Saturday or
// Sunday.
func isWeekend(t time.Time) bool {
	wd := t.Weekday()

	return wd == time.Saturday || wd == time.Sunday
}
