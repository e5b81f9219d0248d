package schedule

import (
	"fmt"
	"sort"
)

// SessionSelection is one chosen session of an in-progress package
// purchase. Selections live only in the booking flow: discarded on
// cancel, promoted to appointments on payment confirmation.
type SessionSelection struct {
	SessionNumber int       `json:"session_number"` // 1..N
	Date          string    `json:"date"`
	Range         TimeRange `json:"range"`
}

// SelectionPlan validates the session choices for a package requiring a
// fixed number of sessions.
type SelectionPlan struct {
	required int
	chosen   map[int]SessionSelection
}

// NewSelectionPlan creates a plan for a package of n sessions.
func NewSelectionPlan(n int) *SelectionPlan {
	return &SelectionPlan{required: n, chosen: make(map[int]SessionSelection, n)}
}

// RequiredSessions returns the package's session count.
func (p *SelectionPlan) RequiredSessions() int { return p.required }

// Assign records a session choice. Re-assigning the same session number
// replaces its previous choice. Any OTHER session already on the same
// date with an overlapping half-open range is rejected; that covers new
// containing existing, existing containing new, and partial overlap on
// either edge.
func (p *SelectionPlan) Assign(sessionNumber int, date string, r TimeRange) error {
	if sessionNumber < 1 || sessionNumber > p.required {
		return fmt.Errorf("%w: session %d of %d", ErrNotFound, sessionNumber, p.required)
	}
	for n, sel := range p.chosen {
		if n == sessionNumber || sel.Date != date {
			continue
		}
		if sel.Range.Overlaps(r) {
			return fmt.Errorf("%w: session %d already holds %s %s-%s",
				ErrSelectionOverlap, n, sel.Date, sel.Range.Start, sel.Range.End)
		}
	}
	p.chosen[sessionNumber] = SessionSelection{SessionNumber: sessionNumber, Date: date, Range: r}
	return nil
}

// Unassign removes a session choice. Always succeeds, present or not:
// selections are ephemeral client state, so defensive idempotence beats
// error signaling here.
func (p *SelectionPlan) Unassign(sessionNumber int) {
	delete(p.chosen, sessionNumber)
}

// NextUnassignedSession returns the lowest session number in 1..N not
// yet chosen. ok is false once the plan is full; that is a state, not
// an error.
func (p *SelectionPlan) NextUnassignedSession() (int, bool) {
	for n := 1; n <= p.required; n++ {
		if _, ok := p.chosen[n]; !ok {
			return n, true
		}
	}
	return 0, false
}

// IsComplete reports whether exactly the required sessions are chosen.
func (p *SelectionPlan) IsComplete() bool {
	return len(p.chosen) == p.required
}

// Selections returns the current choices sorted by session number.
func (p *SelectionPlan) Selections() []SessionSelection {
	out := make([]SessionSelection, 0, len(p.chosen))
	for _, sel := range p.chosen {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionNumber < out[j].SessionNumber })
	return out
}

// Finalize returns the complete selection set ordered by session number
// for submission to the booking backend, regardless of pick order. An
// incomplete plan cannot be finalized.
func (p *SelectionPlan) Finalize() ([]SessionSelection, error) {
	if !p.IsComplete() {
		next, _ := p.NextUnassignedSession()
		return nil, fmt.Errorf("%w: session %d still unassigned", ErrNotFound, next)
	}
	return p.Selections(), nil
}

// ValidateSelection checks one candidate against an existing selection
// set without mutating anything. Exposed for the stateless HTTP
// validation endpoint.
func ValidateSelection(existing []SessionSelection, candidate SessionSelection) error {
	for _, sel := range existing {
		if sel.SessionNumber == candidate.SessionNumber || sel.Date != candidate.Date {
			continue
		}
		if sel.Range.Overlaps(candidate.Range) {
			return fmt.Errorf("%w: session %d already holds %s %s-%s",
				ErrSelectionOverlap, sel.SessionNumber, sel.Date, sel.Range.Start, sel.Range.End)
		}
	}
	return nil
}
