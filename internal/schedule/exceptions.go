package schedule

import (
	"fmt"

	"github.com/google/uuid"
)

// ExceptionKind distinguishes manual blocks from manual openings.
type ExceptionKind string

const (
	ExceptionBlocked   ExceptionKind = "blocked"
	ExceptionAvailable ExceptionKind = "available"
)

// ManualException is a dated one-off override of the weekly template.
type ManualException struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"` // YYYY-MM-DD
	Range       TimeRange     `json:"range"`
	Kind        ExceptionKind `json:"kind"`
	Description string        `json:"description,omitempty"`
}

// ExceptionStore keeps manual exceptions in insertion order.
type ExceptionStore struct {
	items []ManualException
}

// NewExceptionStore returns an empty store, optionally seeded.
func NewExceptionStore(seed ...ManualException) *ExceptionStore {
	s := &ExceptionStore{}
	s.items = append(s.items, seed...)
	return s
}

// Add stores a new exception and returns its id. An identical
// (date, start, end, kind) tuple is rejected as a duplicate; any
// same-date range overlap, whatever the kinds, is rejected as a
// conflict so the admin surface stays unambiguous.
func (s *ExceptionStore) Add(e ManualException) (string, error) {
	for _, x := range s.items {
		if x.Date != e.Date {
			continue
		}
		if x.Range.Start == e.Range.Start && x.Range.End == e.Range.End && x.Kind == e.Kind {
			return "", fmt.Errorf("%w: %s %s-%s %s", ErrDuplicateException, e.Date, e.Range.Start, e.Range.End, e.Kind)
		}
		if x.Range.Overlaps(e.Range) {
			return "", fmt.Errorf("%w: %s %s-%s conflicts with %s-%s (%s)",
				ErrOverlapConflict, e.Date, e.Range.Start, e.Range.End, x.Range.Start, x.Range.End, x.ID)
		}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.items = append(s.items, e)
	return e.ID, nil
}

// Remove deletes by id. A missing id is an error, not a no-op: the
// admin UI relies on the failure to detect stale local state.
func (s *ExceptionStore) Remove(id string) error {
	for i, x := range s.items {
		if x.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: exception %s", ErrNotFound, id)
}

// Get returns the exception with the given id.
func (s *ExceptionStore) Get(id string) (ManualException, bool) {
	for _, x := range s.items {
		if x.ID == id {
			return x, true
		}
	}
	return ManualException{}, false
}

// ListForRange returns exceptions dated within [dateStart, dateEnd],
// inclusive on both ends, in insertion order. YYYY-MM-DD compares
// correctly as a string.
func (s *ExceptionStore) ListForRange(dateStart, dateEnd string) []ManualException {
	var out []ManualException
	for _, x := range s.items {
		if x.Date >= dateStart && x.Date <= dateEnd {
			out = append(out, x)
		}
	}
	return out
}

// ListForDate returns the exceptions for one date, insertion order.
func (s *ExceptionStore) ListForDate(date string) []ManualException {
	return s.ListForRange(date, date)
}

// Replace swaps the whole contents for the given set. Used when a
// server snapshot arrives: server state wins over any optimistic local
// edits, unconditionally.
func (s *ExceptionStore) Replace(items []ManualException) {
	s.items = make([]ManualException, len(items))
	copy(s.items, items)
}

// Len reports the number of stored exceptions.
func (s *ExceptionStore) Len() int { return len(s.items) }
