package schedule

// Appointment is a booked session as read from the booking system. The
// core only reads appointments to mark cells occupied; creation and the
// no-overlap invariant live upstream.
type Appointment struct {
	ID              string `json:"id"`
	Date            string `json:"date"` // YYYY-MM-DD
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	PatientRef      string `json:"patient_ref"`
	Status          string `json:"status"`
}

// AppointmentStore is the read-side collection of booked sessions.
type AppointmentStore struct {
	items []Appointment
}

// NewAppointmentStore returns a store, optionally seeded.
func NewAppointmentStore(seed ...Appointment) *AppointmentStore {
	s := &AppointmentStore{}
	s.items = append(s.items, seed...)
	return s
}

// Put inserts or replaces by id.
func (s *AppointmentStore) Put(a Appointment) {
	for i, x := range s.items {
		if x.ID == a.ID {
			s.items[i] = a
			return
		}
	}
	s.items = append(s.items, a)
}

// ListForDate returns the appointments on one date, insertion order.
func (s *AppointmentStore) ListForDate(date string) []Appointment {
	var out []Appointment
	for _, a := range s.items {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// ListForRange returns appointments dated within [dateStart, dateEnd]
// inclusive.
func (s *AppointmentStore) ListForRange(dateStart, dateEnd string) []Appointment {
	var out []Appointment
	for _, a := range s.items {
		if a.Date >= dateStart && a.Date <= dateEnd {
			out = append(out, a)
		}
	}
	return out
}

// Replace swaps the whole contents for a server snapshot.
func (s *AppointmentStore) Replace(items []Appointment) {
	s.items = make([]Appointment, len(items))
	copy(s.items, items)
}

// DetectConflicts reports pairs of appointments on the given date whose
// [start, start+duration) intervals overlap. The invariant is enforced
// upstream; this is a defensive read-side check so a violation surfaces
// instead of silently corrupting the matrix.
func (s *AppointmentStore) DetectConflicts(date string) [][2]Appointment {
	day := s.ListForDate(date)
	var conflicts [][2]Appointment
	for i := 0; i < len(day); i++ {
		for j := i + 1; j < len(day); j++ {
			a, b := day[i], day[j]
			if a.DurationMinutes <= 0 || b.DurationMinutes <= 0 {
				continue
			}
			aStart := ToMinutes(a.StartTime)
			bStart := ToMinutes(b.StartTime)
			if aStart < bStart+b.DurationMinutes && bStart < aStart+a.DurationMinutes {
				conflicts = append(conflicts, [2]Appointment{a, b})
			}
		}
	}
	return conflicts
}
