package schedule

// Modality says how a weekly block can be attended.
type Modality string

const (
	ModalityOnline   Modality = "online"
	ModalityInPerson Modality = "inPerson"
	ModalityBoth     Modality = "both"
)

// WeeklyBlock is one recurring availability window. Weekday follows
// time.Weekday numbering: 0=Sunday .. 6=Saturday.
type WeeklyBlock struct {
	Weekday  int       `json:"weekday"`
	Range    TimeRange `json:"range"`
	Modality Modality  `json:"modality"`
}

// WeeklyTemplate holds the recurring default availability, a list of
// blocks per weekday in insertion order. Callers needing sorted output
// sort themselves.
type WeeklyTemplate struct {
	days [7][]WeeklyBlock
}

// NewWeeklyTemplate returns an empty template.
func NewWeeklyTemplate() *WeeklyTemplate {
	return &WeeklyTemplate{}
}

// BlocksForWeekday returns a copy of the weekday's blocks. The returned
// slice never aliases internal state.
func (w *WeeklyTemplate) BlocksForWeekday(weekday int) []WeeklyBlock {
	if weekday < 0 || weekday > 6 {
		return nil
	}
	out := make([]WeeklyBlock, len(w.days[weekday]))
	copy(out, w.days[weekday])
	return out
}

// SetBlocksForWeekday replaces the weekday's blocks wholesale. The admin
// UI edits a whole day at a time, so there is no merge.
func (w *WeeklyTemplate) SetBlocksForWeekday(weekday int, blocks []WeeklyBlock) {
	if weekday < 0 || weekday > 6 {
		return
	}
	day := make([]WeeklyBlock, 0, len(blocks))
	for _, b := range blocks {
		b.Weekday = weekday
		day = append(day, b)
	}
	w.days[weekday] = day
}

// CopyWeekday fans one weekday's configuration out onto others, backing
// the "apply to all days" / "apply to weekdays" bulk actions. Each
// destination gets its own copy so later edits to one day never bleed
// into another.
func (w *WeeklyTemplate) CopyWeekday(src int, dst ...int) {
	if src < 0 || src > 6 {
		return
	}
	for _, d := range dst {
		if d < 0 || d > 6 || d == src {
			continue
		}
		w.SetBlocksForWeekday(d, w.BlocksForWeekday(src))
	}
}

// BlockCovering returns the first block on the given weekday containing
// the "HH:MM" instant, or false if none does.
func (w *WeeklyTemplate) BlockCovering(weekday int, t string) (WeeklyBlock, bool) {
	if weekday < 0 || weekday > 6 {
		return WeeklyBlock{}, false
	}
	for _, b := range w.days[weekday] {
		if b.Range.Contains(t) {
			return b, true
		}
	}
	return WeeklyBlock{}, false
}

// All returns every block grouped by weekday, deep-copied.
func (w *WeeklyTemplate) All() map[int][]WeeklyBlock {
	out := make(map[int][]WeeklyBlock, 7)
	for d := 0; d < 7; d++ {
		if len(w.days[d]) > 0 {
			out[d] = w.BlocksForWeekday(d)
		}
	}
	return out
}
