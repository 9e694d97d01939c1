package scheduling

import "time"

// SlotLayout is the time-of-day layout of a slot.
const SlotLayout = "15:04"

// slotGrid is the clinic's bookable day: half-hour slots from 08:00 to 11:30
// and from 14:00 to 17:00.
var slotGrid = [...]string{
	"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00",
}

// SlotGrid returns the canonical ordered list of bookable times of day.
// The returned slice is a fresh copy.
func SlotGrid() []string {
	out := make([]string, len(slotGrid))
	copy(out, slotGrid[:])
	return out
}

// IsGridSlot reports whether hhmm is one of the bookable times.
func IsGridSlot(hhmm string) bool {
	for _, s := range slotGrid {
		if s == hhmm {
			return true
		}
	}
	return false
}

// SlotOf returns the time-of-day of t in t's location, in SlotLayout.
func SlotOf(t time.Time) string {
	return t.Format(SlotLayout)
}

// At combines a calendar date with a slot time in the date's location.
func At(date time.Time, hhmm string) (time.Time, error) {
	clock, err := time.Parse(SlotLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, date.Location()), nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dayBounds(date time.Time) (start, end time.Time) {
	y, m, d := date.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
