package identity

import (
	"fmt"
	"time"
)

// ClockLayout is the layout of a doctor's daily start and end times.
const ClockLayout = "15:04"

// DateLayout is the layout used for birth dates on the wire.
const DateLayout = "2006-01-02"

// Doctor maps to the doctor table. The license code is the natural key.
type Doctor struct {
	License   string         `db:"license" json:"license"`
	Name      string         `db:"name" json:"name"`
	Specialty string         `db:"specialty" json:"specialty"`
	Weekdays  []time.Weekday `db:"weekdays" json:"weekdays"`
	StartTime string         `db:"start_time" json:"start_time"`
	EndTime   string         `db:"end_time" json:"end_time"`
	Room      string         `db:"room" json:"room"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// AttendsOn reports whether the doctor works on the given weekday.
func (d *Doctor) AttendsOn(wd time.Weekday) bool {
	for _, w := range d.Weekdays {
		if w == wd {
			return true
		}
	}
	return false
}

// Hours returns the daily start and end as offsets from midnight.
func (d *Doctor) Hours() (start, end time.Duration, err error) {
	if start, err = parseClock(d.StartTime); err != nil {
		return 0, 0, fmt.Errorf("start_time: %w", err)
	}
	if end, err = parseClock(d.EndTime); err != nil {
		return 0, 0, fmt.Errorf("end_time: %w", err)
	}
	return start, end, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Patient maps to the patient table. The national id is the natural key.
type Patient struct {
	NationalID     string    `db:"national_id" json:"national_id"`
	Name           string    `db:"name" json:"name"`
	BirthDate      time.Time `db:"birth_date" json:"birth_date"`
	Address        string    `db:"address" json:"address"`
	Phone          string    `db:"phone" json:"phone"`
	MedicalHistory string    `db:"medical_history" json:"medical_history"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Age returns the number of whole years between the birth date and now.
func (p *Patient) Age(now time.Time) int {
	if p.BirthDate.IsZero() {
		return 0
	}
	now = now.In(p.BirthDate.Location())
	years := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() ||
		(now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
