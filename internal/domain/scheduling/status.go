package scheduling

import "fmt"

// Status is the lifecycle state of an appointment. The set is closed: each
// value carries a fixed persisted code and a display label that existing
// clinic data relies on.
type Status uint8

const (
	StatusScheduled Status = iota + 1
	StatusCompleted
	StatusCancelled
	StatusNoShow
)

var statusTable = [...]struct {
	name  string
	code  string
	label string
}{
	StatusScheduled: {"scheduled", "A", "Agendada"},
	StatusCompleted: {"completed", "R", "Realizada"},
	StatusCancelled: {"cancelled", "C", "Cancelada"},
	StatusNoShow:    {"no_show", "N", "Não Compareceu"},
}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	return []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}
}

func (s Status) valid() bool { return s >= StatusScheduled && s <= StatusNoShow }

// Code is the single-letter value stored in the database.
func (s Status) Code() string {
	if !s.valid() {
		return ""
	}
	return statusTable[s].code
}

// Label is the human-readable Portuguese label.
func (s Status) Label() string {
	if !s.valid() {
		return ""
	}
	return statusTable[s].label
}

func (s Status) String() string {
	if !s.valid() {
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
	return statusTable[s].name
}

// Active reports whether an appointment in this status holds its slot.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusCompleted
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s.valid() && s != StatusScheduled
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid appointment status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// ParseStatusCode maps a stored code back to its Status.
func ParseStatusCode(code string) (Status, error) {
	for _, s := range Statuses() {
		if statusTable[s].code == code {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown appointment status code %q", code)
}

// ParseStatus accepts either the name or the stored code.
func ParseStatus(v string) (Status, error) {
	for _, s := range Statuses() {
		if statusTable[s].name == v || statusTable[s].code == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown appointment status %q", v)
}

// activeStatusCodes are the codes of statuses that consume a slot.
func activeStatusCodes() []string {
	return []string{StatusScheduled.Code(), StatusCompleted.Code()}
}
