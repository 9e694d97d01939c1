package scheduling

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/identity"
)

// Appointment books one doctor for one patient at a single date and time.
// Status is only changed through the Service lifecycle operations.
type Appointment struct {
	ID                uuid.UUID
	DoctorLicense     string
	PatientNationalID string
	ScheduledAt       time.Time
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	status Status

	// Populated by the Service on reads.
	Doctor  *identity.Doctor
	Patient *identity.Patient
}

func (a *Appointment) Status() Status { return a.status }

// Slot returns the appointment's time of day in loc.
func (a *Appointment) Slot(loc *time.Location) string {
	return SlotOf(a.ScheduledAt.In(loc))
}

type appointmentJSON struct {
	ID                uuid.UUID         `json:"id"`
	DoctorLicense     string            `json:"doctor_license"`
	PatientNationalID string            `json:"patient_national_id"`
	ScheduledAt       time.Time         `json:"scheduled_at"`
	Notes             string            `json:"notes"`
	Status            Status            `json:"status"`
	StatusCode        string            `json:"status_code"`
	StatusLabel       string            `json:"status_label"`
	Doctor            *identity.Doctor  `json:"doctor,omitempty"`
	Patient           *identity.Patient `json:"patient,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (a *Appointment) MarshalJSON() ([]byte, error) {
	return json.Marshal(appointmentJSON{
		ID:                a.ID,
		DoctorLicense:     a.DoctorLicense,
		PatientNationalID: a.PatientNationalID,
		ScheduledAt:       a.ScheduledAt,
		Notes:             a.Notes,
		Status:            a.status,
		StatusCode:        a.status.Code(),
		StatusLabel:       a.status.Label(),
		Doctor:            a.Doctor,
		Patient:           a.Patient,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	})
}
