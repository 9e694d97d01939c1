package identity

import (
	"reflect"
	"testing"
	"time"
)

func TestDoctorRow_WeekdaysEncoding(t *testing.T) {
	tests := []struct {
		name     string
		weekdays []time.Weekday
		stored   string
	}{
		{"none", nil, ""},
		{"single", []time.Weekday{time.Sunday}, "0"},
		{"several", []time.Weekday{time.Monday, time.Wednesday, time.Saturday}, "1,3,6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Doctor{License: "CRM-1", Name: "Dra. Ana Souza", Weekdays: tt.weekdays, StartTime: "08:00", EndTime: "17:00", Room: "101"}
			row := doctorToRow(d)
			if row.Weekdays != tt.stored {
				t.Fatalf("stored weekdays %q, want %q", row.Weekdays, tt.stored)
			}
			back := rowToDoctor(row)
			if !reflect.DeepEqual(back.Weekdays, tt.weekdays) {
				t.Errorf("weekdays = %v, want %v", back.Weekdays, tt.weekdays)
			}
			if back.License != "CRM-1" || back.Room != "101" || back.StartTime != "08:00" || back.EndTime != "17:00" {
				t.Errorf("unexpected doctor %+v", back)
			}
		})
	}
}

func TestRowToDoctor_SkipsMalformedWeekdays(t *testing.T) {
	d := rowToDoctor(doctorRow{License: "CRM-1", Weekdays: " 2, x,,4 "})
	want := []time.Weekday{time.Tuesday, time.Thursday}
	if !reflect.DeepEqual(d.Weekdays, want) {
		t.Errorf("weekdays = %v, want %v", d.Weekdays, want)
	}
}

func TestPatientRow_RoundTrip(t *testing.T) {
	p := &Patient{
		NationalID:     "111",
		Name:           "João Silva",
		BirthDate:      time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC),
		Address:        "Rua A, 10",
		Phone:          "11 99999-0000",
		MedicalHistory: "hipertensão",
	}
	back := rowToPatient(patientToRow(p))
	if !reflect.DeepEqual(back, p) {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
}
