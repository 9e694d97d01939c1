package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	e := echo.New()
	return h, env, e
}

func assertHTTPStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != want {
		t.Errorf("expected %d, got %d (%v)", want, he.Code, he.Message)
	}
}

func decodeSlots(t *testing.T, rec *httptest.ResponseRecorder) slotsResponse {
	t.Helper()
	var resp slotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestHandler_AvailableSlots(t *testing.T) {
	h, env, e := newTestHandler()
	env.repo.put("CRM-1", "111", at(2025, 6, 10, 9, 0), StatusScheduled)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?doctor=CRM-1&date=2025-06-10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AvailableSlots(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp := decodeSlots(t, rec)
	if len(resp.Slots) != 14 {
		t.Errorf("expected 14 slots, got %d", len(resp.Slots))
	}
	if resp.Date != "2025-06-10" {
		t.Errorf("unexpected date %q", resp.Date)
	}
}

func TestHandler_AvailableSlots_FallbackToGrid(t *testing.T) {
	h, env, e := newTestHandler()
	env.repo.put("CRM-1", "111", at(2025, 6, 10, 9, 0), StatusScheduled)

	for _, q := range []string{"doctor=CRM-1&date=10/06/2025", "doctor=CRM-404&date=2025-06-10", "date=2025-06-10", ""} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?"+q, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := h.AvailableSlots(c); err != nil {
			t.Fatalf("%q: unexpected error: %v", q, err)
		}
		if resp := decodeSlots(t, rec); len(resp.Slots) != 15 {
			t.Errorf("%q: expected full grid, got %d", q, len(resp.Slots))
		}
	}
}

func TestHandler_ScheduleAppointment(t *testing.T) {
	h, env, e := newTestHandler()

	body := `{"doctor_license":"CRM-1","patient_national_id":"111","date":"2025-06-10","time":"09:00","notes":"retorno","confirm_to":"joao@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ScheduleAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var resp struct {
		Appointment map[string]interface{} `json:"appointment"`
		Notified    bool                   `json:"notified"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Appointment["status_code"] != "A" {
		t.Errorf("expected status_code A, got %v", resp.Appointment["status_code"])
	}
	if !resp.Notified {
		t.Error("expected notified=true")
	}
	if len(env.repo.appts) != 1 {
		t.Errorf("expected 1 stored appointment, got %d", len(env.repo.appts))
	}
}

func TestHandler_ScheduleAppointment_NotificationFailureStillCreated(t *testing.T) {
	h, env, e := newTestHandler()
	env.sender.ok = false

	body := `{"doctor_license":"CRM-1","patient_national_id":"111","scheduled_at":"2025-06-10T09:00","confirm_to":"joao@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ScheduleAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"notified":false`) {
		t.Errorf("expected notified=false in %s", rec.Body.String())
	}
}

func TestHandler_ScheduleAppointment_Past(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"doctor_license":"CRM-1","patient_national_id":"111","scheduled_at":"2020-01-01T09:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assertHTTPStatus(t, h.ScheduleAppointment(c), http.StatusUnprocessableEntity)
}

func TestHandler_ScheduleAppointment_Conflict(t *testing.T) {
	h, env, e := newTestHandler()
	env.repo.put("CRM-1", "222", at(2025, 6, 10, 9, 0), StatusScheduled)

	body := `{"doctor_license":"CRM-1","patient_national_id":"111","scheduled_at":"2025-06-10T09:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assertHTTPStatus(t, h.ScheduleAppointment(c), http.StatusConflict)
}

func TestHandler_ScheduleAppointment_BadInput(t *testing.T) {
	h, _, e := newTestHandler()
	bodies := []string{
		`{"patient_national_id":"111","scheduled_at":"2025-06-10T09:00"}`,
		`{"doctor_license":"CRM-1","patient_national_id":"111","scheduled_at":"amanhã"}`,
		`{"doctor_license":"CRM-1","patient_national_id":"111","date":"2025-06-10","time":"9h"}`,
	}
	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assertHTTPStatus(t, h.ScheduleAppointment(c), http.StatusBadRequest)
	}
}

func TestHandler_ScheduleAppointment_UnknownPatient(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"doctor_license":"CRM-1","patient_national_id":"999","scheduled_at":"2025-06-10T09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assertHTTPStatus(t, h.ScheduleAppointment(c), http.StatusNotFound)
}

func TestHandler_CancelAppointment_Twice(t *testing.T) {
	h, env, e := newTestHandler()
	a := env.repo.put("CRM-1", "111", at(2025, 6, 10, 9, 0), StatusScheduled)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.CancelAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"status_code":"C"`) {
		t.Errorf("expected cancelled appointment, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	assertHTTPStatus(t, h.CancelAppointment(c), http.StatusUnprocessableEntity)
}

func TestHandler_CompleteAppointment(t *testing.T) {
	h, env, e := newTestHandler()
	a := env.repo.put("CRM-1", "111", at(2025, 6, 10, 9, 0), StatusScheduled)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"notes":"alta"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.CompleteAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := env.repo.appts[a.ID]; got.Status() != StatusCompleted || got.Notes != "alta" {
		t.Errorf("unexpected stored appointment: %s %q", got.Status(), got.Notes)
	}
}

func TestHandler_MarkNoShow_Future(t *testing.T) {
	h, env, e := newTestHandler()
	a := env.repo.put("CRM-1", "111", at(2025, 6, 10, 9, 0), StatusScheduled)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	assertHTTPStatus(t, h.MarkNoShow(c), http.StatusUnprocessableEntity)
}

func TestHandler_UpdateNotes(t *testing.T) {
	h, env, e := newTestHandler()
	a := env.repo.put("CRM-1", "111", at(2025, 5, 10, 9, 0), StatusCompleted)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"notes":"exames anexados"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.UpdateNotes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.repo.appts[a.ID].Notes != "exames anexados" {
		t.Error("expected notes to be updated")
	}
}

func TestHandler_GetAppointment_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	assertHTTPStatus(t, h.GetAppointment(c), http.StatusBadRequest)
}

func TestHandler_ListAppointments(t *testing.T) {
	h, env, e := newTestHandler()
	env.repo.put("CRM-1", "111", at(2025, 6, 10, 9, 0), StatusScheduled)
	env.repo.put("CRM-2", "222", at(2025, 6, 10, 9, 0), StatusScheduled)
	env.repo.put("CRM-GONE", "222", at(2025, 6, 10, 9, 0), StatusScheduled)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []map[string]interface{} `json:"data"`
		Total   int                      `json:"total"`
		HasMore bool                     `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("expected 2 resolvable appointments, got %d", resp.Total)
	}
	if len(resp.Data) != 1 || !resp.HasMore {
		t.Errorf("expected one item per page with more to come, got %d (has_more=%v)", len(resp.Data), resp.HasMore)
	}
}

func TestHandler_DeleteAppointment_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5b0e4f0c-6f5a-4c1e-9d55-0d6a3c1b2f10")

	assertHTTPStatus(t, h.DeleteAppointment(c), http.StatusNotFound)
}
