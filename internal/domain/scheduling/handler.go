package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/identity"
	"github.com/Renan-Portela/Clinica-Medica-sub000/pkg/pagination"
)

const (
	dateLayout      = "2006-01-02"
	localDateLayout = "2006-01-02T15:04"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/slots", h.AvailableSlots)

	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments", h.ScheduleAppointment)
	api.POST("/appointments/:id/complete", h.CompleteAppointment)
	api.POST("/appointments/:id/cancel", h.CancelAppointment)
	api.POST("/appointments/:id/no-show", h.MarkNoShow)
	api.PUT("/appointments/:id/notes", h.UpdateNotes)
	api.DELETE("/appointments/:id", h.DeleteAppointment)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidScheduling), errors.Is(err, ErrInvalidStateTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrSlotUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, identity.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// -- Availability --

type slotsResponse struct {
	Doctor string   `json:"doctor,omitempty"`
	Date   string   `json:"date,omitempty"`
	Slots  []string `json:"slots"`
}

// AvailableSlots answers with the full grid when the date does not parse or
// the doctor is unknown.
func (h *Handler) AvailableSlots(c echo.Context) error {
	license := c.QueryParam("doctor")
	date, err := time.ParseInLocation(dateLayout, c.QueryParam("date"), h.svc.Location())
	if err != nil {
		return c.JSON(http.StatusOK, slotsResponse{Doctor: license, Slots: SlotGrid()})
	}
	slots, err := h.svc.AvailableSlotsByLicense(c.Request().Context(), license, date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slotsResponse{Doctor: license, Date: date.Format(dateLayout), Slots: slots})
}

// -- Appointments --

type scheduleRequest struct {
	DoctorLicense     string `json:"doctor_license"`
	PatientNationalID string `json:"patient_national_id"`
	// Either ScheduledAt (RFC 3339 or YYYY-MM-DDTHH:MM in clinic time) or
	// Date plus Time.
	ScheduledAt string `json:"scheduled_at"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Notes       string `json:"notes"`
	ConfirmTo   string `json:"confirm_to"`
}

func (r scheduleRequest) instant(loc *time.Location) (time.Time, error) {
	if r.ScheduledAt != "" {
		if t, err := time.Parse(time.RFC3339, r.ScheduledAt); err == nil {
			return t, nil
		}
		return time.ParseInLocation(localDateLayout, r.ScheduledAt, loc)
	}
	date, err := time.ParseInLocation(dateLayout, r.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return At(date, r.Time)
}

type scheduleResponse struct {
	Appointment *Appointment `json:"appointment"`
	Notified    bool         `json:"notified"`
}

func (h *Handler) ScheduleAppointment(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DoctorLicense == "" || req.PatientNationalID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_license and patient_national_id are required")
	}
	at, err := req.instant(h.svc.Location())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment date/time")
	}
	ctx := c.Request().Context()
	a, err := h.svc.ScheduleByKeys(ctx, req.DoctorLicense, req.PatientNationalID, at, req.Notes)
	if err != nil {
		return httpError(err)
	}
	resp := scheduleResponse{Appointment: a}
	if req.ConfirmTo != "" {
		resp.Notified = h.svc.NotifyConfirmation(ctx, a, req.ConfirmTo)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) loadAppointment(c echo.Context) (*Appointment, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err)
	}
	return a, nil
}

func (h *Handler) GetAppointment(c echo.Context) error {
	a, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		items []*Appointment
		err   error
	)
	switch {
	case c.QueryParam("doctor") != "":
		items, err = h.svc.ListByDoctor(ctx, c.QueryParam("doctor"))
	case c.QueryParam("patient") != "":
		items, err = h.svc.ListByPatient(ctx, c.QueryParam("patient"))
	default:
		items, err = h.svc.ListAppointments(ctx)
	}
	if err != nil {
		return httpError(err)
	}
	pg := pagination.FromContext(c)
	total := len(items)
	start := min(pg.Offset, total)
	end := min(start+pg.Limit, total)
	return c.JSON(http.StatusOK, pagination.NewResponse(items[start:end], total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) CompleteAppointment(c echo.Context) error {
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if err := h.svc.Complete(c.Request().Context(), a, req.Notes); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	a, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if err := h.svc.Cancel(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	a, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if err := h.svc.MarkNoShow(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateNotes(c echo.Context) error {
	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.loadAppointment(c)
	if err != nil {
		return err
	}
	if err := h.svc.UpdateNotes(c.Request().Context(), a, req.Notes); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
