package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Renan-Portela/Clinica-Medica-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:license", h.GetDoctor)
	api.POST("/doctors", h.CreateDoctor)
	api.PUT("/doctors/:license", h.UpdateDoctor)
	api.DELETE("/doctors/:license", h.DeleteDoctor)

	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:national_id", h.GetPatient)
	api.POST("/patients", h.CreatePatient)
	api.PUT("/patients/:national_id", h.UpdatePatient)
	api.DELETE("/patients/:national_id", h.DeletePatient)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// -- Doctor Handlers --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), &d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.svc.GetDoctor(c.Request().Context(), c.Param("license"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.License = c.Param("license")
	if err := h.svc.UpdateDoctor(c.Request().Context(), &d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	if err := h.svc.DeleteDoctor(c.Request().Context(), c.Param("license")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patient Handlers --

// patientRequest carries the birth date as a plain calendar date.
type patientRequest struct {
	NationalID     string `json:"national_id"`
	Name           string `json:"name"`
	BirthDate      string `json:"birth_date"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	MedicalHistory string `json:"medical_history"`
}

func (r patientRequest) toPatient() (*Patient, error) {
	p := &Patient{
		NationalID:     r.NationalID,
		Name:           r.Name,
		Address:        r.Address,
		Phone:          r.Phone,
		MedicalHistory: r.MedicalHistory,
	}
	if r.BirthDate != "" {
		bd, err := time.Parse(DateLayout, r.BirthDate)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
		}
		p.BirthDate = bd
	}
	return p, nil
}

type patientResponse struct {
	*Patient
	Age int `json:"age"`
}

func (h *Handler) patientView(p *Patient) patientResponse {
	return patientResponse{Patient: p, Age: p.Age(h.svc.now())}
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := req.toPatient()
	if err != nil {
		return err
	}
	if err := h.svc.CreatePatient(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, h.patientView(p))
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("national_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, h.patientView(p))
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	views := make([]patientResponse, 0, len(items))
	for _, p := range items {
		views = append(views, h.patientView(p))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.NationalID = c.Param("national_id")
	p, err := req.toPatient()
	if err != nil {
		return err
	}
	if err := h.svc.UpdatePatient(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, h.patientView(p))
}

func (h *Handler) DeletePatient(c echo.Context) error {
	if err := h.svc.DeletePatient(c.Request().Context(), c.Param("national_id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
