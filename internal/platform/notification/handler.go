package notification

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const listLimit = 100

// NotificationHandler exposes the notification log over HTTP.
type NotificationHandler struct {
	manager *NotificationManager
}

func NewNotificationHandler(mgr *NotificationManager) *NotificationHandler {
	return &NotificationHandler{manager: mgr}
}

func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/notifications/send", h.HandleSend)
	g.POST("/notifications/send-template", h.HandleSendTemplate)
	g.GET("/notifications/stats", h.HandleStats)
	g.GET("/notifications/:id", h.HandleGet)
	g.GET("/notifications", h.HandleList)
	g.POST("/notifications/:id/retry", h.HandleRetry)
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// HandleSend handles POST /notifications/send. A delivery failure still
// answers 201 with the failed record so the caller gets its ID; a record that
// could not be saved is a 500.
func (h *NotificationHandler) HandleSend(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient is required")
	}

	n := &Notification{
		Type:      TypeEmail,
		Recipient: req.Recipient,
		Subject:   req.Subject,
		Body:      req.Body,
	}
	if err := h.manager.Send(c.Request().Context(), n); errors.Is(err, ErrNotRecorded) {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

type sendTemplateRequest struct {
	TemplateID string            `json:"template_id"`
	Recipient  string            `json:"recipient"`
	Data       map[string]string `json:"data"`
}

func (h *NotificationHandler) HandleSendTemplate(c echo.Context) error {
	var req sendTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient is required")
	}

	n, err := h.manager.SendFromTemplate(c.Request().Context(), req.TemplateID, req.Data, req.Recipient)
	switch {
	case err != nil && n == nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotRecorded):
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) HandleGet(c echo.Context) error {
	n, err := h.manager.GetNotification(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

// HandleList handles GET /notifications?recipient=...
func (h *NotificationHandler) HandleList(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient query parameter is required")
	}

	list, err := h.manager.ListByRecipient(c.Request().Context(), recipient, listLimit)
	if err != nil {
		return httpError(err)
	}
	if list == nil {
		list = []*Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) HandleRetry(c echo.Context) error {
	n, err := h.manager.Retry(c.Request().Context(), c.Param("id"))
	if err != nil && (n == nil || errors.Is(err, ErrNotRetryable) || errors.Is(err, ErrNotRecorded)) {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) HandleStats(c echo.Context) error {
	stats, err := h.manager.NotificationStats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotRetryable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
