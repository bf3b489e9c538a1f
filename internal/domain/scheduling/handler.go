package scheduling

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/medcare/clinic/internal/platform/auth"
	"github.com/medcare/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments", h.List)
	api.POST("/appointments", h.Book)
	api.GET("/appointments/calendar", h.Calendar)
	api.GET("/appointments/stats", h.Stats)
	api.GET("/appointments/:id", h.Get)
	api.PUT("/appointments/:id", h.Reschedule)
	api.PUT("/appointments/:id/status", h.UpdateStatus)
	api.POST("/appointments/:id/cancel", h.Cancel)
	api.DELETE("/appointments/:id", h.Delete)

	// Appointment history on the patient detail view.
	api.GET("/patients/:id/appointments", h.ListByPatient)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	items, err := h.svc.ListByPatient(ctx, auth.DoctorIDFromContext(ctx), patientID)
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Book(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.DoctorID = auth.DoctorIDFromContext(c.Request().Context())
	a.ID = uuid.Nil

	if err := h.svc.Book(c.Request().Context(), &a); err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), auth.DoctorIDFromContext(c.Request().Context()), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Status:      c.QueryParam("status"),
		DateBucket:  c.QueryParam("date_bucket"),
		PatientName: c.QueryParam("patient"),
	}
	if f.Status != "" && !ValidStatuses[f.Status] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
	}

	items, total, err := h.svc.List(c.Request().Context(), auth.DoctorIDFromContext(c.Request().Context()), f, pg.Limit, pg.Offset)
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id

	ctx := c.Request().Context()
	if err := h.svc.Reschedule(ctx, auth.DoctorIDFromContext(ctx), &a); err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.UpdateStatus(ctx, auth.DoctorIDFromContext(ctx), id, body.Status); err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"id": id.String(), "status": body.Status})
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Cancel(ctx, auth.DoctorIDFromContext(ctx), id); err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"id": id.String(), "status": StatusCancelled})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.DoctorIDFromContext(ctx), id); err != nil {
		return schedulingError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Calendar(c echo.Context) error {
	now := time.Now()
	year, _ := strconv.Atoi(c.QueryParam("year"))
	if year == 0 {
		year = now.Year()
	}
	monthNum, _ := strconv.Atoi(c.QueryParam("month"))
	if monthNum == 0 {
		monthNum = int(now.Month())
	}
	if monthNum < 1 || monthNum > 12 {
		return echo.NewHTTPError(http.StatusBadRequest, "month must be 1-12")
	}

	ctx := c.Request().Context()
	days, err := h.svc.CalendarMonth(ctx, auth.DoctorIDFromContext(ctx), year, time.Month(monthNum))
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, days)
}

func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.svc.Stats(ctx, auth.DoctorIDFromContext(ctx))
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// schedulingError maps service errors to HTTP responses. Overlaps are
// conflicts carrying the blocking window; not-found hides whether the row
// exists or belongs to another doctor.
func schedulingError(err error) error {
	var overlap *OverlapError
	if errors.As(err, &overlap) {
		return echo.NewHTTPError(http.StatusConflict, overlap.Error())
	}
	var past *PastDateError
	if errors.As(err, &past) {
		return echo.NewHTTPError(http.StatusBadRequest, past.Error())
	}
	if errors.Is(err, ErrInvalidStatus) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	}
	// Anything else is a server fault. The cause is attached for the request
	// log; the client sees only a generic 500.
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
