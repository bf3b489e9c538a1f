package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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
	api.GET("/consultations", h.List)
	api.POST("/consultations", h.Create)
	api.GET("/consultations/stats", h.Stats)
	api.GET("/consultations/:id", h.Get)
	api.PUT("/consultations/:id", h.Update)
	api.DELETE("/consultations/:id", h.Delete)
	api.GET("/appointments/:id/consultation", h.GetByAppointment)
}

func (h *Handler) Create(c echo.Context) error {
	var in Consultation
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.Create(ctx, auth.DoctorIDFromContext(ctx), &in); err != nil {
		return consultationError(err)
	}
	return c.JSON(http.StatusCreated, in)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	consult, err := h.svc.Get(ctx, auth.DoctorIDFromContext(ctx), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	return c.JSON(http.StatusOK, consult)
}

func (h *Handler) GetByAppointment(c echo.Context) error {
	apptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	consult, err := h.svc.GetByAppointment(ctx, auth.DoctorIDFromContext(ctx), apptID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	return c.JSON(http.StatusOK, consult)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := SearchParams{Status: c.QueryParam("status")}
	if pid := c.QueryParam("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		params.PatientID = id
	}

	ctx := c.Request().Context()
	items, total, err := h.svc.List(ctx, auth.DoctorIDFromContext(ctx), params, pg.Limit, pg.Offset)
	if err != nil {
		return consultationError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in Consultation
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.ID = id

	ctx := c.Request().Context()
	if err := h.svc.Update(ctx, auth.DoctorIDFromContext(ctx), &in); err != nil {
		return consultationError(err)
	}
	return c.JSON(http.StatusOK, in)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.DoctorIDFromContext(ctx), id); err != nil {
		return consultationError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	counts, err := h.svc.CountByStatus(ctx, auth.DoctorIDFromContext(ctx))
	if err != nil {
		return consultationError(err)
	}
	return c.JSON(http.StatusOK, counts)
}

func consultationError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return echo.NewHTTPError(http.StatusConflict, "this appointment already has a consultation")
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
