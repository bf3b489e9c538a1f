package prescription

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/medcare/clinic/internal/platform/auth"
	"github.com/medcare/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/prescriptions", h.List)
	g.POST("/prescriptions", h.Create)
	g.GET("/prescriptions/stats", h.Stats)
	g.GET("/prescriptions/:id", h.Get)
	g.PUT("/prescriptions/:id", h.Update)
	g.DELETE("/prescriptions/:id", h.Delete)
	g.GET("/prescriptions/:id/pdf", h.ExportPDF)
	g.GET("/patients/:id/prescriptions", h.ListByPatient)
}

func (h *Handler) Create(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.ID = uuid.Nil
	p.DoctorID = auth.DoctorIDFromContext(c.Request().Context())

	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return prescriptionError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	doctorID := auth.DoctorIDFromContext(c.Request().Context())

	p, err := h.svc.Get(c.Request().Context(), doctorID, id)
	if err != nil {
		return prescriptionError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p.ID = id
	p.DoctorID = auth.DoctorIDFromContext(c.Request().Context())

	if err := h.svc.Update(c.Request().Context(), &p); err != nil {
		return prescriptionError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	doctorID := auth.DoctorIDFromContext(c.Request().Context())

	if err := h.svc.Delete(c.Request().Context(), doctorID, id); err != nil {
		return prescriptionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	page := pagination.FromContext(c)

	params := SearchParams{
		DateFrom: c.QueryParam("date_from"),
		DateTo:   c.QueryParam("date_to"),
	}
	if raw := c.QueryParam("patient_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
		}
		params.PatientID = pid
	}

	items, total, err := h.svc.List(c.Request().Context(), doctorID, params, page.Limit, page.Offset)
	if err != nil {
		return prescriptionError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	page := pagination.FromContext(c)

	items, total, err := h.svc.List(c.Request().Context(), doctorID,
		SearchParams{PatientID: patientID}, page.Limit, page.Offset)
	if err != nil {
		return prescriptionError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page.Limit, page.Offset))
}

func (h *Handler) Stats(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	stats, err := h.svc.Stats(c.Request().Context(), doctorID)
	if err != nil {
		return prescriptionError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) ExportPDF(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	doctorID := auth.DoctorIDFromContext(c.Request().Context())

	body, err := h.svc.BuildPDF(c.Request().Context(), doctorID, id)
	if err != nil {
		return prescriptionError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="prescription-%s.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", body)
}

func prescriptionError(err error) error {
	var verr ValidationError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	case errors.Is(err, ErrNoMedicines):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
