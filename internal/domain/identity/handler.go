package identity

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/medcare/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated signup and login endpoints.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/auth/signup", h.Signup)
	g.POST("/auth/login", h.Login)
}

// RegisterRoutes mounts the endpoints behind the JWT middleware.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/profile", h.Profile)
	api.PUT("/profile", h.UpdateProfile)
	api.PUT("/profile/password", h.ChangePassword)
	api.DELETE("/profile", h.DeleteAccount)
	api.GET("/settings/preferences", h.GetPreferences)
	api.PUT("/settings/preferences", h.UpdatePreferences)
}

type sessionResponse struct {
	Token  string  `json:"token"`
	Doctor *Doctor `json:"doctor"`
}

func (h *Handler) Signup(c echo.Context) error {
	var in SignupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d, token, err := h.svc.Signup(c.Request().Context(), in)
	if err != nil {
		return identityError(err)
	}
	return c.JSON(http.StatusCreated, sessionResponse{Token: token, Doctor: d})
}

func (h *Handler) Login(c echo.Context) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d, token, err := h.svc.Login(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return identityError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Token: token, Doctor: d})
}

func (h *Handler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.Get(ctx, auth.DoctorIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var in ProfileUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	d, err := h.svc.UpdateProfile(ctx, auth.DoctorIDFromContext(ctx), in)
	if err != nil {
		return identityError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.ChangePassword(ctx, auth.DoctorIDFromContext(ctx), in.CurrentPassword, in.NewPassword); err != nil {
		return identityError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handler) GetPreferences(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.Get(ctx, auth.DoctorIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	return c.JSON(http.StatusOK, d.Preferences)
}

func (h *Handler) UpdatePreferences(c echo.Context) error {
	var prefs Preferences
	if err := c.Bind(&prefs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.UpdatePreferences(ctx, auth.DoctorIDFromContext(ctx), prefs); err != nil {
		return identityError(err)
	}
	return c.JSON(http.StatusOK, prefs)
}

func (h *Handler) DeleteAccount(c echo.Context) error {
	var in struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.svc.DeleteAccount(ctx, auth.DoctorIDFromContext(ctx), in.Password); err != nil {
		return identityError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func identityError(err error) error {
	if errors.Is(err, ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return echo.NewHTTPError(http.StatusConflict, "email or license number already registered")
	}
	var verr ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	}
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
