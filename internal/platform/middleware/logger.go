package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medcare/clinic/internal/platform/auth"
)

// Logger emits one structured line per request. Authenticated requests carry
// the acting doctor's ID so a practice's activity can be traced end to end.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if doctorID := auth.DoctorIDFromContext(req.Context()); doctorID != uuid.Nil {
				evt = evt.Str("doctor_id", doctorID.String())
			}
			evt.Msg("request")

			return err
		}
	}
}
