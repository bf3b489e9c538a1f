package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

// DoctorIDKey is the request context key holding the authenticated doctor's ID.
const DoctorIDKey contextKey = "doctor_id"

// Claims is the JWT payload issued at signup/login. The subject is the
// doctor's UUID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Issuer signs and validates HS256 tokens for doctor sessions.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewIssuer creates a token issuer with the given HMAC signing key and token
// lifetime.
func NewIssuer(signingKey []byte, ttl time.Duration) *Issuer {
	return &Issuer{signingKey: signingKey, ttl: ttl}
}

// Issue creates a signed token for the given doctor.
func (i *Issuer) Issue(doctorID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   doctorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.signingKey)
}

// Middleware validates the bearer token and stores the doctor ID on the
// request context. Requests without a valid token get 401.
func (i *Issuer) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return i.signingKey, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			doctorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			ctx := context.WithValue(c.Request().Context(), DoctorIDKey, doctorID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// DoctorIDFromContext returns the authenticated doctor's ID, or uuid.Nil if
// the request was not authenticated.
func DoctorIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(DoctorIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
