package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskhub-service/internal/authz"
	"taskhub-service/pkg/jwtutil"
	"taskhub-service/pkg/logger"
	"taskhub-service/prometheus"
)

// PrincipalKey is the echo context key the authenticated principal is
// stored under.
const PrincipalKey = "principal"

// Principal returns the authenticated principal set by Auth.
func Principal(c echo.Context) (authz.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(authz.Principal)
	return p, ok
}

// Auth validates the Bearer token and stores the resulting principal in
// the request context. Expired, malformed and missing tokens all stop
// the request here; no handler or store call happens.
func Auth(tokens *jwtutil.JWT) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				prometheus.RecordAuthError("missing_token")
				return unauthorized(c, "Missing authorization token")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				prometheus.RecordAuthError("invalid_auth_format")
				return unauthorized(c, "Invalid authorization format, expected Bearer token")
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				log.Debug("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return unauthorized(c, "Invalid or expired token")
			}

			principal, err := claims.Principal()
			if err != nil {
				log.Warn("Token carries unknown role", zap.Error(err))
				prometheus.RecordAuthError("invalid_role")
				return unauthorized(c, "Invalid or expired token")
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"message": msg,
	})
}
