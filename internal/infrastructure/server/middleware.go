package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/relaxflow/core/internal/adapters/http"
	"github.com/relaxflow/core/internal/application/services"
)

// authMiddleware validates bearer tokens. Browsers cannot set headers on a
// websocket handshake, so a token query parameter is accepted as well.
func (s *Server) authMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !s.config.Auth.Enabled {
				return next(c)
			}

			tokenString, ok := bearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, httpHandlers.ErrorResponse{Message: "Missing or malformed authorization header"})
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error":    err.Error(),
					"endpoint": c.Request().URL.Path,
				})
				return echo.NewHTTPError(http.StatusUnauthorized, httpHandlers.ErrorResponse{Message: "Invalid token"})
			}

			c.Set(httpHandlers.ContextUserEmail, claims.Email)
			c.Set(httpHandlers.ContextUserRole, claims.Role)

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" && c.Request().URL.Path == eventsPath {
			return token, true
		}
		return "", false
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}
