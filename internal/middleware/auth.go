package middleware

import (
	"errors"
	"net/http"
	"shop-service/pkg/jwtutil"
	"shop-service/pkg/logger"
	"shop-service/prometheus"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	userIDKey  = "user_id"
	emailKey   = "email"
	isAdminKey = "is_admin"
)

// AuthMiddleware validates the bearer JWT and stores the caller in the context
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Missing Authorization Header"})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Bad Authorization header. Expected 'Authorization: Bearer <JWT>'"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, jwtutil.ErrExpiredToken) {
				log.Info("Expired JWT token")
				prometheus.RecordAuthError("expired_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"msg": "Token has expired"})
			}
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"msg": "Invalid token"})
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Set(isAdminKey, claims.Admin)

		log.Debug("Request authenticated", zap.Uint("user_id", claims.UserID))
		return next(c)
	}
}

// RequireAdmin rejects callers whose token lacks the admin flag. Must run after AuthMiddleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if admin, _ := c.Get(isAdminKey).(bool); !admin {
			logger.FromContext(c).Warn("Admin route refused", zap.Any("user_id", c.Get(userIDKey)))
			prometheus.RecordAuthError("admin_required")
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Acceso restringido a administradores"})
		}
		return next(c)
	}
}

// UserIDFromContext returns the authenticated user id
func UserIDFromContext(c echo.Context) (uint, bool) {
	id, ok := c.Get(userIDKey).(uint)
	return id, ok
}
