package handler

import (
	"context"
	"net/http"
	"shop-service/pkg/database"
	"shop-service/pkg/logger"
	"shop-service/prometheus"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "shop-service",
	})
}

// TestDB pings the database
func TestDB(c echo.Context) error {
	log := logger.FromContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		log.Error("Database ping error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":  "error",
			"message": "Error conectando a la base de datos",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"message": "Conexión exitosa a la base de datos",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
