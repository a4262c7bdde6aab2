package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// requestRecorder lo implementa *metrics.Prometheus.
type requestRecorder interface {
	HTTPRequest(method, path string, status int, d time.Duration)
}

// MetricsMiddleware registra método, ruta y estado de cada petición.
// Usa la ruta registrada (c.Route().Path) para no disparar la cardinalidad con IDs.
func MetricsMiddleware(rec requestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		rec.HTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
