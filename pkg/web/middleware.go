package web

import (
	"log/slog"

	"github.com/dukex/flowgen/pkg/log"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// RequestLogger stores a logger tagged with the request id in the request
// context, reusing an incoming X-Request-ID when present.
func RequestLogger(base *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(fiber.HeaderXRequestID, requestID)

		logger := base.With("request_id", requestID, "method", c.Method(), "path", c.Path())
		c.SetContext(log.WithLogger(c.Context(), logger))

		return c.Next()
	}
}
