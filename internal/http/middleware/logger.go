package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/logging"
)

// Logger is a middleware that logs each HTTP request as one JSON line on stdout.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - error (only when the handler returned one)
func Logger() fiber.Handler {
	return LoggerWith(logging.Default())
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return LoggerWith(logging.New(w, loc))
}

// LoggerWith logs requests through l.
func LoggerWith(l *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		fields := logging.Fields{
			"request_id": rid,
			"method":     c.Method(),
			// path only, no query string
			"path":    c.Path(),
			"status":  responseStatus(c, err),
			"latency": float64(time.Since(start).Microseconds()) / 1000,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		l.Log(fields)

		return err
	}
}

// responseStatus reports the status the error handler will write for err,
// or the status already set on the response.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
