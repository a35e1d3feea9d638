package middleware

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// RequestLogger registra cada petición HTTP con zerolog
func RequestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		evt := logger.WithLevel(determineLogLevel(status))
		if err != nil {
			evt = evt.Err(err)
		}
		evt = evt.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", clientIP(c)).
			Str("user_agent", c.Get("User-Agent"))

		if q := string(c.Request().URI().QueryString()); q != "" {
			evt = evt.Str("query", q)
		}
		if userID, ok := c.Locals("user_id").(int); ok {
			evt = evt.Int("user_id", userID)
		}
		if rol, ok := c.Locals("user_rol").(string); ok {
			evt = evt.Str("rol", rol)
		}
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut || c.Method() == fiber.MethodPatch {
			if body := c.Body(); len(body) > 0 {
				evt = evt.Str("body", filterSensitiveData(string(body)))
			}
		}
		evt.Msg("request")

		return err
	}
}

// clientIP obtiene la IP real del cliente detrás de un proxy
func clientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		ip = realIP
	}
	return ip
}

// filterSensitiveData filtra información sensible del body
func filterSensitiveData(body string) string {
	sensitiveFields := []string{"password", "mfa_code", "code", "secret", "token", "backup_codes"}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		if len(body) > 1000 {
			return body[:1000] + "...[truncated]"
		}
		return body
	}

	for _, field := range sensitiveFields {
		if _, exists := data[field]; exists {
			data[field] = "[FILTERED]"
		}
	}

	filteredJSON, _ := json.Marshal(data)
	filteredBody := string(filteredJSON)
	if len(filteredBody) > 1000 {
		return filteredBody[:1000] + "...[truncated]"
	}
	return filteredBody
}

// determineLogLevel determina el nivel de log basado en el status code
func determineLogLevel(statusCode int) zerolog.Level {
	switch {
	case statusCode >= 500:
		return zerolog.ErrorLevel
	case statusCode >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Recovery convierte un panic en 500 y lo registra con su stack
func Recovery(logger zerolog.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.Error().
				Str("panic", fmt.Sprintf("%v", e)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("panic recovered")
		},
	})
}
