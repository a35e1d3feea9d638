package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig configuración para rate limiting
type RateLimitConfig struct {
	Max        int           // Número máximo de requests
	Expiration time.Duration // Ventana de tiempo
	Message    string        // Mensaje de error personalizado
}

// DefaultRateLimit configuración por defecto para rate limiting
var DefaultRateLimit = RateLimitConfig{
	Max:        100,
	Expiration: 15 * time.Minute,
	Message:    "Demasiadas peticiones, intenta más tarde",
}

// AuthRateLimit configuración para endpoints de autenticación
var AuthRateLimit = RateLimitConfig{
	Max:        20,
	Expiration: 30 * time.Minute,
	Message:    "Demasiados intentos de login, intenta más tarde",
}

// PasarelaRateLimit limita los callbacks públicos de la pasarela de pagos
var PasarelaRateLimit = RateLimitConfig{
	Max:        30,
	Expiration: 15 * time.Minute,
	Message:    "Demasiadas confirmaciones de pago, intenta más tarde",
}

// CreateRateLimiter crea un middleware de rate limiting con la configuración especificada
func CreateRateLimiter(config RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.Max,
		Expiration: config.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       true,
				"message":     config.Message,
				"retry_after": int(config.Expiration.Seconds()),
			})
		},
	})
}

// RateLimiter usa la configuración por defecto con el máximo indicado (0 = por defecto)
func RateLimiter(max int) fiber.Handler {
	cfg := DefaultRateLimit
	if max > 0 {
		cfg.Max = max
	}
	return CreateRateLimiter(cfg)
}

// AuthRateLimiter middleware de rate limiting para autenticación
func AuthRateLimiter() fiber.Handler {
	return CreateRateLimiter(AuthRateLimit)
}

// PasarelaRateLimiter middleware de rate limiting para los callbacks de la pasarela
func PasarelaRateLimiter() fiber.Handler {
	return CreateRateLimiter(PasarelaRateLimit)
}

// BodySizeLimit middleware para limitar el tamaño del cuerpo de la petición
func BodySizeLimit(maxSize int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(c.Body()) > maxSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error":    true,
				"message":  "El tamaño de la petición excede el límite permitido",
				"max_size": maxSize,
			})
		}
		return c.Next()
	}
}

// SecurityHeaders middleware para agregar headers de seguridad
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Content-Security-Policy", "default-src 'self'")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		return c.Next()
	}
}
