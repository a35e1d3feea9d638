package routes

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/lizet96/clinica-backend/handlers"
	"github.com/lizet96/clinica-backend/middleware"
	"github.com/lizet96/clinica-backend/models"
	"github.com/rs/zerolog"
)

// Opciones de la capa HTTP que vienen de la configuración
type Opciones struct {
	CORSOrigins  []string
	RateLimitMax int
	Version      string
	// Ping revisa la base de datos para /health/db; nil omite la ruta
	Ping func(ctx context.Context) error
}

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(app *fiber.App, h *handlers.Handler, jwt *middleware.JWT, opts Opciones, logger zerolog.Logger) {
	// Middleware global
	app.Use(middleware.Recovery(logger))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.BodySizeLimit(1 << 20))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(opts.CORSOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Ruta de salud del sistema
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Clinica Billing API",
			"version": opts.Version,
		})
	})

	if opts.Ping != nil {
		app.Get("/health/db", func(c *fiber.Ctx) error {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := opts.Ping(ctx); err != nil {
				logger.Error().Err(err).Msg("health check de base de datos fallido")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "error"})
			}
			return c.JSON(fiber.Map{"status": "ok"})
		})
	}

	api := app.Group("/api/v1", middleware.RateLimiter(opts.RateLimitMax))

	// === RUTAS PÚBLICAS (Sin autenticación) ===
	auth := api.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), h.Login)
	auth.Post("/mfa/setup", jwt.Middleware(), h.SetupMFA)
	auth.Post("/mfa/verify", jwt.Middleware(), h.VerifyMFA)

	// Redirects del navegador desde PayPal; no llevan token
	paypal := api.Group("/pagos/paypal", middleware.PasarelaRateLimiter())
	paypal.Get("/ejecutar", h.EjecutarPayPal)
	paypal.Get("/cancelar", h.CancelarPayPal)

	// === RUTAS PROTEGIDAS (Requieren autenticación) ===
	protected := api.Group("/", jwt.Middleware())

	clinico := middleware.RequireRole(models.RolAdmin, models.RolMedico)
	caja := middleware.RequireRole(models.RolAdmin, models.RolSecretaria)
	personal := middleware.RequireRole(models.RolAdmin, models.RolMedico, models.RolSecretaria)

	// --- RUTAS DE ATENCIONES ---
	atenciones := protected.Group("/atenciones")
	atenciones.Get("/", clinico, h.ObtenerAtenciones)
	atenciones.Post("/", clinico, h.CrearAtencion)
	atenciones.Get("/:id", clinico, h.ObtenerAtencionPorID)
	atenciones.Put("/:id", clinico, h.ActualizarAtencion)
	atenciones.Get("/:id/detalles", clinico, h.ObtenerDetalles)
	atenciones.Post("/:id/detalles", clinico, h.AgregarDetalle)
	atenciones.Delete("/:id/detalles/:detalle_id", clinico, h.EliminarDetalle)
	atenciones.Get("/:id/costos", personal, h.ObtenerCostoAtencion)

	// --- RUTAS DE EXÁMENES ---
	examenes := protected.Group("/examenes")
	examenes.Get("/", personal, h.ObtenerExamenes)
	examenes.Get("/pendientes", personal, h.ObtenerExamenesPendientes)
	examenes.Post("/", clinico, h.CrearExamen)
	examenes.Get("/:id", personal, h.ObtenerExamenPorID)
	examenes.Put("/:id", clinico, h.ActualizarExamen)
	examenes.Delete("/:id", clinico, h.EliminarExamen)

	// --- RUTAS DE COSTOS ---
	costos := protected.Group("/costos")
	costos.Get("/", caja, h.ObtenerCostos)
	costos.Post("/", caja, h.CrearCosto)
	costos.Get("/:id", caja, h.ObtenerCostoPorID)
	costos.Put("/:id", caja, h.ActualizarCosto)
	costos.Delete("/:id", caja, h.DesactivarCosto)
	costos.Post("/:id/servicios", caja, h.AgregarServicio)
	costos.Delete("/:id/servicios/:servicio_id", caja, h.EliminarServicio)

	// --- RUTAS DE PAGOS ---
	pagos := protected.Group("/pagos")
	pagos.Get("/", caja, h.ObtenerPagos)
	pagos.Post("/", caja, h.RegistrarPago)
	pagos.Get("/verificar", personal, h.VerificarPago)
	pagos.Get("/costos-paciente", caja, h.ObtenerCostosPaciente)
	pagos.Get("/:id", caja, h.ObtenerPagoPorID)
	pagos.Get("/:id/comprobante", caja, h.DescargarComprobante)

	// --- RUTAS DE CITAS ---
	citas := protected.Group("/citas")
	citas.Get("/", personal, h.ObtenerCitas)
	citas.Post("/", personal, h.CrearCita)
	citas.Get("/:id", personal, h.ObtenerCitaPorID)
	citas.Put("/:id", personal, h.ActualizarCita)
	citas.Delete("/:id", personal, h.EliminarCita)
}
