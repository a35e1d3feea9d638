package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/clinical"
	"github.com/lizet96/clinica-backend/config"
	"github.com/lizet96/clinica-backend/database"
	"github.com/lizet96/clinica-backend/gateway"
	"github.com/lizet96/clinica-backend/handlers"
	"github.com/lizet96/clinica-backend/middleware"
	"github.com/lizet96/clinica-backend/notification"
	"github.com/lizet96/clinica-backend/routes"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinica",
		Short: "API de atenciones, costos y pagos de la clínica",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(recordatoriosCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// cargar lee y valida la configuración y abre el pool de conexiones
func cargar(ctx context.Context) (*config.Config, zerolog.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, logger, nil, err
	}
	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, logger, nil, err
	}
	return cfg, logger, pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica o consulta las migraciones de la base de datos",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, _, pool, err := cargar(ctx)
			if err != nil {
				return err
			}
			defer database.CloseDB()

			count, err := database.NewMigrator(pool, database.Migraciones()).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Se aplicaron %d migración(es).\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Muestra el estado de las migraciones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, _, pool, err := cargar(ctx)
			if err != nil {
				return err
			}
			defer database.CloseDB()

			statuses, err := database.NewMigrator(pool, database.Migraciones()).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

// recordatoriosCmd lo ejecuta cron una vez al día
func recordatoriosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recordatorios",
		Short: "Envía el recordatorio de las citas programadas para mañana",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, pool, err := cargar(ctx)
			if err != nil {
				return err
			}
			defer database.CloseDB()

			store := database.NewStore(pool)
			svc := clinical.NewService(store, dispatcher(cfg, logger), logger)
			enviados, err := svc.EnviarRecordatorios(ctx, time.Now())
			logger.Info().Int("enviados", enviados).Msg("recordatorios enviados")
			return err
		},
	}
}

func dispatcher(cfg *config.Config, logger zerolog.Logger) *notification.Dispatcher {
	var sender notification.EmailSender
	if cfg.SMTPHabilitado() {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		logger.Warn().Msg("SMTP sin configurar: las notificaciones solo se registran en el log")
		sender = notification.NewLogSender(logger)
	}
	return notification.NewDispatcher(sender, notification.NewTemplateEngine(), cfg.ClinicaNombre, logger)
}

func runServer() error {
	ctx := context.Background()
	cfg, logger, pool, err := cargar(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("no se pudo iniciar el servidor")
		return err
	}
	defer database.CloseDB()

	tarifa, err := cfg.Tarifa()
	if err != nil {
		return err
	}

	var pasarela billing.Pasarela
	if cfg.PayPalHabilitado() {
		pp, err := gateway.NewPayPal(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalMode, cfg.ClinicaNombre, logger)
		if err != nil {
			return err
		}
		pasarela = pp
	} else {
		logger.Warn().Msg("PayPal sin credenciales: solo se aceptan pagos en efectivo")
	}

	store := database.NewStore(pool)
	billingSvc := billing.NewService(store, pasarela, billing.Config{
		TarifaConsulta: tarifa,
		Moneda:         cfg.Moneda,
		ReturnURL:      cfg.BaseURL + "/api/v1/pagos/paypal/ejecutar",
		CancelURL:      cfg.BaseURL + "/api/v1/pagos/paypal/cancelar",
	}, logger)
	clinicalSvc := clinical.NewService(store, dispatcher(cfg, logger), logger)

	secret := cfg.JWTSecret
	if secret == "" {
		// solo fuera de producción; los tokens dejan de valer al reiniciar
		secret = uuid.NewString()
		logger.Warn().Msg("JWT_SECRET vacío: se generó un secreto temporal")
	}
	jwt := middleware.NewJWT(secret, 24*time.Hour)
	h := handlers.New(billingSvc, clinicalSvc, store, jwt, cfg.ClinicaNombre, logger)

	// Crear instancia de Fiber con configuración
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
		AppName: "Clinica Billing API v" + version,
	})

	routes.SetupRoutes(app, h, jwt, routes.Opciones{
		CORSOrigins:  cfg.CORSOrigins,
		RateLimitMax: cfg.RateLimitMax,
		Version:      version,
		Ping:         database.Ping,
	}, logger)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error":   "Ruta no encontrada",
			"message": "La ruta solicitada no existe en este servidor",
			"path":    c.Path(),
			"method":  c.Method(),
		})
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("servidor iniciado")
		if err := app.Listen(addr); err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("apagando servidor")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("servidor detenido")
	return nil
}
