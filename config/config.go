package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret     string   `mapstructure:"JWT_SECRET"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	RateLimitMax  int      `mapstructure:"RATE_LIMIT_MAX"`
	BaseURL       string   `mapstructure:"BASE_URL"`
	ClinicaNombre string   `mapstructure:"CLINICA_NOMBRE"`

	ConsultaTarifa string `mapstructure:"CONSULTA_TARIFA"`
	Moneda         string `mapstructure:"MONEDA"`

	PayPalClientID string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalSecret   string `mapstructure:"PAYPAL_SECRET"`
	PayPalMode     string `mapstructure:"PAYPAL_MODE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
}

var claves = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "JWT_SECRET",
	"CORS_ORIGINS", "RATE_LIMIT_MAX", "BASE_URL", "CLINICA_NOMBRE",
	"CONSULTA_TARIFA", "MONEDA",
	"PAYPAL_CLIENT_ID", "PAYPAL_SECRET", "PAYPAL_MODE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM",
}

// Load lee el .env (si existe) y las variables de entorno
func Load() (*Config, error) {
	// el .env es opcional; en producción las variables vienen del entorno
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 30)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("CLINICA_NOMBRE", "Clínica")
	v.SetDefault("CONSULTA_TARIFA", "10.00")
	v.SetDefault("MONEDA", "USD")
	v.SetDefault("PAYPAL_MODE", "sandbox")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)

	for _, k := range claves {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	origins := v.GetString("CORS_ORIGINS")
	if origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
		for i := range cfg.CORSOrigins {
			cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Tarifa retorna la tarifa de consulta por defecto
func (c *Config) Tarifa() (decimal.Decimal, error) {
	return decimal.NewFromString(c.ConsultaTarifa)
}

// PayPalHabilitado indica si hay credenciales para la pasarela
func (c *Config) PayPalHabilitado() bool {
	return c.PayPalClientID != "" && c.PayPalSecret != ""
}

// SMTPHabilitado indica si hay credenciales de correo saliente
func (c *Config) SMTPHabilitado() bool {
	return c.SMTPUser != ""
}

// Validate revisa que la configuración permita arrancar el servidor
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	tarifa, err := c.Tarifa()
	if err != nil {
		return fmt.Errorf("CONSULTA_TARIFA is not a valid amount: %w", err)
	}
	if tarifa.IsNegative() {
		return fmt.Errorf("CONSULTA_TARIFA must not be negative, got %s", tarifa)
	}
	if c.PayPalMode != "sandbox" && c.PayPalMode != "live" {
		return fmt.Errorf("PAYPAL_MODE must be \"sandbox\" or \"live\", got %q", c.PayPalMode)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
