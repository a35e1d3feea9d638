// Package billing agrega los costos de una atención y registra sus pagos,
// en efectivo o a través de una pasarela externa con confirmación por callback.
package billing

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Config parametriza el servicio de facturación
type Config struct {
	// TarifaConsulta se usa al crear el costo de una atención que aún no lo tiene
	TarifaConsulta decimal.Decimal
	Moneda         string
	// ReturnURL y CancelURL son las rutas públicas a las que la pasarela redirige al pagador
	ReturnURL string
	CancelURL string
}

type Service struct {
	store    Store
	pasarela Pasarela
	cfg      Config
	log      zerolog.Logger
}

// NewService crea el servicio; pasarela puede ser nil si no hay credenciales configuradas
func NewService(store Store, pasarela Pasarela, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Moneda == "" {
		cfg.Moneda = "USD"
	}
	return &Service{
		store:    store,
		pasarela: pasarela,
		cfg:      cfg,
		log:      logger.With().Str("component", "billing").Logger(),
	}
}
