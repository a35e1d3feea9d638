// Package clinical registra atenciones médicas, sus líneas de detalle, los exámenes
// solicitados y las citas, notificando al paciente los cambios de cada cita.
package clinical

import (
	"github.com/rs/zerolog"
)

type Service struct {
	store    Store
	notifier Notifier
	log      zerolog.Logger
}

func NewService(store Store, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		log:      logger.With().Str("component", "clinical").Logger(),
	}
}
