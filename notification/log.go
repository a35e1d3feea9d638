package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender registra los correos en el log en lugar de enviarlos; se usa sin SMTP configurado
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{log: logger}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.log.Info().
		Str("para", to).
		Str("asunto", subject).
		Int("bytes", len(body)).
		Msg("correo no enviado: SMTP sin configurar")
	return nil
}
