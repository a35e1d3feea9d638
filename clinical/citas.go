package clinical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lizet96/clinica-backend/models"
	"github.com/lizet96/clinica-backend/notification"
)

const formatoFecha = "2006-01-02"

// CrearCita agenda la cita y notifica al paciente; un fallo del correo se retorna al llamador
func (s *Service) CrearCita(ctx context.Context, c *models.CitaMedica) error {
	if c.Estado == "" {
		c.Estado = models.CitaProgramada
	}
	if err := validarCita(c); err != nil {
		return err
	}
	paciente, err := s.store.PacientePorID(ctx, c.PacienteID)
	if err != nil {
		return err
	}
	if err := s.store.CrearCita(ctx, c); err != nil {
		return err
	}
	return s.notificar(ctx, notification.PlantillaCitaCreada, c, paciente)
}

// Cita retorna el detalle de una cita
func (s *Service) Cita(ctx context.Context, id int) (*models.CitaMedica, error) {
	return s.store.CitaPorID(ctx, id)
}

// Citas lista las citas ordenadas por fecha; fecha nil = todas
func (s *Service) Citas(ctx context.Context, fecha *time.Time) ([]*models.CitaMedica, error) {
	return s.store.ListarCitas(ctx, fecha)
}

// ActualizarCita cambia fecha, hora o estado y notifica al paciente
func (s *Service) ActualizarCita(ctx context.Context, id int, cambios *models.CitaMedica) (*models.CitaMedica, error) {
	actual, err := s.store.CitaPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cambios.Fecha.IsZero() {
		actual.Fecha = cambios.Fecha
	}
	if cambios.HoraCita != "" {
		actual.HoraCita = cambios.HoraCita
	}
	if cambios.Estado != "" {
		actual.Estado = cambios.Estado
	}
	if err := validarCita(actual); err != nil {
		return nil, err
	}
	paciente, err := s.store.PacientePorID(ctx, actual.PacienteID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ActualizarCita(ctx, actual); err != nil {
		return nil, err
	}

	plantilla := notification.PlantillaCitaActualizada
	if actual.Estado == models.CitaCancelada {
		plantilla = notification.PlantillaCitaCancelada
	}
	if err := s.notificar(ctx, plantilla, actual, paciente); err != nil {
		return actual, err
	}
	return actual, nil
}

// EliminarCita borra la cita; el aviso de cancelación solo se registra si falla
func (s *Service) EliminarCita(ctx context.Context, id int) error {
	cita, err := s.store.CitaPorID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.EliminarCita(ctx, id); err != nil {
		return err
	}
	paciente, err := s.store.PacientePorID(ctx, cita.PacienteID)
	if err != nil {
		s.log.Warn().Err(err).Int("id_cita", id).Msg("cita eliminada sin paciente para notificar")
		return nil
	}
	if err := s.notificar(ctx, notification.PlantillaCitaCancelada, cita, paciente); err != nil {
		s.log.Warn().Err(err).Int("id_cita", id).Msg("cita eliminada pero no se pudo notificar")
	}
	return nil
}

// EnviarRecordatorios avisa de las citas programadas para el día siguiente a hoy.
// Retorna cuántos correos salieron y los fallos unidos en un solo error.
func (s *Service) EnviarRecordatorios(ctx context.Context, hoy time.Time) (int, error) {
	manana := time.Date(hoy.Year(), hoy.Month(), hoy.Day()+1, 0, 0, 0, 0, hoy.Location())
	citas, err := s.store.CitasPorFecha(ctx, manana, models.CitaProgramada)
	if err != nil {
		return 0, err
	}

	var (
		enviados int
		errs     []error
	)
	for _, c := range citas {
		paciente, err := s.store.PacientePorID(ctx, c.PacienteID)
		if err != nil {
			errs = append(errs, fmt.Errorf("cita %d: %w", c.ID, err))
			continue
		}
		if err := s.notificar(ctx, notification.PlantillaCitaRecordatorio, c, paciente); err != nil {
			errs = append(errs, fmt.Errorf("cita %d: %w", c.ID, err))
			continue
		}
		enviados++
	}

	s.log.Info().
		Str("fecha", manana.Format(formatoFecha)).
		Int("citas", len(citas)).
		Int("enviados", enviados).
		Msg("recordatorios de citas procesados")
	return enviados, errors.Join(errs...)
}

func (s *Service) notificar(ctx context.Context, plantilla string, c *models.CitaMedica, p *models.Paciente) error {
	if s.notifier == nil {
		return nil
	}
	err := s.notifier.Notificar(ctx, plantilla, p.Email, map[string]string{
		"paciente": p.NombreCompleto(),
		"fecha":    c.Fecha.Format(formatoFecha),
		"hora":     c.HoraCita,
		"estado":   c.Estado,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificacion, err)
	}
	return nil
}

func validarCita(c *models.CitaMedica) error {
	if c.PacienteID <= 0 {
		return fmt.Errorf("%w: el paciente es obligatorio", ErrValidacion)
	}
	if c.Fecha.IsZero() {
		return fmt.Errorf("%w: la fecha es obligatoria", ErrValidacion)
	}
	if _, err := time.Parse("15:04", c.HoraCita); err != nil {
		return fmt.Errorf("%w: la hora debe tener formato HH:MM", ErrValidacion)
	}
	if !models.EstadoCitaValido(c.Estado) {
		return fmt.Errorf("%w: estado de cita %q no válido", ErrValidacion, c.Estado)
	}
	return nil
}
