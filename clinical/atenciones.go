package clinical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lizet96/clinica-backend/models"
)

// CrearAtencion registra una atención para un paciente existente
func (s *Service) CrearAtencion(ctx context.Context, a *models.Atencion) error {
	if err := validarAtencion(a); err != nil {
		return err
	}
	if _, err := s.store.PacientePorID(ctx, a.PacienteID); err != nil {
		return err
	}
	if a.FechaAtencion.IsZero() {
		a.FechaAtencion = time.Now()
	}
	return s.store.CrearAtencion(ctx, a)
}

func (s *Service) Atencion(ctx context.Context, id int) (*models.Atencion, error) {
	return s.store.AtencionPorID(ctx, id)
}

// Atenciones lista las atenciones de un paciente (0 = todas), la más reciente primero
func (s *Service) Atenciones(ctx context.Context, pacienteID int) ([]*models.Atencion, error) {
	return s.store.ListarAtenciones(ctx, pacienteID)
}

// ActualizarAtencion reemplaza signos vitales y notas; el paciente no cambia
func (s *Service) ActualizarAtencion(ctx context.Context, id int, cambios *models.Atencion) (*models.Atencion, error) {
	actual, err := s.store.AtencionPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	cambios.ID = actual.ID
	cambios.PacienteID = actual.PacienteID
	if cambios.FechaAtencion.IsZero() {
		cambios.FechaAtencion = actual.FechaAtencion
	}
	if err := validarAtencion(cambios); err != nil {
		return nil, err
	}
	if err := s.store.ActualizarAtencion(ctx, cambios); err != nil {
		return nil, err
	}
	return cambios, nil
}

func validarAtencion(a *models.Atencion) error {
	if a.PacienteID <= 0 {
		return fmt.Errorf("%w: el paciente es obligatorio", ErrValidacion)
	}
	if strings.TrimSpace(a.MotivoConsulta) == "" || strings.TrimSpace(a.Sintomas) == "" || strings.TrimSpace(a.Tratamiento) == "" {
		return fmt.Errorf("%w: motivo de consulta, síntomas y tratamiento son obligatorios", ErrValidacion)
	}
	if a.Pulso != nil && *a.Pulso <= 0 {
		return fmt.Errorf("%w: el pulso debe ser positivo", ErrValidacion)
	}
	if a.Altura != nil && !a.Altura.IsPositive() {
		return fmt.Errorf("%w: la altura debe ser positiva", ErrValidacion)
	}
	return nil
}

// AgregarDetalle agrega un medicamento recetado, con un examen opcional del mismo paciente.
// Un examen solo se cobra en una atención: si aún no tiene una, queda ligado a esta.
func (s *Service) AgregarDetalle(ctx context.Context, atencionID int, d *models.DetalleAtencion) error {
	if d.Cantidad <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser mayor a cero", ErrValidacion)
	}
	if strings.TrimSpace(d.Prescripcion) == "" {
		return fmt.Errorf("%w: la prescripción es obligatoria", ErrValidacion)
	}
	atencion, err := s.store.AtencionPorID(ctx, atencionID)
	if err != nil {
		return err
	}
	if err := s.verificarNoPagada(ctx, atencionID); err != nil {
		return err
	}
	med, err := s.store.MedicamentoPorID(ctx, d.MedicamentoID)
	if errors.Is(err, models.ErrNoEncontrado) {
		return fmt.Errorf("%w: el medicamento %d no existe", ErrValidacion, d.MedicamentoID)
	}
	if err != nil {
		return err
	}
	var examen *models.ExamenSolicitado
	if d.ExamenSolicitadoID != nil {
		examen, err = s.store.ExamenPorID(ctx, *d.ExamenSolicitadoID)
		if errors.Is(err, models.ErrNoEncontrado) {
			return fmt.Errorf("%w: el examen %d no existe", ErrValidacion, *d.ExamenSolicitadoID)
		}
		if err != nil {
			return err
		}
		if examen.PacienteID != atencion.PacienteID {
			return ErrExamenOtroPaciente
		}
		if examen.AtencionID != nil && *examen.AtencionID != atencionID {
			return ErrExamenOtraAtencion
		}
	}

	d.AtencionID = atencionID
	d.PrecioUnitario = med.Precio
	if err := s.store.CrearDetalle(ctx, d); err != nil {
		return err
	}
	if examen != nil && examen.AtencionID == nil {
		examen.AtencionID = &atencionID
		return s.store.ActualizarExamen(ctx, examen)
	}
	return nil
}

func (s *Service) Detalles(ctx context.Context, atencionID int) ([]*models.DetalleAtencion, error) {
	if _, err := s.store.AtencionPorID(ctx, atencionID); err != nil {
		return nil, err
	}
	return s.store.DetallesPorAtencion(ctx, atencionID)
}

func (s *Service) EliminarDetalle(ctx context.Context, atencionID, detalleID int) error {
	d, err := s.store.DetallePorID(ctx, detalleID)
	if err != nil {
		return err
	}
	if d.AtencionID != atencionID {
		return models.ErrNoEncontrado
	}
	if err := s.verificarNoPagada(ctx, atencionID); err != nil {
		return err
	}
	return s.store.EliminarDetalle(ctx, detalleID)
}

// verificarNoPagada rechaza cambios de cargos cuando el costo de la atención ya se cobró
func (s *Service) verificarNoPagada(ctx context.Context, atencionID int) error {
	costo, err := s.store.CostoPorAtencion(ctx, atencionID)
	if errors.Is(err, models.ErrNoEncontrado) {
		return nil
	}
	if err != nil {
		return err
	}
	if costo.Pagado {
		return ErrAtencionPagada
	}
	return nil
}
