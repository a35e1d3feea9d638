package clinical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lizet96/clinica-backend/models"
)

// CrearExamen registra un examen solicitado; si se liga a una atención debe ser del mismo paciente
func (s *Service) CrearExamen(ctx context.Context, e *models.ExamenSolicitado) error {
	if strings.TrimSpace(e.NombreExamen) == "" {
		return fmt.Errorf("%w: el nombre del examen es obligatorio", ErrValidacion)
	}
	if e.Costo.IsNegative() {
		return fmt.Errorf("%w: el costo no puede ser negativo", ErrValidacion)
	}
	if e.Estado == "" {
		e.Estado = models.ExamenPendiente
	}
	if !models.EstadoExamenValido(e.Estado) {
		return fmt.Errorf("%w: estado de examen %q no válido", ErrValidacion, e.Estado)
	}
	if _, err := s.store.PacientePorID(ctx, e.PacienteID); err != nil {
		return err
	}
	if err := s.validarAtencionExamen(ctx, e); err != nil {
		return err
	}
	if e.FechaSolicitud.IsZero() {
		e.FechaSolicitud = time.Now()
	}
	return s.store.CrearExamen(ctx, e)
}

func (s *Service) Examen(ctx context.Context, id int) (*models.ExamenSolicitado, error) {
	return s.store.ExamenPorID(ctx, id)
}

// Examenes lista por paciente (0 = todos) y estado ("" = todos)
func (s *Service) Examenes(ctx context.Context, pacienteID int, estado string) ([]*models.ExamenSolicitado, error) {
	if estado != "" && !models.EstadoExamenValido(estado) {
		return nil, fmt.Errorf("%w: estado de examen %q no válido", ErrValidacion, estado)
	}
	return s.store.ListarExamenes(ctx, pacienteID, estado)
}

// CambiosExamen son los campos editables de un examen
type CambiosExamen struct {
	Estado     *string `json:"estado"`
	Resultado  *string `json:"resultado"`
	Comentario *string `json:"comentario"`
	AtencionID *int    `json:"id_atencion"`
}

// ActualizarExamen aplica los cambios; el resultado se puede registrar aunque la atención
// ya esté pagada, pero cancelar el examen o moverlo de atención no
func (s *Service) ActualizarExamen(ctx context.Context, id int, c CambiosExamen) (*models.ExamenSolicitado, error) {
	e, err := s.store.ExamenPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	anterior := e.AtencionID
	if c.Estado != nil {
		if !models.EstadoExamenValido(*c.Estado) {
			return nil, fmt.Errorf("%w: estado de examen %q no válido", ErrValidacion, *c.Estado)
		}
		cobrable := (e.Estado == models.ExamenCancelado) != (*c.Estado == models.ExamenCancelado)
		if cobrable && anterior != nil {
			if err := s.verificarNoPagada(ctx, *anterior); err != nil {
				return nil, err
			}
		}
		e.Estado = *c.Estado
	}
	if c.Resultado != nil {
		e.Resultado = c.Resultado
	}
	if c.Comentario != nil {
		e.Comentario = c.Comentario
	}
	if c.AtencionID != nil && (anterior == nil || *anterior != *c.AtencionID) {
		if err := s.moverExamen(ctx, e, anterior); err != nil {
			return nil, err
		}
		e.AtencionID = c.AtencionID
		if err := s.validarAtencionExamen(ctx, e); err != nil {
			return nil, err
		}
	}
	if err := s.store.ActualizarExamen(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// moverExamen verifica que el examen pueda dejar su atención actual
func (s *Service) moverExamen(ctx context.Context, e *models.ExamenSolicitado, anterior *int) error {
	if anterior == nil {
		return nil
	}
	if err := s.verificarNoPagada(ctx, *anterior); err != nil {
		return err
	}
	detalles, err := s.store.DetallesPorAtencion(ctx, *anterior)
	if err != nil {
		return err
	}
	for _, d := range detalles {
		if d.ExamenSolicitadoID != nil && *d.ExamenSolicitadoID == e.ID {
			return ErrExamenOtraAtencion
		}
	}
	return nil
}

func (s *Service) EliminarExamen(ctx context.Context, id int) error {
	e, err := s.store.ExamenPorID(ctx, id)
	if err != nil {
		return err
	}
	if e.AtencionID != nil {
		if err := s.verificarNoPagada(ctx, *e.AtencionID); err != nil {
			return err
		}
	}
	return s.store.EliminarExamen(ctx, id)
}

func (s *Service) validarAtencionExamen(ctx context.Context, e *models.ExamenSolicitado) error {
	if e.AtencionID == nil {
		return nil
	}
	a, err := s.store.AtencionPorID(ctx, *e.AtencionID)
	if errors.Is(err, models.ErrNoEncontrado) {
		return fmt.Errorf("%w: la atención %d no existe", ErrValidacion, *e.AtencionID)
	}
	if err != nil {
		return err
	}
	if a.PacienteID != e.PacienteID {
		return ErrExamenOtroPaciente
	}
	return s.verificarNoPagada(ctx, a.ID)
}
