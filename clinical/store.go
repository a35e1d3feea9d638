package clinical

import (
	"context"
	"time"

	"github.com/lizet96/clinica-backend/models"
)

// Store es la persistencia de atenciones, exámenes y citas.
// Las lecturas de un registro inexistente retornan models.ErrNoEncontrado.
type Store interface {
	PacientePorID(ctx context.Context, id int) (*models.Paciente, error)
	MedicamentoPorID(ctx context.Context, id int) (*models.Medicamento, error)

	AtencionPorID(ctx context.Context, id int) (*models.Atencion, error)
	ListarAtenciones(ctx context.Context, pacienteID int) ([]*models.Atencion, error)
	CrearAtencion(ctx context.Context, a *models.Atencion) error
	ActualizarAtencion(ctx context.Context, a *models.Atencion) error

	DetallePorID(ctx context.Context, id int) (*models.DetalleAtencion, error)
	DetallesPorAtencion(ctx context.Context, atencionID int) ([]*models.DetalleAtencion, error)
	CrearDetalle(ctx context.Context, d *models.DetalleAtencion) error
	EliminarDetalle(ctx context.Context, id int) error

	ExamenPorID(ctx context.Context, id int) (*models.ExamenSolicitado, error)
	ListarExamenes(ctx context.Context, pacienteID int, estado string) ([]*models.ExamenSolicitado, error)
	CrearExamen(ctx context.Context, e *models.ExamenSolicitado) error
	ActualizarExamen(ctx context.Context, e *models.ExamenSolicitado) error
	// EliminarExamen retorna models.ErrEnUso si una línea de detalle lo referencia
	EliminarExamen(ctx context.Context, id int) error

	// CostoPorAtencion permite rechazar cambios de cargos en una atención ya pagada
	CostoPorAtencion(ctx context.Context, atencionID int) (*models.CostosAtencion, error)

	CitaPorID(ctx context.Context, id int) (*models.CitaMedica, error)
	// ListarCitas filtra por fecha cuando no es nil, ordenadas por fecha y hora
	ListarCitas(ctx context.Context, fecha *time.Time) ([]*models.CitaMedica, error)
	CitasPorFecha(ctx context.Context, fecha time.Time, estado string) ([]*models.CitaMedica, error)
	CrearCita(ctx context.Context, c *models.CitaMedica) error
	ActualizarCita(ctx context.Context, c *models.CitaMedica) error
	EliminarCita(ctx context.Context, id int) error
}

// Notifier envía un correo renderizado desde una plantilla
type Notifier interface {
	Notificar(ctx context.Context, plantilla, para string, datos map[string]string) error
}
