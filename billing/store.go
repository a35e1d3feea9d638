package billing

import (
	"context"

	"github.com/lizet96/clinica-backend/models"
	"github.com/shopspring/decimal"
)

// Store es la persistencia que necesitan el agregador de costos y el procesador de pagos.
// Las lecturas de un registro inexistente retornan models.ErrNoEncontrado.
type Store interface {
	PacientePorID(ctx context.Context, id int) (*models.Paciente, error)
	AtencionPorID(ctx context.Context, id int) (*models.Atencion, error)
	// ListarAtenciones retorna las atenciones del paciente, la más reciente primero (0 = todas)
	ListarAtenciones(ctx context.Context, pacienteID int) ([]*models.Atencion, error)
	DetallesPorAtencion(ctx context.Context, atencionID int) ([]*models.DetalleAtencion, error)
	// ExamenesPorAtencion incluye los exámenes ligados directamente o por una línea de detalle, sin repetir
	ExamenesPorAtencion(ctx context.Context, atencionID int) ([]*models.ExamenSolicitado, error)
	ListarExamenes(ctx context.Context, pacienteID int, estado string) ([]*models.ExamenSolicitado, error)

	CostoPorID(ctx context.Context, id int) (*models.CostosAtencion, error)
	CostoPorAtencion(ctx context.Context, atencionID int) (*models.CostosAtencion, error)
	ListarCostos(ctx context.Context, pacienteID int) ([]*models.CostosAtencion, error)
	// CrearCosto retorna models.ErrDuplicado si la atención ya tiene costo
	CrearCosto(ctx context.Context, c *models.CostosAtencion) error
	ActualizarCosto(ctx context.Context, c *models.CostosAtencion) error
	// BloquearCosto lee el costo bloqueando la fila hasta el fin de la transacción
	BloquearCosto(ctx context.Context, id int) (*models.CostosAtencion, error)
	MarcarCostoPagado(ctx context.Context, id int, total decimal.Decimal) error

	ServicioPorID(ctx context.Context, id int) (*models.ServicioAdicional, error)
	ServiciosPorCosto(ctx context.Context, costoID int) ([]*models.ServicioAdicional, error)
	CrearServicio(ctx context.Context, s *models.ServicioAdicional) error
	EliminarServicio(ctx context.Context, id int) error

	PagoPorID(ctx context.Context, id int) (*models.Pago, error)
	ListarPagos(ctx context.Context, pacienteID int) ([]*models.Pago, error)
	ExistePagoPagado(ctx context.Context, pacienteID, costoID int) (bool, error)
	PacienteTienePagos(ctx context.Context, pacienteID int) (bool, error)
	// CrearPago retorna models.ErrDuplicado si el costo ya tiene pago
	CrearPago(ctx context.Context, p *models.Pago) error

	CrearTransaccion(ctx context.Context, t *models.TransaccionPasarela) error
	TransaccionPorToken(ctx context.Context, token string) (*models.TransaccionPasarela, error)
	// CambiarEstadoTransaccion aplica desde → hacia y retorna false si la transacción no estaba en "desde"
	CambiarEstadoTransaccion(ctx context.Context, token, desde, hacia string) (bool, error)
	// TransaccionEnProceso indica si el costo tiene una captura en curso
	TransaccionEnProceso(ctx context.Context, costoID int) (bool, error)
	// CancelarTransaccionesPendientes cancela las órdenes pendientes del costo y retorna cuántas
	CancelarTransaccionesPendientes(ctx context.Context, costoID int) (int, error)

	// EnTransaccion ejecuta fn de forma atómica: todo o nada
	EnTransaccion(ctx context.Context, fn func(Store) error) error
}

// OrdenPasarela es la solicitud de cobro enviada a la pasarela
type OrdenPasarela struct {
	Referencia  string
	Monto       decimal.Decimal
	Moneda      string
	Descripcion string
	ReturnURL   string
	CancelURL   string
}

// OrdenCreada es la orden pendiente de aprobación por el pagador
type OrdenCreada struct {
	Token       string
	ApprovalURL string
}

// Pasarela es el proveedor externo de pagos (PayPal)
type Pasarela interface {
	CrearOrden(ctx context.Context, orden OrdenPasarela) (*OrdenCreada, error)
	// CapturarOrden verifica que la orden fue aprobada por payerID y la ejecuta; retorna la referencia de la captura
	CapturarOrden(ctx context.Context, token, payerID string) (string, error)
}
