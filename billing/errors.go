package billing

import "errors"

var (
	ErrValidacion       = errors.New("datos inválidos")
	ErrSinAtencion      = errors.New("no se encontró ninguna atención asociada al paciente")
	ErrSinCostos        = errors.New("no hay costos pendientes para este paciente")
	ErrPagoDuplicado    = errors.New("ya existe un pago registrado para este costo de atención")
	ErrCostoDuplicado   = errors.New("ya existe un costo asociado a esta atención")
	ErrCostoPagado      = errors.New("el costo de atención ya fue pagado")
	ErrPasarela         = errors.New("hubo un problema al procesar el pago con la pasarela")
	ErrCallbackInvalido = errors.New("parámetros de confirmación de pago inválidos")
	ErrPagoEnProceso    = errors.New("hay un pago con la pasarela en proceso para este costo")
	ErrMontoCambiado    = errors.New("el total de la atención cambió desde que se creó la orden; inicia un nuevo pago")
)
