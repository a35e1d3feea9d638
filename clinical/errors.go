package clinical

import "errors"

var (
	ErrValidacion         = errors.New("datos inválidos")
	ErrExamenOtroPaciente = errors.New("el examen seleccionado no pertenece al paciente de la atención")
	ErrExamenOtraAtencion = errors.New("el examen ya está ligado a otra atención")
	ErrAtencionPagada     = errors.New("la atención ya fue pagada; sus cargos no se pueden modificar")
	ErrNotificacion       = errors.New("no se pudo notificar al paciente")
)
