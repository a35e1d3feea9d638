package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un examen solicitado
const (
	ExamenPendiente = "Pendiente"
	ExamenRealizado = "Realizado"
	ExamenCancelado = "Cancelado"
)

// ExamenSolicitado representa la tabla examen_solicitado
type ExamenSolicitado struct {
	ID             int             `json:"id_examen" db:"id_examen"`
	NombreExamen   string          `json:"nombre_examen" db:"nombre_examen"`
	PacienteID     int             `json:"id_paciente" db:"id_paciente"`
	AtencionID     *int            `json:"id_atencion,omitempty" db:"id_atencion"`
	FechaSolicitud time.Time       `json:"fecha_solicitud" db:"fecha_solicitud"`
	Costo          decimal.Decimal `json:"costo" db:"costo"`
	Resultado      *string         `json:"resultado,omitempty" db:"resultado"`
	Comentario     *string         `json:"comentario,omitempty" db:"comentario"`
	Estado         string          `json:"estado" db:"estado"`
}

// EstadoExamenValido indica si el estado pertenece al catálogo
func EstadoExamenValido(estado string) bool {
	switch estado {
	case ExamenPendiente, ExamenRealizado, ExamenCancelado:
		return true
	}
	return false
}
