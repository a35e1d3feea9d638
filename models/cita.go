package models

import "time"

// Estados de una cita médica
const (
	CitaProgramada = "P"
	CitaCancelada  = "C"
	CitaRealizada  = "R"
)

// CitaMedica representa la tabla cita_medica
type CitaMedica struct {
	ID         int       `json:"id" db:"id_cita"`
	PacienteID int       `json:"id_paciente" db:"id_paciente"`
	Fecha      time.Time `json:"fecha" db:"fecha"`
	HoraCita   string    `json:"hora_cita" db:"hora_cita"`
	Estado     string    `json:"estado" db:"estado"`
}

// EstadoCitaValido indica si el estado pertenece al catálogo
func EstadoCitaValido(estado string) bool {
	switch estado {
	case CitaProgramada, CitaCancelada, CitaRealizada:
		return true
	}
	return false
}
