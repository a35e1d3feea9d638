package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Paciente representa la tabla paciente (datos de referencia, solo lectura)
type Paciente struct {
	ID        int    `json:"id_paciente" db:"id_paciente"`
	Nombres   string `json:"nombres" db:"nombres"`
	Apellidos string `json:"apellidos" db:"apellidos"`
	Cedula    string `json:"cedula" db:"cedula"`
	Email     string `json:"email" db:"email"`
	Activo    bool   `json:"activo" db:"activo"`
}

// NombreCompleto retorna nombres y apellidos del paciente
func (p Paciente) NombreCompleto() string {
	return strings.TrimSpace(p.Nombres + " " + p.Apellidos)
}

// Medicamento representa la tabla medicamento (datos de referencia)
type Medicamento struct {
	ID     int             `json:"id_medicamento" db:"id_medicamento"`
	Nombre string          `json:"nombre" db:"nombre"`
	Precio decimal.Decimal `json:"precio" db:"precio"`
}
