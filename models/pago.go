package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago aceptados
const (
	MetodoEfectivo = "Efectivo"
	MetodoPayPal   = "PayPal"
)

// Pago representa la tabla pago; el monto no cambia una vez registrado
type Pago struct {
	ID              int             `json:"id_pago" db:"id_pago"`
	PacienteID      int             `json:"id_paciente" db:"id_paciente"`
	CostoAtencionID int             `json:"id_costo" db:"id_costo"`
	Monto           decimal.Decimal `json:"monto" db:"monto"`
	MetodoPago      string          `json:"metodo_pago" db:"metodo_pago"`
	Pagado          bool            `json:"pagado" db:"pagado"`
	Referencia      *string         `json:"referencia,omitempty" db:"referencia"`
	FechaPago       time.Time       `json:"fecha_pago" db:"fecha_pago"`
	// Desglose queda congelado al cobrar; el recibo no se recalcula
	Desglose Desglose `json:"desglose"`
}

// Estados de una transacción con la pasarela externa
const (
	TransaccionPendiente  = "pendiente"
	TransaccionProcesando = "procesando"
	TransaccionCompletada = "completada"
	TransaccionFallida    = "fallida"
	TransaccionCancelada  = "cancelada"
)

// TransaccionPasarela guarda la orden creada en la pasarela hasta recibir el callback
type TransaccionPasarela struct {
	ID              int             `json:"id_transaccion" db:"id_transaccion"`
	Token           string          `json:"token" db:"token"`
	Referencia      string          `json:"referencia" db:"referencia"`
	PacienteID      int             `json:"id_paciente" db:"id_paciente"`
	CostoAtencionID int             `json:"id_costo" db:"id_costo"`
	Monto           decimal.Decimal `json:"monto" db:"monto"`
	Estado          string          `json:"estado" db:"estado"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
