package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Atencion representa la cabecera de una atención médica (visita)
type Atencion struct {
	ID                     int              `json:"id_atencion" db:"id_atencion"`
	PacienteID             int              `json:"id_paciente" db:"id_paciente"`
	FechaAtencion          time.Time        `json:"fecha_atencion" db:"fecha_atencion"`
	PresionArterial        *string          `json:"presion_arterial,omitempty" db:"presion_arterial"`
	Pulso                  *int             `json:"pulso,omitempty" db:"pulso"`
	Temperatura            *decimal.Decimal `json:"temperatura,omitempty" db:"temperatura"`
	FrecuenciaRespiratoria *int             `json:"frecuencia_respiratoria,omitempty" db:"frecuencia_respiratoria"`
	SaturacionOxigeno      *decimal.Decimal `json:"saturacion_oxigeno,omitempty" db:"saturacion_oxigeno"`
	Peso                   *decimal.Decimal `json:"peso,omitempty" db:"peso"`
	Altura                 *decimal.Decimal `json:"altura,omitempty" db:"altura"`
	MotivoConsulta         string           `json:"motivo_consulta" db:"motivo_consulta"`
	Sintomas               string           `json:"sintomas" db:"sintomas"`
	Tratamiento            string           `json:"tratamiento" db:"tratamiento"`
	ExamenFisico           *string          `json:"examen_fisico,omitempty" db:"examen_fisico"`
	ComentarioAdicional    *string          `json:"comentario_adicional,omitempty" db:"comentario_adicional"`
	Diagnosticos           []int            `json:"diagnosticos" db:"-"`
}

// IMC calcula el índice de masa corporal; nil si faltan peso o altura
func (a Atencion) IMC() *float64 {
	if a.Peso == nil || a.Altura == nil || !a.Altura.IsPositive() {
		return nil
	}
	peso, _ := a.Peso.Float64()
	altura, _ := a.Altura.Float64()
	imc := math.Round(peso/(altura*altura)*100) / 100
	return &imc
}

// DetalleAtencion relaciona una atención con un medicamento recetado y, opcionalmente, un examen
type DetalleAtencion struct {
	ID                  int    `json:"id_detalle" db:"id_detalle"`
	AtencionID          int    `json:"id_atencion" db:"id_atencion"`
	MedicamentoID       int    `json:"id_medicamento" db:"id_medicamento"`
	ExamenSolicitadoID  *int   `json:"id_examen_solicitado,omitempty" db:"id_examen_solicitado"`
	Cantidad            int    `json:"cantidad" db:"cantidad"`
	Prescripcion        string `json:"prescripcion" db:"prescripcion"`
	DuracionTratamiento *int   `json:"duracion_tratamiento,omitempty" db:"duracion_tratamiento"`
	// PrecioUnitario viene del medicamento al momento de la lectura
	PrecioUnitario decimal.Decimal `json:"precio_unitario" db:"-"`
}

// Subtotal retorna precio unitario por cantidad
func (d DetalleAtencion) Subtotal() decimal.Decimal {
	return d.PrecioUnitario.Mul(decimal.NewFromInt(int64(d.Cantidad)))
}
