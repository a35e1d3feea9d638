package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostosAtencion representa el costo agregado de una atención (uno por atención)
type CostosAtencion struct {
	ID            int             `json:"id_costo" db:"id_costo"`
	AtencionID    int             `json:"id_atencion" db:"id_atencion"`
	CostoConsulta decimal.Decimal `json:"costo_consulta" db:"costo_consulta"`
	Descripcion   *string         `json:"descripcion,omitempty" db:"descripcion"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Activo        bool            `json:"activo" db:"activo"`
	Pagado        bool            `json:"pagado" db:"pagado"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ServicioAdicional representa un servicio cobrable asociado a un costo de atención
type ServicioAdicional struct {
	ID              int             `json:"id_servicio" db:"id_servicio"`
	CostoAtencionID int             `json:"id_costo" db:"id_costo"`
	NombreServicio  string          `json:"nombre_servicio" db:"nombre_servicio"`
	CostoServicio   decimal.Decimal `json:"costo_servicio" db:"costo_servicio"`
	Descripcion     *string         `json:"descripcion,omitempty" db:"descripcion"`
	Activo          bool            `json:"activo" db:"activo"`
}

// Desglose es un total separado por fuente de costo; el pago guarda el suyo al registrarse
type Desglose struct {
	CostoConsulta        decimal.Decimal `json:"costos_atencion"`
	ServiciosAdicionales decimal.Decimal `json:"servicios_adicionales"`
	Examenes             decimal.Decimal `json:"examenes"`
	Medicinas            decimal.Decimal `json:"medicinas"`
	TotalGeneral         decimal.Decimal `json:"total_general"`
}

// Sumar acumula otro desglose
func (d Desglose) Sumar(o Desglose) Desglose {
	return Desglose{
		CostoConsulta:        d.CostoConsulta.Add(o.CostoConsulta),
		ServiciosAdicionales: d.ServiciosAdicionales.Add(o.ServiciosAdicionales),
		Examenes:             d.Examenes.Add(o.Examenes),
		Medicinas:            d.Medicinas.Add(o.Medicinas),
		TotalGeneral:         d.TotalGeneral.Add(o.TotalGeneral),
	}
}
