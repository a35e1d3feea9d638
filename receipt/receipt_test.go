package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/models"
	"github.com/shopspring/decimal"
)

func TestGenerar(t *testing.T) {
	ref := "3C679366HH908993F"
	r := &billing.Recibo{
		Pago: &models.Pago{
			ID:         7,
			Monto:      decimal.RequireFromString("50"),
			MetodoPago: models.MetodoPayPal,
			Pagado:     true,
			Referencia: &ref,
			FechaPago:  time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		Paciente: &models.Paciente{Nombres: "Ana", Apellidos: "Pérez", Cedula: "0912345678"},
		Desglose: billing.Desglose{
			CostoConsulta:        decimal.RequireFromString("10"),
			ServiciosAdicionales: decimal.RequireFromString("25"),
			Examenes:             decimal.RequireFromString("15"),
			TotalGeneral:         decimal.RequireFromString("50"),
		},
	}

	var buf bytes.Buffer
	if err := Generar(&buf, "Clínica Central", r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:8])
	}
}

func TestNombreArchivo(t *testing.T) {
	if got := NombreArchivo(12); got != "comprobante_pago_12.pdf" {
		t.Errorf("got %q", got)
	}
}
