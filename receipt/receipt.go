// Package receipt genera el comprobante de pago en PDF.
package receipt

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/lizet96/clinica-backend/billing"
)

// NombreArchivo es el nombre de descarga del comprobante
func NombreArchivo(pagoID int) string {
	return fmt.Sprintf("comprobante_pago_%d.pdf", pagoID)
}

// Generar escribe el comprobante del pago en w
func Generar(w io.Writer, clinica string, r *billing.Recibo) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Comprobante de pago"), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(clinica), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr("Comprobante de pago"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	fila := func(etiqueta, valor string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, tr(etiqueta), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, tr(valor), "", 1, "L", false, 0, "")
	}
	fila("Pago N°:", fmt.Sprint(r.Pago.ID))
	fila("Paciente:", r.Paciente.NombreCompleto())
	if r.Paciente.Cedula != "" {
		fila("Cédula:", r.Paciente.Cedula)
	}
	fila("Método de pago:", r.Pago.MetodoPago)
	fila("Fecha:", r.Pago.FechaPago.Format("02/01/2006 15:04"))
	if r.Pago.Referencia != nil {
		fila("Referencia:", *r.Pago.Referencia)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(130, 8, tr("Concepto"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, "Valor", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	conceptos := []struct {
		nombre string
		valor  string
	}{
		{"Consulta", r.Desglose.CostoConsulta.StringFixed(2)},
		{"Servicios adicionales", r.Desglose.ServiciosAdicionales.StringFixed(2)},
		{"Exámenes", r.Desglose.Examenes.StringFixed(2)},
		{"Medicinas", r.Desglose.Medicinas.StringFixed(2)},
	}
	for _, c := range conceptos {
		pdf.CellFormat(130, 8, tr(c.nombre), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, "$"+c.valor, "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 9, "Total pagado", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 9, "$"+r.Pago.Monto.StringFixed(2), "1", 1, "R", false, 0, "")

	return pdf.Output(w)
}
