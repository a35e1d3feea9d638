package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/receipt"
)

// ObtenerPagos lista los pagos (?paciente_id= opcional)
func (h *Handler) ObtenerPagos(c *fiber.Ctx) error {
	pagos, err := h.billing.Pagos(c.UserContext(), c.QueryInt("paciente_id", 0))
	if err != nil {
		return h.responderError(c, "F51", err)
	}
	data := make([]interface{}, 0, len(pagos))
	for _, p := range pagos {
		data = append(data, p)
	}
	return exito(c, fiber.StatusOK, "S51", data...)
}

// RegistrarPago cobra en efectivo o inicia el pago con PayPal y devuelve la URL de aprobación
func (h *Handler) RegistrarPago(c *fiber.Ctx) error {
	var req billing.SolicitudPago
	if err := c.BodyParser(&req); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F50", "Datos inválidos")
	}
	resultado, err := h.billing.RegistrarPago(c.UserContext(), req)
	if err != nil {
		return h.responderError(c, "F50", err)
	}
	if resultado.RedirectURL != "" {
		return exito(c, fiber.StatusOK, "S50", resultado)
	}
	return exito(c, fiber.StatusCreated, "S50", resultado)
}

// ObtenerPagoPorID retorna un pago
func (h *Handler) ObtenerPagoPorID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F51", "ID de pago inválido")
	}
	pago, err := h.billing.Pago(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F51", err)
	}
	return exito(c, fiber.StatusOK, "S51", pago)
}

// DescargarComprobante genera el PDF del pago como archivo adjunto
func (h *Handler) DescargarComprobante(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F52", "ID de pago inválido")
	}
	recibo, err := h.billing.Recibo(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F52", err)
	}
	var buf bytes.Buffer
	if err := receipt.Generar(&buf, h.clinica, recibo); err != nil {
		return h.responderError(c, "F52", err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", receipt.NombreArchivo(id)))
	return c.Send(buf.Bytes())
}

// VerificarPago indica si el paciente tiene al menos un pago registrado
func (h *Handler) VerificarPago(c *fiber.Ctx) error {
	pacienteID := c.QueryInt("paciente_id", 0)
	if pacienteID <= 0 {
		return fallo(c, fiber.StatusBadRequest, "F53", "El ID del paciente es requerido")
	}
	pagado, err := h.billing.VerificarPago(c.UserContext(), pacienteID)
	if err != nil {
		return h.responderError(c, "F53", err)
	}
	return exito(c, fiber.StatusOK, "S53", fiber.Map{"id_paciente": pacienteID, "pagado": pagado})
}

// ObtenerCostosPaciente retorna lo adeudado por el paciente desglosado por fuente
func (h *Handler) ObtenerCostosPaciente(c *fiber.Ctx) error {
	pacienteID := c.QueryInt("paciente_id", 0)
	if pacienteID <= 0 {
		return fallo(c, fiber.StatusBadRequest, "F54", "El ID del paciente es requerido")
	}
	desglose, err := h.billing.CostosPaciente(c.UserContext(), pacienteID)
	if err != nil {
		return h.responderError(c, "F54", err)
	}
	return exito(c, fiber.StatusOK, "S54", desglose)
}

// EjecutarPayPal recibe el redirect de PayPal tras la aprobación y captura el pago
func (h *Handler) EjecutarPayPal(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		token = c.Query("paymentId")
	}
	pago, err := h.billing.EjecutarPasarela(c.UserContext(), token, c.Query("PayerID"))
	if err != nil {
		return h.responderError(c, "F55", err)
	}
	return exito(c, fiber.StatusOK, "S55", pago)
}

// CancelarPayPal recibe el redirect de PayPal cuando el pagador abandona
func (h *Handler) CancelarPayPal(c *fiber.Ctx) error {
	if err := h.billing.CancelarPasarela(c.UserContext(), c.Query("token")); err != nil {
		return h.responderError(c, "F56", err)
	}
	return exito(c, fiber.StatusOK, "S56", fiber.Map{"mensaje": "Pago cancelado"})
}
