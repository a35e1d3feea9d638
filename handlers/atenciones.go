package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/models"
)

// atencionResponse agrega el IMC calculado al detalle de la atención
type atencionResponse struct {
	*models.Atencion
	IMC *float64 `json:"imc"`
}

// ObtenerAtenciones lista las atenciones, opcionalmente de un paciente (?paciente_id=)
func (h *Handler) ObtenerAtenciones(c *fiber.Ctx) error {
	atenciones, err := h.clinical.Atenciones(c.UserContext(), c.QueryInt("paciente_id", 0))
	if err != nil {
		return h.responderError(c, "F21", err)
	}
	data := make([]interface{}, 0, len(atenciones))
	for _, a := range atenciones {
		data = append(data, a)
	}
	return exito(c, fiber.StatusOK, "S21", data...)
}

// CrearAtencion registra una atención para un paciente
func (h *Handler) CrearAtencion(c *fiber.Ctx) error {
	var atencion models.Atencion
	if err := c.BodyParser(&atencion); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F20", "Datos inválidos")
	}
	if err := h.clinical.CrearAtencion(c.UserContext(), &atencion); err != nil {
		return h.responderError(c, "F20", err)
	}
	return exito(c, fiber.StatusCreated, "S20", atencion)
}

// ObtenerAtencionPorID retorna la atención con su IMC
func (h *Handler) ObtenerAtencionPorID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F21", "ID de atención inválido")
	}
	atencion, err := h.clinical.Atencion(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F21", err)
	}
	return exito(c, fiber.StatusOK, "S21", atencionResponse{Atencion: atencion, IMC: atencion.IMC()})
}

// ActualizarAtencion reemplaza signos vitales y notas de la atención
func (h *Handler) ActualizarAtencion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F22", "ID de atención inválido")
	}
	var cambios models.Atencion
	if err := c.BodyParser(&cambios); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F22", "Datos inválidos")
	}
	atencion, err := h.clinical.ActualizarAtencion(c.UserContext(), id, &cambios)
	if err != nil {
		return h.responderError(c, "F22", err)
	}
	return exito(c, fiber.StatusOK, "S22", atencionResponse{Atencion: atencion, IMC: atencion.IMC()})
}

// AgregarDetalle agrega un medicamento recetado (y opcionalmente un examen) a la atención
func (h *Handler) AgregarDetalle(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F23", "ID de atención inválido")
	}
	var detalle models.DetalleAtencion
	if err := c.BodyParser(&detalle); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F23", "Datos inválidos")
	}
	if err := h.clinical.AgregarDetalle(c.UserContext(), id, &detalle); err != nil {
		return h.responderError(c, "F23", err)
	}
	return exito(c, fiber.StatusCreated, "S23", detalle)
}

// ObtenerDetalles lista los detalles de una atención
func (h *Handler) ObtenerDetalles(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F24", "ID de atención inválido")
	}
	detalles, err := h.clinical.Detalles(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F24", err)
	}
	data := make([]interface{}, 0, len(detalles))
	for _, d := range detalles {
		data = append(data, d)
	}
	return exito(c, fiber.StatusOK, "S24", data...)
}

// EliminarDetalle quita un detalle de la atención
func (h *Handler) EliminarDetalle(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	detalleID, okDetalle := paramID(c, "detalle_id")
	if !ok || !okDetalle {
		return fallo(c, fiber.StatusBadRequest, "F25", "ID inválido")
	}
	if err := h.clinical.EliminarDetalle(c.UserContext(), id, detalleID); err != nil {
		return h.responderError(c, "F25", err)
	}
	return exito(c, fiber.StatusOK, "S25", fiber.Map{"mensaje": "Detalle eliminado"})
}

// ObtenerCostoAtencion retorna el desglose de costos de la atención
func (h *Handler) ObtenerCostoAtencion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F26", "ID de atención inválido")
	}
	desglose, err := h.billing.CostoAtencion(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F26", err)
	}
	return exito(c, fiber.StatusOK, "S26", desglose)
}
