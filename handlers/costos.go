package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/models"
)

// costoResponse es el costo con sus servicios adicionales
type costoResponse struct {
	*models.CostosAtencion
	Servicios []*models.ServicioAdicional `json:"servicios"`
}

// ObtenerCostos lista los costos de atención (?paciente_id= opcional)
func (h *Handler) ObtenerCostos(c *fiber.Ctx) error {
	costos, err := h.billing.Costos(c.UserContext(), c.QueryInt("paciente_id", 0))
	if err != nil {
		return h.responderError(c, "F41", err)
	}
	data := make([]interface{}, 0, len(costos))
	for _, costo := range costos {
		data = append(data, costo)
	}
	return exito(c, fiber.StatusOK, "S41", data...)
}

// CrearCosto registra el costo de una atención
func (h *Handler) CrearCosto(c *fiber.Ctx) error {
	var req billing.SolicitudCosto
	if err := c.BodyParser(&req); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F40", "Datos inválidos")
	}
	costo, err := h.billing.CrearCosto(c.UserContext(), req)
	if err != nil {
		return h.responderError(c, "F40", err)
	}
	return exito(c, fiber.StatusCreated, "S40", costo)
}

// ObtenerCostoPorID retorna el costo con sus servicios adicionales
func (h *Handler) ObtenerCostoPorID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F41", "ID de costo inválido")
	}
	costo, servicios, err := h.billing.Costo(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F41", err)
	}
	if servicios == nil {
		servicios = []*models.ServicioAdicional{}
	}
	return exito(c, fiber.StatusOK, "S41", costoResponse{CostosAtencion: costo, Servicios: servicios})
}

// ActualizarCosto cambia tarifa, descripción o estado de un costo sin pagar
func (h *Handler) ActualizarCosto(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F42", "ID de costo inválido")
	}
	var req billing.SolicitudCosto
	if err := c.BodyParser(&req); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F42", "Datos inválidos")
	}
	costo, err := h.billing.ActualizarCosto(c.UserContext(), id, req)
	if err != nil {
		return h.responderError(c, "F42", err)
	}
	return exito(c, fiber.StatusOK, "S42", costo)
}

// DesactivarCosto desactiva un costo sin pagar
func (h *Handler) DesactivarCosto(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F43", "ID de costo inválido")
	}
	if err := h.billing.DesactivarCosto(c.UserContext(), id); err != nil {
		return h.responderError(c, "F43", err)
	}
	return exito(c, fiber.StatusOK, "S43", fiber.Map{"mensaje": "Costo desactivado"})
}

// AgregarServicio suma un servicio adicional al costo
func (h *Handler) AgregarServicio(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F44", "ID de costo inválido")
	}
	var req billing.SolicitudServicio
	if err := c.BodyParser(&req); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F44", "Datos inválidos")
	}
	servicio, err := h.billing.AgregarServicio(c.UserContext(), id, req)
	if err != nil {
		return h.responderError(c, "F44", err)
	}
	return exito(c, fiber.StatusCreated, "S44", servicio)
}

// EliminarServicio quita un servicio adicional del costo
func (h *Handler) EliminarServicio(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	servicioID, okServicio := paramID(c, "servicio_id")
	if !ok || !okServicio {
		return fallo(c, fiber.StatusBadRequest, "F45", "ID inválido")
	}
	if err := h.billing.EliminarServicio(c.UserContext(), id, servicioID); err != nil {
		return h.responderError(c, "F45", err)
	}
	return exito(c, fiber.StatusOK, "S45", fiber.Map{"mensaje": "Servicio eliminado"})
}
