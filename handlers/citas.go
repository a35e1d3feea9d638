package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/models"
)

// ObtenerCitas lista las citas, opcionalmente de un día (?fecha=AAAA-MM-DD)
func (h *Handler) ObtenerCitas(c *fiber.Ctx) error {
	var fecha *time.Time
	if q := c.Query("fecha"); q != "" {
		f, err := time.Parse("2006-01-02", q)
		if err != nil {
			return fallo(c, fiber.StatusBadRequest, "F61", "La fecha debe tener formato AAAA-MM-DD")
		}
		fecha = &f
	}
	citas, err := h.clinical.Citas(c.UserContext(), fecha)
	if err != nil {
		return h.responderError(c, "F61", err)
	}
	data := make([]interface{}, 0, len(citas))
	for _, cita := range citas {
		data = append(data, cita)
	}
	return exito(c, fiber.StatusOK, "S61", data...)
}

// CrearCita agenda una cita y notifica al paciente
func (h *Handler) CrearCita(c *fiber.Ctx) error {
	var cita models.CitaMedica
	if err := c.BodyParser(&cita); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F60", "Datos inválidos")
	}
	if err := h.clinical.CrearCita(c.UserContext(), &cita); err != nil {
		return h.responderError(c, "F60", err)
	}
	return exito(c, fiber.StatusCreated, "S60", cita)
}

// ObtenerCitaPorID retorna el detalle de una cita
func (h *Handler) ObtenerCitaPorID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F61", "ID de cita inválido")
	}
	cita, err := h.clinical.Cita(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F61", err)
	}
	return exito(c, fiber.StatusOK, "S61", cita)
}

// ActualizarCita reprograma o cambia el estado de una cita
func (h *Handler) ActualizarCita(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F62", "ID de cita inválido")
	}
	var cambios models.CitaMedica
	if err := c.BodyParser(&cambios); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F62", "Datos inválidos")
	}
	cita, err := h.clinical.ActualizarCita(c.UserContext(), id, &cambios)
	if err != nil {
		return h.responderError(c, "F62", err)
	}
	return exito(c, fiber.StatusOK, "S62", cita)
}

// EliminarCita borra una cita
func (h *Handler) EliminarCita(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F63", "ID de cita inválido")
	}
	if err := h.clinical.EliminarCita(c.UserContext(), id); err != nil {
		return h.responderError(c, "F63", err)
	}
	return exito(c, fiber.StatusOK, "S63", fiber.Map{"mensaje": "Cita eliminada"})
}
