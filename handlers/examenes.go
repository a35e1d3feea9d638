package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/clinical"
	"github.com/lizet96/clinica-backend/models"
)

// ObtenerExamenes lista exámenes filtrando por ?paciente_id= y ?estado=
func (h *Handler) ObtenerExamenes(c *fiber.Ctx) error {
	examenes, err := h.clinical.Examenes(c.UserContext(), c.QueryInt("paciente_id", 0), c.Query("estado"))
	if err != nil {
		return h.responderError(c, "F31", err)
	}
	return exito(c, fiber.StatusOK, "S31", listaExamenes(examenes)...)
}

// ObtenerExamenesPendientes lista los exámenes pendientes ligados a atenciones del paciente
func (h *Handler) ObtenerExamenesPendientes(c *fiber.Ctx) error {
	pacienteID := c.QueryInt("paciente_id", 0)
	if pacienteID <= 0 {
		return fallo(c, fiber.StatusBadRequest, "F35", "El ID del paciente es requerido")
	}
	examenes, err := h.billing.ExamenesPendientes(c.UserContext(), pacienteID)
	if err != nil {
		return h.responderError(c, "F35", err)
	}
	return exito(c, fiber.StatusOK, "S35", listaExamenes(examenes)...)
}

func listaExamenes(examenes []*models.ExamenSolicitado) []interface{} {
	data := make([]interface{}, 0, len(examenes))
	for _, e := range examenes {
		data = append(data, e)
	}
	return data
}

// CrearExamen registra un examen solicitado
func (h *Handler) CrearExamen(c *fiber.Ctx) error {
	var examen models.ExamenSolicitado
	if err := c.BodyParser(&examen); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F30", "Datos inválidos")
	}
	if err := h.clinical.CrearExamen(c.UserContext(), &examen); err != nil {
		return h.responderError(c, "F30", err)
	}
	return exito(c, fiber.StatusCreated, "S30", examen)
}

// ObtenerExamenPorID retorna un examen
func (h *Handler) ObtenerExamenPorID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F31", "ID de examen inválido")
	}
	examen, err := h.clinical.Examen(c.UserContext(), id)
	if err != nil {
		return h.responderError(c, "F31", err)
	}
	return exito(c, fiber.StatusOK, "S31", examen)
}

// ActualizarExamen cambia estado, resultado o comentario del examen
func (h *Handler) ActualizarExamen(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F32", "ID de examen inválido")
	}
	var cambios clinical.CambiosExamen
	if err := c.BodyParser(&cambios); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F32", "Datos inválidos")
	}
	examen, err := h.clinical.ActualizarExamen(c.UserContext(), id, cambios)
	if err != nil {
		return h.responderError(c, "F32", err)
	}
	return exito(c, fiber.StatusOK, "S32", examen)
}

// EliminarExamen borra un examen que no esté referenciado por un detalle
func (h *Handler) EliminarExamen(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return fallo(c, fiber.StatusBadRequest, "F33", "ID de examen inválido")
	}
	if err := h.clinical.EliminarExamen(c.UserContext(), id); err != nil {
		return h.responderError(c, "F33", err)
	}
	return exito(c, fiber.StatusOK, "S33", fiber.Map{"mensaje": "Examen eliminado"})
}
