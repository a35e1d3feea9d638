package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/clinical"
	"github.com/lizet96/clinica-backend/models"
)

type BodyResponse struct {
	IntCode string        `json:"intCode"`
	Data    []interface{} `json:"data"`
}

type StandardResponse struct {
	StatusCode int          `json:"statusCode"`
	Body       BodyResponse `json:"body"`
}

func exito(c *fiber.Ctx, status int, intCode string, data ...interface{}) error {
	if data == nil {
		data = []interface{}{}
	}
	return c.Status(status).JSON(StandardResponse{
		StatusCode: status,
		Body: BodyResponse{
			IntCode: intCode,
			Data:    data,
		},
	})
}

func fallo(c *fiber.Ctx, status int, intCode, mensaje string) error {
	return c.Status(status).JSON(StandardResponse{
		StatusCode: status,
		Body: BodyResponse{
			IntCode: intCode,
			Data:    []interface{}{fiber.Map{"error": mensaje}},
		},
	})
}

// estadoHTTP traduce un error de dominio a status y mensaje para el cliente
func estadoHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, billing.ErrPasarela):
		return http.StatusBadGateway, "Hubo un problema al procesar el pago, intenta más tarde"
	case errors.Is(err, clinical.ErrNotificacion):
		return http.StatusBadGateway, "Los cambios se guardaron pero no se pudo notificar al paciente"
	case errors.Is(err, billing.ErrValidacion), errors.Is(err, clinical.ErrValidacion),
		errors.Is(err, billing.ErrCallbackInvalido):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, billing.ErrSinAtencion):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNoEncontrado):
		return http.StatusNotFound, "Registro no encontrado"
	case errors.Is(err, billing.ErrPagoDuplicado), errors.Is(err, billing.ErrCostoDuplicado),
		errors.Is(err, billing.ErrCostoPagado), errors.Is(err, billing.ErrPagoEnProceso),
		errors.Is(err, billing.ErrMontoCambiado), errors.Is(err, clinical.ErrAtencionPagada):
		return http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrDuplicado), errors.Is(err, models.ErrEnUso):
		return http.StatusConflict, err.Error()
	case errors.Is(err, clinical.ErrExamenOtroPaciente), errors.Is(err, clinical.ErrExamenOtraAtencion),
		errors.Is(err, billing.ErrSinCostos):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "Error interno del servidor"
	}
}

func (h *Handler) responderError(c *fiber.Ctx, intCode string, err error) error {
	status, mensaje := estadoHTTP(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("path", c.Path()).
			Str("int_code", intCode).
			Msg("error procesando la petición")
	}
	return fallo(c, status, intCode, mensaje)
}

// paramID lee un parámetro de ruta entero y positivo
func paramID(c *fiber.Ctx, nombre string) (int, bool) {
	id, err := c.ParamsInt(nombre)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
