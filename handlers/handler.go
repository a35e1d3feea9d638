// Package handlers expone los servicios de la clínica sobre HTTP con Fiber.
package handlers

import (
	"context"

	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/clinical"
	"github.com/lizet96/clinica-backend/middleware"
	"github.com/lizet96/clinica-backend/models"
	"github.com/rs/zerolog"
)

// UsuarioStore es la persistencia del personal usada por el login y MFA
type UsuarioStore interface {
	UsuarioPorEmail(ctx context.Context, email string) (*models.Usuario, error)
	UsuarioPorID(ctx context.Context, id int) (*models.Usuario, error)
	ActualizarMFA(ctx context.Context, id int, secret string, habilitado bool) error
}

type Handler struct {
	billing  *billing.Service
	clinical *clinical.Service
	usuarios UsuarioStore
	jwt      *middleware.JWT
	clinica  string
	log      zerolog.Logger
}

func New(b *billing.Service, cl *clinical.Service, usuarios UsuarioStore, jwt *middleware.JWT, clinica string, logger zerolog.Logger) *Handler {
	return &Handler{
		billing:  b,
		clinical: cl,
		usuarios: usuarios,
		jwt:      jwt,
		clinica:  clinica,
		log:      logger,
	}
}
