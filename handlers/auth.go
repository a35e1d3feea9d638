package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/models"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

func usuarioResponse(u *models.Usuario) models.UsuarioResponse {
	return models.UsuarioResponse{
		ID:       u.IDUsuario,
		Nombre:   u.Nombre,
		Apellido: u.Apellido,
		Email:    u.Email,
		Rol:      u.Rol,
	}
}

// Login autentica al personal y devuelve un token JWT; con MFA activo exige el código TOTP
func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fallo(c, fiber.StatusBadRequest, "F01", "Datos inválidos")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return fallo(c, fiber.StatusBadRequest, "F01", "Email y contraseña son requeridos")
	}

	usuario, err := h.usuarios.UsuarioPorEmail(c.UserContext(), req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNoEncontrado) {
			return fallo(c, fiber.StatusUnauthorized, "F01", "Credenciales inválidas")
		}
		return h.responderError(c, "F01", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usuario.Password), []byte(req.Password)); err != nil {
		return fallo(c, fiber.StatusUnauthorized, "F01", "Credenciales inválidas")
	}

	if usuario.MFAEnabled {
		if req.MFACode == "" {
			return exito(c, fiber.StatusOK, "S01", models.LoginResponse{
				RequiresMFA: true,
				Usuario:     usuarioResponse(usuario),
			})
		}
		if !totp.Validate(req.MFACode, usuario.MFASecret) {
			return fallo(c, fiber.StatusUnauthorized, "F01", "Código MFA inválido")
		}
	}

	token, err := h.jwt.GenerateJWT(usuario.IDUsuario, usuario.Rol)
	if err != nil {
		return h.responderError(c, "F01", err)
	}
	return exito(c, fiber.StatusOK, "S01", models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(h.jwt.TTL().Seconds()),
		Usuario:     usuarioResponse(usuario),
	})
}

func (h *Handler) usuarioActual(c *fiber.Ctx) (*models.Usuario, error) {
	id, ok := c.Locals("user_id").(int)
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return h.usuarios.UsuarioPorID(c.UserContext(), id)
}

// SetupMFA genera un secreto TOTP nuevo; queda inactivo hasta verificarlo.
// Con MFA ya activo no se reemplaza el secreto.
func (h *Handler) SetupMFA(c *fiber.Ctx) error {
	usuario, err := h.usuarioActual(c)
	if err != nil {
		return h.responderError(c, "F02", err)
	}
	if usuario.MFAEnabled {
		return fallo(c, fiber.StatusConflict, "F02", "MFA ya está activo para este usuario")
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      h.clinica,
		AccountName: usuario.Email,
	})
	if err != nil {
		return h.responderError(c, "F02", err)
	}
	if err := h.usuarios.ActualizarMFA(c.UserContext(), usuario.IDUsuario, key.Secret(), false); err != nil {
		return h.responderError(c, "F02", err)
	}
	return exito(c, fiber.StatusOK, "S02", models.MFASetupResponse{
		Secret:    key.Secret(),
		QRCodeURL: key.URL(),
	})
}

// VerifyMFA activa MFA si el código corresponde al secreto generado
func (h *Handler) VerifyMFA(c *fiber.Ctx) error {
	var req models.MFAVerifyRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return fallo(c, fiber.StatusBadRequest, "F03", "El código es requerido")
	}
	usuario, err := h.usuarioActual(c)
	if err != nil {
		return h.responderError(c, "F03", err)
	}
	if usuario.MFASecret == "" {
		return fallo(c, fiber.StatusBadRequest, "F03", "Primero configura MFA")
	}
	if !totp.Validate(req.Code, usuario.MFASecret) {
		return fallo(c, fiber.StatusUnauthorized, "F03", "Código MFA inválido")
	}
	if err := h.usuarios.ActualizarMFA(c.UserContext(), usuario.IDUsuario, usuario.MFASecret, true); err != nil {
		return h.responderError(c, "F03", err)
	}
	return exito(c, fiber.StatusOK, "S03", fiber.Map{"mensaje": "MFA activado"})
}
