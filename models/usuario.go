package models

import (
	"time"
)

// Roles del personal de la clínica
const (
	RolAdmin      = "admin"
	RolMedico     = "medico"
	RolSecretaria = "secretaria"
)

// Usuario representa la tabla usuario (personal con acceso al sistema)
type Usuario struct {
	IDUsuario  int       `json:"id_usuario" db:"id_usuario"`
	Nombre     string    `json:"nombre" db:"nombre"`
	Apellido   string    `json:"apellido" db:"apellido"`
	Email      string    `json:"email" db:"email"`
	Password   string    `json:"password,omitempty" db:"password"`
	Rol        string    `json:"rol" db:"rol"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	MFAEnabled bool      `json:"mfa_enabled" db:"mfa_enabled"`
	MFASecret  string    `json:"-" db:"mfa_secret"`
}

// UsuarioResponse representa la respuesta sin datos sensibles
type UsuarioResponse struct {
	ID       int    `json:"id_usuario"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
	Rol      string `json:"rol"`
}

// LoginRequest representa la solicitud de login; mfa_code es obligatorio si el usuario tiene MFA
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfa_code,omitempty"`
}

// LoginResponse representa la respuesta del login
type LoginResponse struct {
	RequiresMFA bool            `json:"requires_mfa"`
	AccessToken string          `json:"access_token,omitempty"`
	ExpiresIn   int             `json:"expires_in,omitempty"`
	Usuario     UsuarioResponse `json:"usuario"`
}

type MFASetupResponse struct {
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qr_code_url"`
}

type MFAVerifyRequest struct {
	Code string `json:"code"`
}
