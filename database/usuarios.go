package database

import (
	"context"

	"github.com/lizet96/clinica-backend/models"
)

const usuarioCols = `id_usuario, nombre, apellido, email, password, rol, created_at, mfa_enabled, mfa_secret`

func (s *Store) scanUsuario(ctx context.Context, where string, arg interface{}) (*models.Usuario, error) {
	var u models.Usuario
	err := s.q.QueryRow(ctx, `SELECT `+usuarioCols+` FROM usuario WHERE `+where, arg).
		Scan(&u.IDUsuario, &u.Nombre, &u.Apellido, &u.Email, &u.Password, &u.Rol, &u.CreatedAt, &u.MFAEnabled, &u.MFASecret)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (s *Store) UsuarioPorEmail(ctx context.Context, email string) (*models.Usuario, error) {
	return s.scanUsuario(ctx, "email = $1", email)
}

func (s *Store) UsuarioPorID(ctx context.Context, id int) (*models.Usuario, error) {
	return s.scanUsuario(ctx, "id_usuario = $1", id)
}

func (s *Store) ActualizarMFA(ctx context.Context, id int, secret string, habilitado bool) error {
	return afectada(s.q.Exec(ctx, `UPDATE usuario SET mfa_secret = $2, mfa_enabled = $3 WHERE id_usuario = $1`, id, secret, habilitado))
}
