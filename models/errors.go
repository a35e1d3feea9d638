package models

import "errors"

// Errores de persistencia compartidos por los repositorios
var (
	ErrNoEncontrado = errors.New("registro no encontrado")
	ErrDuplicado    = errors.New("registro duplicado")
	ErrEnUso        = errors.New("registro referenciado por otros datos")
)
