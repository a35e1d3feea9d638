package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/clinical"
	"github.com/lizet96/clinica-backend/models"
)

var (
	_ billing.Store  = (*Store)(nil)
	_ clinical.Store = (*Store)(nil)
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Store implementa la persistencia sobre PostgreSQL
type Store struct {
	pool *pgxpool.Pool
	q    queryable
	enTx bool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// EnTransaccion ejecuta fn dentro de una transacción; si ya hay una en curso la reutiliza
func (s *Store) EnTransaccion(ctx context.Context, fn func(billing.Store) error) error {
	return s.enTransaccion(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) enTransaccion(ctx context.Context, fn func(*Store) error) error {
	if s.enTx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx, enTx: true})
	})
}

// mapError traduce los errores de Postgres a los errores del dominio
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNoEncontrado
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", models.ErrDuplicado, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", models.ErrEnUso, pgErr.ConstraintName)
		}
	}
	return err
}

// afectada retorna ErrNoEncontrado si la sentencia no tocó ninguna fila
func afectada(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNoEncontrado
	}
	return nil
}

func collect[T any](rows pgx.Rows, err error, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) PacientePorID(ctx context.Context, id int) (*models.Paciente, error) {
	var p models.Paciente
	err := s.q.QueryRow(ctx, `
		SELECT id_paciente, nombres, apellidos, COALESCE(cedula, ''), COALESCE(email, ''), activo
		FROM paciente WHERE id_paciente = $1`, id).
		Scan(&p.ID, &p.Nombres, &p.Apellidos, &p.Cedula, &p.Email, &p.Activo)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (s *Store) MedicamentoPorID(ctx context.Context, id int) (*models.Medicamento, error) {
	var m models.Medicamento
	err := s.q.QueryRow(ctx, `SELECT id_medicamento, nombre, precio FROM medicamento WHERE id_medicamento = $1`, id).
		Scan(&m.ID, &m.Nombre, &m.Precio)
	if err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}
