package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/lizet96/clinica-backend/models"
	"github.com/shopspring/decimal"
)

const costoCols = `c.id_costo, c.id_atencion, c.costo_consulta, c.descripcion, c.total, c.activo, c.pagado, c.created_at, c.updated_at`

func scanCosto(row pgx.Row) (*models.CostosAtencion, error) {
	var c models.CostosAtencion
	err := row.Scan(&c.ID, &c.AtencionID, &c.CostoConsulta, &c.Descripcion, &c.Total, &c.Activo, &c.Pagado, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (s *Store) CostoPorID(ctx context.Context, id int) (*models.CostosAtencion, error) {
	return scanCosto(s.q.QueryRow(ctx, `SELECT `+costoCols+` FROM costos_atencion c WHERE c.id_costo = $1`, id))
}

func (s *Store) CostoPorAtencion(ctx context.Context, atencionID int) (*models.CostosAtencion, error) {
	return scanCosto(s.q.QueryRow(ctx, `SELECT `+costoCols+` FROM costos_atencion c WHERE c.id_atencion = $1`, atencionID))
}

func (s *Store) ListarCostos(ctx context.Context, pacienteID int) ([]*models.CostosAtencion, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+costoCols+` FROM costos_atencion c
		JOIN atencion a ON a.id_atencion = c.id_atencion
		WHERE $1 = 0 OR a.id_paciente = $1
		ORDER BY c.id_costo`, pacienteID)
	return collect(rows, err, scanCosto)
}

func (s *Store) CrearCosto(ctx context.Context, c *models.CostosAtencion) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO costos_atencion (id_atencion, costo_consulta, descripcion, total, activo)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id_costo, created_at, updated_at`,
		c.AtencionID, c.CostoConsulta, c.Descripcion, c.Total, c.Activo).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

func (s *Store) ActualizarCosto(ctx context.Context, c *models.CostosAtencion) error {
	return mapError(s.q.QueryRow(ctx, `
		UPDATE costos_atencion SET costo_consulta=$2, descripcion=$3, total=$4, activo=$5, updated_at=NOW()
		WHERE id_costo = $1
		RETURNING updated_at`,
		c.ID, c.CostoConsulta, c.Descripcion, c.Total, c.Activo).Scan(&c.UpdatedAt))
}

func (s *Store) BloquearCosto(ctx context.Context, id int) (*models.CostosAtencion, error) {
	return scanCosto(s.q.QueryRow(ctx, `SELECT `+costoCols+` FROM costos_atencion c WHERE c.id_costo = $1 FOR UPDATE`, id))
}

func (s *Store) MarcarCostoPagado(ctx context.Context, id int, total decimal.Decimal) error {
	return afectada(s.q.Exec(ctx, `
		UPDATE costos_atencion SET pagado = TRUE, total = $2, updated_at = NOW()
		WHERE id_costo = $1`, id, total))
}

func scanServicio(row pgx.Row) (*models.ServicioAdicional, error) {
	var srv models.ServicioAdicional
	err := row.Scan(&srv.ID, &srv.CostoAtencionID, &srv.NombreServicio, &srv.CostoServicio, &srv.Descripcion, &srv.Activo)
	if err != nil {
		return nil, mapError(err)
	}
	return &srv, nil
}

const servicioCols = `id_servicio, id_costo, nombre_servicio, costo_servicio, descripcion, activo`

func (s *Store) ServicioPorID(ctx context.Context, id int) (*models.ServicioAdicional, error) {
	return scanServicio(s.q.QueryRow(ctx, `SELECT `+servicioCols+` FROM servicio_adicional WHERE id_servicio = $1`, id))
}

func (s *Store) ServiciosPorCosto(ctx context.Context, costoID int) ([]*models.ServicioAdicional, error) {
	rows, err := s.q.Query(ctx, `SELECT `+servicioCols+` FROM servicio_adicional WHERE id_costo = $1 ORDER BY id_servicio`, costoID)
	return collect(rows, err, scanServicio)
}

func (s *Store) CrearServicio(ctx context.Context, srv *models.ServicioAdicional) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO servicio_adicional (id_costo, nombre_servicio, costo_servicio, descripcion, activo)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id_servicio`,
		srv.CostoAtencionID, srv.NombreServicio, srv.CostoServicio, srv.Descripcion, srv.Activo).Scan(&srv.ID)
	return mapError(err)
}

func (s *Store) EliminarServicio(ctx context.Context, id int) error {
	return afectada(s.q.Exec(ctx, `DELETE FROM servicio_adicional WHERE id_servicio = $1`, id))
}
