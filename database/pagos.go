package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/lizet96/clinica-backend/models"
)

const pagoCols = `id_pago, id_paciente, id_costo, monto, metodo_pago, pagado, referencia, fecha_pago,
	monto_consulta, monto_servicios, monto_examenes, monto_medicinas`

func scanPago(row pgx.Row) (*models.Pago, error) {
	var p models.Pago
	err := row.Scan(&p.ID, &p.PacienteID, &p.CostoAtencionID, &p.Monto, &p.MetodoPago, &p.Pagado, &p.Referencia, &p.FechaPago,
		&p.Desglose.CostoConsulta, &p.Desglose.ServiciosAdicionales, &p.Desglose.Examenes, &p.Desglose.Medicinas)
	if err != nil {
		return nil, mapError(err)
	}
	p.Desglose.TotalGeneral = p.Monto
	return &p, nil
}

func (s *Store) PagoPorID(ctx context.Context, id int) (*models.Pago, error) {
	return scanPago(s.q.QueryRow(ctx, `SELECT `+pagoCols+` FROM pago WHERE id_pago = $1`, id))
}

func (s *Store) ListarPagos(ctx context.Context, pacienteID int) ([]*models.Pago, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+pagoCols+` FROM pago
		WHERE $1 = 0 OR id_paciente = $1
		ORDER BY fecha_pago DESC, id_pago DESC`, pacienteID)
	return collect(rows, err, scanPago)
}

func (s *Store) ExistePagoPagado(ctx context.Context, pacienteID, costoID int) (bool, error) {
	var existe bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pago WHERE id_paciente = $1 AND id_costo = $2 AND pagado)`,
		pacienteID, costoID).Scan(&existe)
	return existe, mapError(err)
}

func (s *Store) PacienteTienePagos(ctx context.Context, pacienteID int) (bool, error) {
	var existe bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pago WHERE id_paciente = $1 AND pagado)`, pacienteID).Scan(&existe)
	return existe, mapError(err)
}

func (s *Store) CrearPago(ctx context.Context, p *models.Pago) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO pago (id_paciente, id_costo, monto, metodo_pago, pagado, referencia, fecha_pago,
			monto_consulta, monto_servicios, monto_examenes, monto_medicinas)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id_pago`,
		p.PacienteID, p.CostoAtencionID, p.Monto, p.MetodoPago, p.Pagado, p.Referencia, p.FechaPago,
		p.Desglose.CostoConsulta, p.Desglose.ServiciosAdicionales, p.Desglose.Examenes, p.Desglose.Medicinas).Scan(&p.ID)
	return mapError(err)
}

func (s *Store) CrearTransaccion(ctx context.Context, t *models.TransaccionPasarela) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO transaccion_pasarela (token, referencia, id_paciente, id_costo, monto, estado)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id_transaccion, created_at, updated_at`,
		t.Token, t.Referencia, t.PacienteID, t.CostoAtencionID, t.Monto, t.Estado).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err)
}

func (s *Store) TransaccionPorToken(ctx context.Context, token string) (*models.TransaccionPasarela, error) {
	var t models.TransaccionPasarela
	err := s.q.QueryRow(ctx, `
		SELECT id_transaccion, token, referencia, id_paciente, id_costo, monto, estado, created_at, updated_at
		FROM transaccion_pasarela WHERE token = $1`, token).
		Scan(&t.ID, &t.Token, &t.Referencia, &t.PacienteID, &t.CostoAtencionID, &t.Monto, &t.Estado, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// CambiarEstadoTransaccion es un compare-and-set sobre el estado: solo una llamada gana
func (s *Store) CambiarEstadoTransaccion(ctx context.Context, token, desde, hacia string) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE transaccion_pasarela SET estado = $3, updated_at = NOW()
		WHERE token = $1 AND estado = $2`, token, desde, hacia)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) TransaccionEnProceso(ctx context.Context, costoID int) (bool, error) {
	var existe bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM transaccion_pasarela WHERE id_costo = $1 AND estado = 'procesando')`,
		costoID).Scan(&existe)
	return existe, mapError(err)
}

func (s *Store) CancelarTransaccionesPendientes(ctx context.Context, costoID int) (int, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE transaccion_pasarela SET estado = 'cancelada', updated_at = NOW()
		WHERE id_costo = $1 AND estado = 'pendiente'`, costoID)
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}
