package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lizet96/clinica-backend/models"
)

const citaCols = `id_cita, id_paciente, fecha, to_char(hora_cita, 'HH24:MI'), estado`

func scanCita(row pgx.Row) (*models.CitaMedica, error) {
	var c models.CitaMedica
	if err := row.Scan(&c.ID, &c.PacienteID, &c.Fecha, &c.HoraCita, &c.Estado); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (s *Store) CitaPorID(ctx context.Context, id int) (*models.CitaMedica, error) {
	return scanCita(s.q.QueryRow(ctx, `SELECT `+citaCols+` FROM cita_medica WHERE id_cita = $1`, id))
}

func (s *Store) ListarCitas(ctx context.Context, fecha *time.Time) ([]*models.CitaMedica, error) {
	if fecha == nil {
		rows, err := s.q.Query(ctx, `SELECT `+citaCols+` FROM cita_medica ORDER BY fecha, hora_cita`)
		return collect(rows, err, scanCita)
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+citaCols+` FROM cita_medica
		WHERE fecha = $1::date
		ORDER BY fecha, hora_cita`, fecha.Format("2006-01-02"))
	return collect(rows, err, scanCita)
}

func (s *Store) CitasPorFecha(ctx context.Context, fecha time.Time, estado string) ([]*models.CitaMedica, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+citaCols+` FROM cita_medica
		WHERE fecha = $1::date AND estado = $2
		ORDER BY hora_cita`, fecha.Format("2006-01-02"), estado)
	return collect(rows, err, scanCita)
}

func (s *Store) CrearCita(ctx context.Context, c *models.CitaMedica) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO cita_medica (id_paciente, fecha, hora_cita, estado)
		VALUES ($1, $2::date, $3::time, $4)
		RETURNING id_cita`,
		c.PacienteID, c.Fecha.Format("2006-01-02"), c.HoraCita, c.Estado).Scan(&c.ID)
	return mapError(err)
}

func (s *Store) ActualizarCita(ctx context.Context, c *models.CitaMedica) error {
	return afectada(s.q.Exec(ctx, `
		UPDATE cita_medica SET fecha = $2::date, hora_cita = $3::time, estado = $4
		WHERE id_cita = $1`,
		c.ID, c.Fecha.Format("2006-01-02"), c.HoraCita, c.Estado))
}

func (s *Store) EliminarCita(ctx context.Context, id int) error {
	return afectada(s.q.Exec(ctx, `DELETE FROM cita_medica WHERE id_cita = $1`, id))
}
