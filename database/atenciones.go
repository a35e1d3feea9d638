package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/lizet96/clinica-backend/models"
)

const atencionCols = `a.id_atencion, a.id_paciente, a.fecha_atencion, a.presion_arterial, a.pulso,
	a.temperatura, a.frecuencia_respiratoria, a.saturacion_oxigeno, a.peso, a.altura,
	a.motivo_consulta, a.sintomas, a.tratamiento, a.examen_fisico, a.comentario_adicional,
	ARRAY(SELECT d.id_diagnostico FROM atencion_diagnostico d WHERE d.id_atencion = a.id_atencion ORDER BY d.id_diagnostico)`

func scanAtencion(row pgx.Row) (*models.Atencion, error) {
	var a models.Atencion
	err := row.Scan(&a.ID, &a.PacienteID, &a.FechaAtencion, &a.PresionArterial, &a.Pulso,
		&a.Temperatura, &a.FrecuenciaRespiratoria, &a.SaturacionOxigeno, &a.Peso, &a.Altura,
		&a.MotivoConsulta, &a.Sintomas, &a.Tratamiento, &a.ExamenFisico, &a.ComentarioAdicional,
		&a.Diagnosticos)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (s *Store) AtencionPorID(ctx context.Context, id int) (*models.Atencion, error) {
	return scanAtencion(s.q.QueryRow(ctx, `SELECT `+atencionCols+` FROM atencion a WHERE a.id_atencion = $1`, id))
}

func (s *Store) ListarAtenciones(ctx context.Context, pacienteID int) ([]*models.Atencion, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+atencionCols+` FROM atencion a
		WHERE $1 = 0 OR a.id_paciente = $1
		ORDER BY a.fecha_atencion DESC, a.id_atencion DESC`, pacienteID)
	return collect(rows, err, scanAtencion)
}

func (s *Store) CrearAtencion(ctx context.Context, a *models.Atencion) error {
	return s.enTransaccion(ctx, func(tx *Store) error {
		err := tx.q.QueryRow(ctx, `
			INSERT INTO atencion (id_paciente, fecha_atencion, presion_arterial, pulso, temperatura,
				frecuencia_respiratoria, saturacion_oxigeno, peso, altura, motivo_consulta,
				sintomas, tratamiento, examen_fisico, comentario_adicional)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			RETURNING id_atencion`,
			a.PacienteID, a.FechaAtencion, a.PresionArterial, a.Pulso, a.Temperatura,
			a.FrecuenciaRespiratoria, a.SaturacionOxigeno, a.Peso, a.Altura, a.MotivoConsulta,
			a.Sintomas, a.Tratamiento, a.ExamenFisico, a.ComentarioAdicional).Scan(&a.ID)
		if err != nil {
			return mapError(err)
		}
		return tx.guardarDiagnosticos(ctx, a)
	})
}

func (s *Store) ActualizarAtencion(ctx context.Context, a *models.Atencion) error {
	return s.enTransaccion(ctx, func(tx *Store) error {
		err := afectada(tx.q.Exec(ctx, `
			UPDATE atencion SET fecha_atencion=$2, presion_arterial=$3, pulso=$4, temperatura=$5,
				frecuencia_respiratoria=$6, saturacion_oxigeno=$7, peso=$8, altura=$9,
				motivo_consulta=$10, sintomas=$11, tratamiento=$12, examen_fisico=$13,
				comentario_adicional=$14
			WHERE id_atencion = $1`,
			a.ID, a.FechaAtencion, a.PresionArterial, a.Pulso, a.Temperatura,
			a.FrecuenciaRespiratoria, a.SaturacionOxigeno, a.Peso, a.Altura, a.MotivoConsulta,
			a.Sintomas, a.Tratamiento, a.ExamenFisico, a.ComentarioAdicional))
		if err != nil {
			return err
		}
		if _, err := tx.q.Exec(ctx, `DELETE FROM atencion_diagnostico WHERE id_atencion = $1`, a.ID); err != nil {
			return mapError(err)
		}
		return tx.guardarDiagnosticos(ctx, a)
	})
}

func (s *Store) guardarDiagnosticos(ctx context.Context, a *models.Atencion) error {
	for _, d := range a.Diagnosticos {
		if _, err := s.q.Exec(ctx, `
			INSERT INTO atencion_diagnostico (id_atencion, id_diagnostico) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, a.ID, d); err != nil {
			return mapError(err)
		}
	}
	return nil
}

const detalleCols = `d.id_detalle, d.id_atencion, d.id_medicamento, d.id_examen_solicitado,
	d.cantidad, d.prescripcion, d.duracion_tratamiento, m.precio`

func scanDetalle(row pgx.Row) (*models.DetalleAtencion, error) {
	var d models.DetalleAtencion
	err := row.Scan(&d.ID, &d.AtencionID, &d.MedicamentoID, &d.ExamenSolicitadoID,
		&d.Cantidad, &d.Prescripcion, &d.DuracionTratamiento, &d.PrecioUnitario)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (s *Store) DetallePorID(ctx context.Context, id int) (*models.DetalleAtencion, error) {
	return scanDetalle(s.q.QueryRow(ctx, `
		SELECT `+detalleCols+` FROM detalle_atencion d
		JOIN medicamento m ON m.id_medicamento = d.id_medicamento
		WHERE d.id_detalle = $1`, id))
}

func (s *Store) DetallesPorAtencion(ctx context.Context, atencionID int) ([]*models.DetalleAtencion, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+detalleCols+` FROM detalle_atencion d
		JOIN medicamento m ON m.id_medicamento = d.id_medicamento
		WHERE d.id_atencion = $1
		ORDER BY d.id_detalle`, atencionID)
	return collect(rows, err, scanDetalle)
}

func (s *Store) CrearDetalle(ctx context.Context, d *models.DetalleAtencion) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO detalle_atencion (id_atencion, id_medicamento, id_examen_solicitado, cantidad, prescripcion, duracion_tratamiento)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id_detalle`,
		d.AtencionID, d.MedicamentoID, d.ExamenSolicitadoID, d.Cantidad, d.Prescripcion, d.DuracionTratamiento).Scan(&d.ID)
	return mapError(err)
}

func (s *Store) EliminarDetalle(ctx context.Context, id int) error {
	return afectada(s.q.Exec(ctx, `DELETE FROM detalle_atencion WHERE id_detalle = $1`, id))
}

const examenCols = `e.id_examen, e.nombre_examen, e.id_paciente, e.id_atencion, e.fecha_solicitud,
	e.costo, e.resultado, e.comentario, e.estado`

func scanExamen(row pgx.Row) (*models.ExamenSolicitado, error) {
	var e models.ExamenSolicitado
	err := row.Scan(&e.ID, &e.NombreExamen, &e.PacienteID, &e.AtencionID, &e.FechaSolicitud,
		&e.Costo, &e.Resultado, &e.Comentario, &e.Estado)
	if err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func (s *Store) ExamenPorID(ctx context.Context, id int) (*models.ExamenSolicitado, error) {
	return scanExamen(s.q.QueryRow(ctx, `SELECT `+examenCols+` FROM examen_solicitado e WHERE e.id_examen = $1`, id))
}

func (s *Store) ExamenesPorAtencion(ctx context.Context, atencionID int) ([]*models.ExamenSolicitado, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+examenCols+` FROM examen_solicitado e
		WHERE e.id_atencion = $1
		   OR e.id_examen IN (SELECT d.id_examen_solicitado FROM detalle_atencion d
		                      WHERE d.id_atencion = $1 AND d.id_examen_solicitado IS NOT NULL)
		ORDER BY e.id_examen`, atencionID)
	return collect(rows, err, scanExamen)
}

func (s *Store) ListarExamenes(ctx context.Context, pacienteID int, estado string) ([]*models.ExamenSolicitado, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+examenCols+` FROM examen_solicitado e
		WHERE ($1 = 0 OR e.id_paciente = $1) AND ($2 = '' OR e.estado = $2)
		ORDER BY e.id_examen`, pacienteID, estado)
	return collect(rows, err, scanExamen)
}

func (s *Store) CrearExamen(ctx context.Context, e *models.ExamenSolicitado) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO examen_solicitado (nombre_examen, id_paciente, id_atencion, fecha_solicitud, costo, resultado, comentario, estado)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id_examen`,
		e.NombreExamen, e.PacienteID, e.AtencionID, e.FechaSolicitud, e.Costo, e.Resultado, e.Comentario, e.Estado).Scan(&e.ID)
	return mapError(err)
}

func (s *Store) ActualizarExamen(ctx context.Context, e *models.ExamenSolicitado) error {
	return afectada(s.q.Exec(ctx, `
		UPDATE examen_solicitado SET id_atencion=$2, resultado=$3, comentario=$4, estado=$5
		WHERE id_examen = $1`,
		e.ID, e.AtencionID, e.Resultado, e.Comentario, e.Estado))
}

func (s *Store) EliminarExamen(ctx context.Context, id int) error {
	return afectada(s.q.Exec(ctx, `DELETE FROM examen_solicitado WHERE id_examen = $1`, id))
}
