package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/lizet96/clinica-backend/models"
	"github.com/shopspring/decimal"
)

// Desglose es el total de una o varias atenciones separado por fuente de costo
type Desglose = models.Desglose

// CostoAtencion calcula el total de una atención: consulta + servicios + exámenes + medicinas
func (s *Service) CostoAtencion(ctx context.Context, atencionID int) (Desglose, error) {
	if _, err := s.store.AtencionPorID(ctx, atencionID); err != nil {
		if errors.Is(err, models.ErrNoEncontrado) {
			return Desglose{}, ErrSinAtencion
		}
		return Desglose{}, err
	}
	costo, err := s.costoOpcional(ctx, atencionID)
	if err != nil {
		return Desglose{}, err
	}
	return calcular(ctx, s.store, atencionID, costo, s.cfg.TarifaConsulta)
}

// CostosPaciente suma lo adeudado por el paciente en todas sus atenciones sin pagar
func (s *Service) CostosPaciente(ctx context.Context, pacienteID int) (Desglose, error) {
	atenciones, err := s.atencionesPaciente(ctx, pacienteID)
	if err != nil {
		return Desglose{}, err
	}

	var total Desglose
	for _, a := range atenciones {
		costo, err := s.costoOpcional(ctx, a.ID)
		if err != nil {
			return Desglose{}, err
		}
		if costo != nil && (costo.Pagado || !costo.Activo) {
			continue
		}
		d, err := calcular(ctx, s.store, a.ID, costo, s.cfg.TarifaConsulta)
		if err != nil {
			return Desglose{}, err
		}
		total = total.Sumar(d)
	}
	return total, nil
}

// VerificarPago indica si el paciente tiene al menos un pago completado
func (s *Service) VerificarPago(ctx context.Context, pacienteID int) (bool, error) {
	if _, err := s.atencionesPaciente(ctx, pacienteID); err != nil {
		return false, err
	}
	return s.store.PacienteTienePagos(ctx, pacienteID)
}

// ExamenesPendientes lista los exámenes pendientes ligados a atenciones del paciente
func (s *Service) ExamenesPendientes(ctx context.Context, pacienteID int) ([]*models.ExamenSolicitado, error) {
	if pacienteID <= 0 {
		return nil, fmt.Errorf("%w: el ID del paciente es obligatorio", ErrValidacion)
	}
	examenes, err := s.store.ListarExamenes(ctx, pacienteID, models.ExamenPendiente)
	if err != nil {
		return nil, err
	}
	var ligados []*models.ExamenSolicitado
	for _, e := range examenes {
		if e.AtencionID != nil {
			ligados = append(ligados, e)
		}
	}
	return ligados, nil
}

func (s *Service) atencionesPaciente(ctx context.Context, pacienteID int) ([]*models.Atencion, error) {
	if pacienteID <= 0 {
		return nil, fmt.Errorf("%w: el ID del paciente es obligatorio", ErrValidacion)
	}
	atenciones, err := s.store.ListarAtenciones(ctx, pacienteID)
	if err != nil {
		return nil, err
	}
	if len(atenciones) == 0 {
		return nil, ErrSinAtencion
	}
	return atenciones, nil
}

func (s *Service) costoOpcional(ctx context.Context, atencionID int) (*models.CostosAtencion, error) {
	costo, err := s.store.CostoPorAtencion(ctx, atencionID)
	if errors.Is(err, models.ErrNoEncontrado) {
		return nil, nil
	}
	return costo, err
}

// calcular no guarda nada: el total se recalcula en cada solicitud
func calcular(ctx context.Context, st Store, atencionID int, costo *models.CostosAtencion, tarifa decimal.Decimal) (Desglose, error) {
	var d Desglose

	d.CostoConsulta = tarifa
	if costo != nil {
		d.CostoConsulta = costo.CostoConsulta
		servicios, err := st.ServiciosPorCosto(ctx, costo.ID)
		if err != nil {
			return Desglose{}, err
		}
		for _, srv := range servicios {
			if srv.Activo {
				d.ServiciosAdicionales = d.ServiciosAdicionales.Add(srv.CostoServicio)
			}
		}
	}

	examenes, err := st.ExamenesPorAtencion(ctx, atencionID)
	if err != nil {
		return Desglose{}, err
	}
	for _, e := range examenes {
		if e.Estado != models.ExamenCancelado {
			d.Examenes = d.Examenes.Add(e.Costo)
		}
	}

	detalles, err := st.DetallesPorAtencion(ctx, atencionID)
	if err != nil {
		return Desglose{}, err
	}
	for _, det := range detalles {
		d.Medicinas = d.Medicinas.Add(det.Subtotal())
	}

	d.TotalGeneral = d.CostoConsulta.Add(d.ServiciosAdicionales).Add(d.Examenes).Add(d.Medicinas)
	return d, nil
}

// SolicitudCosto son los datos editables de un costo de atención
type SolicitudCosto struct {
	AtencionID    int              `json:"id_atencion"`
	CostoConsulta *decimal.Decimal `json:"costo_consulta"`
	Descripcion   *string          `json:"descripcion"`
	Activo        *bool            `json:"activo"`
}

// CrearCosto registra el costo de una atención; solo puede existir uno por atención
func (s *Service) CrearCosto(ctx context.Context, req SolicitudCosto) (*models.CostosAtencion, error) {
	if req.AtencionID <= 0 {
		return nil, fmt.Errorf("%w: la atención es obligatoria", ErrValidacion)
	}
	if _, err := s.store.AtencionPorID(ctx, req.AtencionID); err != nil {
		if errors.Is(err, models.ErrNoEncontrado) {
			return nil, ErrSinAtencion
		}
		return nil, err
	}
	costo := &models.CostosAtencion{
		AtencionID:    req.AtencionID,
		CostoConsulta: s.cfg.TarifaConsulta,
		Descripcion:   req.Descripcion,
		Activo:        true,
	}
	if req.CostoConsulta != nil {
		if req.CostoConsulta.IsNegative() {
			return nil, fmt.Errorf("%w: el costo de la consulta no puede ser negativo", ErrValidacion)
		}
		costo.CostoConsulta = *req.CostoConsulta
	}
	if req.Activo != nil {
		costo.Activo = *req.Activo
	}
	if err := s.guardarCosto(ctx, s.store, costo); err != nil {
		return nil, err
	}
	return costo, nil
}

func (s *Service) guardarCosto(ctx context.Context, st Store, costo *models.CostosAtencion) error {
	d, err := calcular(ctx, st, costo.AtencionID, nil, costo.CostoConsulta)
	if err != nil {
		return err
	}
	costo.Total = d.TotalGeneral
	if err := st.CrearCosto(ctx, costo); err != nil {
		if errors.Is(err, models.ErrDuplicado) {
			return ErrCostoDuplicado
		}
		return err
	}
	return nil
}

// Costos lista los costos de atención de un paciente (0 = todos)
func (s *Service) Costos(ctx context.Context, pacienteID int) ([]*models.CostosAtencion, error) {
	costos, err := s.store.ListarCostos(ctx, pacienteID)
	if err != nil {
		return nil, err
	}
	for _, costo := range costos {
		if err := s.totalVigente(ctx, costo); err != nil {
			return nil, err
		}
	}
	return costos, nil
}

// Costo retorna un costo de atención con sus servicios adicionales
func (s *Service) Costo(ctx context.Context, id int) (*models.CostosAtencion, []*models.ServicioAdicional, error) {
	costo, err := s.store.CostoPorID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.totalVigente(ctx, costo); err != nil {
		return nil, nil, err
	}
	servicios, err := s.store.ServiciosPorCosto(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return costo, servicios, nil
}

// ActualizarCosto modifica tarifa, descripción o estado de un costo aún no pagado
func (s *Service) ActualizarCosto(ctx context.Context, id int, req SolicitudCosto) (*models.CostosAtencion, error) {
	costo, err := s.costoEditable(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CostoConsulta != nil {
		if req.CostoConsulta.IsNegative() {
			return nil, fmt.Errorf("%w: el costo de la consulta no puede ser negativo", ErrValidacion)
		}
		costo.CostoConsulta = *req.CostoConsulta
	}
	if req.Descripcion != nil {
		costo.Descripcion = req.Descripcion
	}
	if req.Activo != nil {
		costo.Activo = *req.Activo
	}
	return costo, s.recalcular(ctx, costo)
}

// DesactivarCosto marca un costo como inactivo; deja de sumar en lo adeudado por el paciente
func (s *Service) DesactivarCosto(ctx context.Context, id int) error {
	costo, err := s.costoEditable(ctx, id)
	if err != nil {
		return err
	}
	costo.Activo = false
	return s.store.ActualizarCosto(ctx, costo)
}

// SolicitudServicio son los datos de un servicio adicional
type SolicitudServicio struct {
	NombreServicio string          `json:"nombre_servicio"`
	CostoServicio  decimal.Decimal `json:"costo_servicio"`
	Descripcion    *string         `json:"descripcion"`
}

// AgregarServicio suma un servicio adicional a un costo no pagado
func (s *Service) AgregarServicio(ctx context.Context, costoID int, req SolicitudServicio) (*models.ServicioAdicional, error) {
	if req.NombreServicio == "" {
		return nil, fmt.Errorf("%w: el nombre del servicio es obligatorio", ErrValidacion)
	}
	if req.CostoServicio.IsNegative() {
		return nil, fmt.Errorf("%w: el costo del servicio no puede ser negativo", ErrValidacion)
	}
	costo, err := s.costoEditable(ctx, costoID)
	if err != nil {
		return nil, err
	}
	srv := &models.ServicioAdicional{
		CostoAtencionID: costoID,
		NombreServicio:  req.NombreServicio,
		CostoServicio:   req.CostoServicio,
		Descripcion:     req.Descripcion,
		Activo:          true,
	}
	if err := s.store.CrearServicio(ctx, srv); err != nil {
		return nil, err
	}
	return srv, s.recalcular(ctx, costo)
}

// EliminarServicio quita un servicio adicional de un costo no pagado
func (s *Service) EliminarServicio(ctx context.Context, costoID, servicioID int) error {
	costo, err := s.costoEditable(ctx, costoID)
	if err != nil {
		return err
	}
	srv, err := s.store.ServicioPorID(ctx, servicioID)
	if err != nil {
		return err
	}
	if srv.CostoAtencionID != costoID {
		return models.ErrNoEncontrado
	}
	if err := s.store.EliminarServicio(ctx, servicioID); err != nil {
		return err
	}
	return s.recalcular(ctx, costo)
}

func (s *Service) costoEditable(ctx context.Context, id int) (*models.CostosAtencion, error) {
	costo, err := s.store.CostoPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	if costo.Pagado {
		return nil, ErrCostoPagado
	}
	return costo, nil
}

// totalVigente reemplaza el total guardado de un costo sin pagar por el actual, ya que
// detalles y exámenes se editan desde atenciones sin pasar por aquí. El pagado queda fijo.
func (s *Service) totalVigente(ctx context.Context, costo *models.CostosAtencion) error {
	if costo.Pagado {
		return nil
	}
	d, err := calcular(ctx, s.store, costo.AtencionID, costo, costo.CostoConsulta)
	if err != nil {
		return err
	}
	costo.Total = d.TotalGeneral
	return nil
}

// recalcular refresca el total guardado del costo
func (s *Service) recalcular(ctx context.Context, costo *models.CostosAtencion) error {
	d, err := calcular(ctx, s.store, costo.AtencionID, costo, costo.CostoConsulta)
	if err != nil {
		return err
	}
	costo.Total = d.TotalGeneral
	return s.store.ActualizarCosto(ctx, costo)
}
