package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lizet96/clinica-backend/models"
)

// SolicitudPago es el registro de pago enviado por recepción
type SolicitudPago struct {
	PacienteID int    `json:"id_paciente"`
	AtencionID int    `json:"id_atencion,omitempty"`
	Metodo     string `json:"metodo_pago"`
}

// ResultadoPago trae el pago ya confirmado (efectivo) o la URL de aprobación (pasarela)
type ResultadoPago struct {
	Pago        *models.Pago `json:"pago,omitempty"`
	RedirectURL string       `json:"redirect_url,omitempty"`
	Token       string       `json:"token,omitempty"`
}

// RegistrarPago cobra la atención indicada o, si no se indica, la más reciente del paciente
func (s *Service) RegistrarPago(ctx context.Context, req SolicitudPago) (*ResultadoPago, error) {
	if req.PacienteID <= 0 {
		return nil, fmt.Errorf("%w: el ID del paciente es obligatorio", ErrValidacion)
	}
	if req.Metodo != models.MetodoEfectivo && req.Metodo != models.MetodoPayPal {
		return nil, fmt.Errorf("%w: método de pago no soportado %q", ErrValidacion, req.Metodo)
	}
	if req.Metodo == models.MetodoPayPal && s.pasarela == nil {
		return nil, fmt.Errorf("%w: la pasarela no está configurada", ErrPasarela)
	}
	if _, err := s.store.PacientePorID(ctx, req.PacienteID); err != nil {
		return nil, err
	}

	atencion, err := s.resolverAtencion(ctx, req)
	if err != nil {
		return nil, err
	}
	costo, err := s.obtenerOCrearCosto(ctx, atencion.ID)
	if err != nil {
		return nil, err
	}
	if costo.Pagado {
		return nil, ErrPagoDuplicado
	}
	existe, err := s.store.ExistePagoPagado(ctx, req.PacienteID, costo.ID)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, ErrPagoDuplicado
	}

	d, err := calcular(ctx, s.store, atencion.ID, costo, s.cfg.TarifaConsulta)
	if err != nil {
		return nil, err
	}
	if !d.TotalGeneral.IsPositive() {
		return nil, ErrSinCostos
	}

	if req.Metodo == models.MetodoEfectivo {
		pago, err := s.pagarEfectivo(ctx, req.PacienteID, costo.ID)
		if err != nil {
			return nil, err
		}
		return &ResultadoPago{Pago: pago}, nil
	}
	return s.iniciarPasarela(ctx, req.PacienteID, costo, d)
}

func (s *Service) resolverAtencion(ctx context.Context, req SolicitudPago) (*models.Atencion, error) {
	if req.AtencionID > 0 {
		a, err := s.store.AtencionPorID(ctx, req.AtencionID)
		if errors.Is(err, models.ErrNoEncontrado) || (err == nil && a.PacienteID != req.PacienteID) {
			return nil, ErrSinAtencion
		}
		return a, err
	}
	atenciones, err := s.store.ListarAtenciones(ctx, req.PacienteID)
	if err != nil {
		return nil, err
	}
	if len(atenciones) == 0 {
		return nil, ErrSinAtencion
	}
	return atenciones[0], nil
}

// obtenerOCrearCosto crea el costo con la tarifa por defecto si la atención aún no tiene uno
func (s *Service) obtenerOCrearCosto(ctx context.Context, atencionID int) (*models.CostosAtencion, error) {
	costo, err := s.costoOpcional(ctx, atencionID)
	if err != nil || costo != nil {
		return costo, err
	}
	nuevo := &models.CostosAtencion{
		AtencionID:    atencionID,
		CostoConsulta: s.cfg.TarifaConsulta,
		Activo:        true,
	}
	err = s.guardarCosto(ctx, s.store, nuevo)
	if errors.Is(err, ErrCostoDuplicado) {
		// otra solicitud lo creó primero
		return s.store.CostoPorAtencion(ctx, atencionID)
	}
	if err != nil {
		return nil, err
	}
	return nuevo, nil
}

func (s *Service) pagarEfectivo(ctx context.Context, pacienteID, costoID int) (*models.Pago, error) {
	pago := &models.Pago{
		PacienteID:      pacienteID,
		CostoAtencionID: costoID,
		MetodoPago:      models.MetodoEfectivo,
		Pagado:          true,
		FechaPago:       time.Now(),
	}
	err := s.store.EnTransaccion(ctx, func(tx Store) error {
		costo, err := tx.BloquearCosto(ctx, costoID)
		if err != nil {
			return err
		}
		if costo.Pagado {
			return ErrPagoDuplicado
		}
		enProceso, err := tx.TransaccionEnProceso(ctx, costoID)
		if err != nil {
			return err
		}
		if enProceso {
			return ErrPagoEnProceso
		}
		// con la fila bloqueada el desglose ya no cambia
		d, err := calcular(ctx, tx, costo.AtencionID, costo, costo.CostoConsulta)
		if err != nil {
			return err
		}
		if !d.TotalGeneral.IsPositive() {
			return ErrSinCostos
		}
		pago.Monto = d.TotalGeneral
		pago.Desglose = d
		if _, err := tx.CancelarTransaccionesPendientes(ctx, costoID); err != nil {
			return err
		}
		if err := tx.CrearPago(ctx, pago); err != nil {
			if errors.Is(err, models.ErrDuplicado) {
				return ErrPagoDuplicado
			}
			return err
		}
		return tx.MarcarCostoPagado(ctx, costoID, d.TotalGeneral)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("evento", "pago_registrado").
		Int("id_pago", pago.ID).
		Int("id_paciente", pacienteID).
		Int("id_costo", costoID).
		Str("metodo", pago.MetodoPago).
		Str("monto", pago.Monto.StringFixed(2)).
		Msg("pago en efectivo registrado")
	return pago, nil
}

func (s *Service) iniciarPasarela(ctx context.Context, pacienteID int, costo *models.CostosAtencion, d Desglose) (*ResultadoPago, error) {
	enProceso, err := s.store.TransaccionEnProceso(ctx, costo.ID)
	if err != nil {
		return nil, err
	}
	if enProceso {
		return nil, ErrPagoEnProceso
	}

	referencia := uuid.NewString()
	orden, err := s.pasarela.CrearOrden(ctx, OrdenPasarela{
		Referencia:  referencia,
		Monto:       d.TotalGeneral,
		Moneda:      s.cfg.Moneda,
		Descripcion: fmt.Sprintf("Pago de atención #%d", costo.AtencionID),
		ReturnURL:   s.cfg.ReturnURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("evento", "pasarela_fallida").
			Int("id_paciente", pacienteID).
			Int("id_costo", costo.ID).
			Msg("no se pudo crear la orden en la pasarela")
		return nil, ErrPasarela
	}

	tr := &models.TransaccionPasarela{
		Token:           orden.Token,
		Referencia:      referencia,
		PacienteID:      pacienteID,
		CostoAtencionID: costo.ID,
		Monto:           d.TotalGeneral,
		Estado:          models.TransaccionPendiente,
	}
	// solo la orden más reciente de un costo puede ejecutarse
	var anteriores int
	err = s.store.EnTransaccion(ctx, func(tx Store) error {
		actual, err := tx.BloquearCosto(ctx, costo.ID)
		if err != nil {
			return err
		}
		if actual.Pagado {
			return ErrPagoDuplicado
		}
		enProceso, err := tx.TransaccionEnProceso(ctx, costo.ID)
		if err != nil {
			return err
		}
		if enProceso {
			return ErrPagoEnProceso
		}
		if anteriores, err = tx.CancelarTransaccionesPendientes(ctx, costo.ID); err != nil {
			return err
		}
		return tx.CrearTransaccion(ctx, tr)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("evento", "pasarela_iniciada").
		Str("token", orden.Token).
		Int("id_paciente", pacienteID).
		Int("ordenes_canceladas", anteriores).
		Str("monto", tr.Monto.StringFixed(2)).
		Msg("orden creada, esperando aprobación del pagador")
	return &ResultadoPago{RedirectURL: orden.ApprovalURL, Token: orden.Token}, nil
}

// EjecutarPasarela procesa el callback de la pasarela. La transacción se reclama
// (pendiente -> procesando) antes de capturar, así un costo se captura una sola vez.
func (s *Service) EjecutarPasarela(ctx context.Context, token, payerID string) (*models.Pago, error) {
	if token == "" || payerID == "" {
		return nil, ErrCallbackInvalido
	}
	if s.pasarela == nil {
		return nil, ErrPasarela
	}
	tr, err := s.store.TransaccionPorToken(ctx, token)
	if errors.Is(err, models.ErrNoEncontrado) {
		return nil, ErrCallbackInvalido
	}
	if err != nil {
		return nil, err
	}
	if err := errorPorEstado(tr.Estado); err != nil {
		return nil, err
	}

	d, err := s.reclamar(ctx, tr)
	if err != nil {
		if errors.Is(err, ErrPagoDuplicado) || errors.Is(err, ErrPagoEnProceso) {
			s.log.Warn().Err(err).Str("token", token).Msg("callback repetido de la pasarela")
		}
		return nil, err
	}

	captura, err := s.pasarela.CapturarOrden(ctx, token, payerID)
	if err != nil {
		s.log.Error().Err(err).
			Str("evento", "pasarela_fallida").
			Str("token", token).
			Int("id_costo", tr.CostoAtencionID).
			Msg("la pasarela rechazó la captura")
		if _, errEstado := s.store.CambiarEstadoTransaccion(ctx, token, models.TransaccionProcesando, models.TransaccionFallida); errEstado != nil {
			s.log.Error().Err(errEstado).Str("token", token).Msg("no se pudo marcar la transacción como fallida")
		}
		return nil, ErrPasarela
	}

	pago := &models.Pago{
		PacienteID:      tr.PacienteID,
		CostoAtencionID: tr.CostoAtencionID,
		Monto:           tr.Monto,
		MetodoPago:      models.MetodoPayPal,
		Pagado:          true,
		Referencia:      &captura,
		FechaPago:       time.Now(),
		Desglose:        d,
	}
	err = s.store.EnTransaccion(ctx, func(tx Store) error {
		if _, err := tx.BloquearCosto(ctx, tr.CostoAtencionID); err != nil {
			return err
		}
		ok, err := tx.CambiarEstadoTransaccion(ctx, token, models.TransaccionProcesando, models.TransaccionCompletada)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("la transacción %s ya no está en procesando", token)
		}
		if err := tx.CrearPago(ctx, pago); err != nil {
			return err
		}
		return tx.MarcarCostoPagado(ctx, tr.CostoAtencionID, tr.Monto)
	})
	if err != nil {
		// el cobro ya se hizo: la transacción queda en procesando para conciliarla a mano
		s.log.Error().Err(err).
			Str("evento", "captura_sin_registrar").
			Str("token", token).
			Str("referencia", captura).
			Int("id_costo", tr.CostoAtencionID).
			Msg("la pasarela cobró pero no se pudo registrar el pago")
		return nil, err
	}

	s.log.Info().
		Str("evento", "pago_registrado").
		Int("id_pago", pago.ID).
		Int("id_paciente", pago.PacienteID).
		Int("id_costo", pago.CostoAtencionID).
		Str("metodo", pago.MetodoPago).
		Str("referencia", captura).
		Str("monto", pago.Monto.StringFixed(2)).
		Msg("pago con pasarela confirmado")
	return pago, nil
}

// reclamar pasa la transacción a procesando con el costo bloqueado. Si el costo ya
// se pagó o su total cambió desde la orden, la transacción se cancela sin capturar.
func (s *Service) reclamar(ctx context.Context, tr *models.TransaccionPasarela) (Desglose, error) {
	var d Desglose
	var rechazo error
	err := s.store.EnTransaccion(ctx, func(tx Store) error {
		costo, err := tx.BloquearCosto(ctx, tr.CostoAtencionID)
		if err != nil {
			return err
		}
		enProceso, err := tx.TransaccionEnProceso(ctx, costo.ID)
		if err != nil {
			return err
		}
		if enProceso {
			return ErrPagoEnProceso
		}
		if d, err = calcular(ctx, tx, costo.AtencionID, costo, costo.CostoConsulta); err != nil {
			return err
		}

		hacia := models.TransaccionProcesando
		switch {
		case costo.Pagado:
			hacia, rechazo = models.TransaccionCancelada, ErrPagoDuplicado
		case !d.TotalGeneral.Equal(tr.Monto):
			hacia, rechazo = models.TransaccionCancelada, ErrMontoCambiado
		}
		ok, err := tx.CambiarEstadoTransaccion(ctx, tr.Token, models.TransaccionPendiente, hacia)
		if err != nil {
			return err
		}
		if !ok {
			// otro callback la movió primero
			actual, err := tx.TransaccionPorToken(ctx, tr.Token)
			if err != nil {
				return err
			}
			return errorPorEstado(actual.Estado)
		}
		return nil
	})
	if err == nil {
		err = rechazo
	}
	return d, err
}

func errorPorEstado(estado string) error {
	switch estado {
	case models.TransaccionPendiente:
		return nil
	case models.TransaccionCompletada:
		return ErrPagoDuplicado
	case models.TransaccionProcesando:
		return ErrPagoEnProceso
	default:
		return ErrCallbackInvalido
	}
}

// CancelarPasarela registra que el pagador abandonó la aprobación
func (s *Service) CancelarPasarela(ctx context.Context, token string) error {
	if token == "" {
		return ErrCallbackInvalido
	}
	ok, err := s.store.CambiarEstadoTransaccion(ctx, token, models.TransaccionPendiente, models.TransaccionCancelada)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCallbackInvalido
	}
	s.log.Info().Str("evento", "pasarela_cancelada").Str("token", token).Msg("el pagador canceló el pago")
	return nil
}

// Pagos lista los pagos de un paciente (0 = todos)
func (s *Service) Pagos(ctx context.Context, pacienteID int) ([]*models.Pago, error) {
	return s.store.ListarPagos(ctx, pacienteID)
}

func (s *Service) Pago(ctx context.Context, id int) (*models.Pago, error) {
	return s.store.PagoPorID(ctx, id)
}

// Recibo reúne lo necesario para el comprobante de pago
type Recibo struct {
	Pago     *models.Pago
	Paciente *models.Paciente
	Desglose Desglose
}

func (s *Service) Recibo(ctx context.Context, pagoID int) (*Recibo, error) {
	pago, err := s.store.PagoPorID(ctx, pagoID)
	if err != nil {
		return nil, err
	}
	paciente, err := s.store.PacientePorID(ctx, pago.PacienteID)
	if err != nil {
		return nil, err
	}
	// el desglose es el que se cobró, aunque la atención cambie después
	d := pago.Desglose
	if d.TotalGeneral.IsZero() {
		d.TotalGeneral = pago.Monto
	}
	return &Recibo{Pago: pago, Paciente: paciente, Desglose: d}, nil
}
