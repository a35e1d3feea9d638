package billing_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/memstore"
	"github.com/lizet96/clinica-backend/models"
	"github.com/rs/zerolog"
)

func TestRegistrarPago_Efectivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)

	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pago == nil || res.RedirectURL != "" {
		t.Fatalf("resultado = %+v, want pago sin redirect", res)
	}
	if !res.Pago.Pagado || !res.Pago.Monto.Equal(dec("50")) {
		t.Errorf("pago = %+v", res.Pago)
	}

	guardado, err := f.store.CostoPorID(ctx, costo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !guardado.Pagado || !guardado.Total.Equal(dec("50")) {
		t.Errorf("costo = %+v, want pagado con total 50", guardado)
	}

	pagado, err := f.svc.VerificarPago(ctx, f.paciente)
	if err != nil || !pagado {
		t.Errorf("VerificarPago = %v, %v", pagado, err)
	}
}

func TestRegistrarPago_SegundoIntentoRechazado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	req := billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo}

	if _, err := f.svc.RegistrarPago(ctx, req); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RegistrarPago(ctx, req); !errors.Is(err, billing.ErrPagoDuplicado) {
		t.Fatalf("expected ErrPagoDuplicado, got %v", err)
	}
	req.Metodo = models.MetodoPayPal
	if _, err := f.svc.RegistrarPago(ctx, req); !errors.Is(err, billing.ErrPagoDuplicado) {
		t.Fatalf("expected ErrPagoDuplicado for gateway, got %v", err)
	}
	pagos, _ := f.svc.Pagos(ctx, f.paciente)
	if len(pagos) != 1 {
		t.Errorf("pagos = %d, want 1", len(pagos))
	}
}

func TestRegistrarPago_CreaCostoConTarifaPorDefecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Pago.Monto.Equal(dec("10")) {
		t.Errorf("monto = %s, want 10", res.Pago.Monto)
	}
	costo, err := f.store.CostoPorAtencion(ctx, f.atencion)
	if err != nil || !costo.Pagado {
		t.Errorf("costo = %+v, err = %v", costo, err)
	}
}

func TestRegistrarPago_Validacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otro := f.store.AgregarPaciente(models.Paciente{Nombres: "Luis"})

	cases := []struct {
		name string
		req  billing.SolicitudPago
		want error
	}{
		{"sin paciente", billing.SolicitudPago{Metodo: models.MetodoEfectivo}, billing.ErrValidacion},
		{"método desconocido", billing.SolicitudPago{PacienteID: f.paciente, Metodo: "Cheque"}, billing.ErrValidacion},
		{"paciente inexistente", billing.SolicitudPago{PacienteID: 9999, Metodo: models.MetodoEfectivo}, models.ErrNoEncontrado},
		{"paciente sin atención", billing.SolicitudPago{PacienteID: otro, Metodo: models.MetodoEfectivo}, billing.ErrSinAtencion},
		{"atención de otro paciente", billing.SolicitudPago{PacienteID: otro, AtencionID: f.atencion, Metodo: models.MetodoEfectivo}, billing.ErrSinAtencion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.RegistrarPago(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegistrarPago_TotalCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cero := dec("0")
	if _, err := f.svc.CrearCosto(ctx, billing.SolicitudCosto{AtencionID: f.atencion, CostoConsulta: &cero}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo}); !errors.Is(err, billing.ErrSinCostos) {
		t.Fatalf("expected ErrSinCostos, got %v", err)
	}
}

func TestRegistrarPago_FalloDeshaceTransaccion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)
	f.store.ErrCrearPago = errors.New("conexión perdida")

	if _, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo}); err == nil {
		t.Fatal("expected error")
	}
	guardado, _ := f.store.CostoPorID(ctx, costo.ID)
	if guardado.Pagado {
		t.Error("cost must stay unpaid after a failed transaction")
	}
}

func TestPasarela_RedirectYCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)

	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pago != nil || !strings.Contains(res.RedirectURL, res.Token) {
		t.Fatalf("resultado = %+v, want redirect", res)
	}
	if len(f.pasarela.ordenes) != 1 || !f.pasarela.ordenes[0].Monto.Equal(dec("50")) {
		t.Fatalf("ordenes = %+v", f.pasarela.ordenes)
	}

	// antes del callback nada está pagado
	guardado, _ := f.store.CostoPorID(ctx, costo.ID)
	if guardado.Pagado {
		t.Fatal("cost paid before callback")
	}

	f.pasarela.Aprobar(res.Token, "PAYER1")
	pago, err := f.svc.EjecutarPasarela(ctx, res.Token, "PAYER1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pago.MetodoPago != models.MetodoPayPal || pago.Referencia == nil || *pago.Referencia != "CAPTURE-"+res.Token {
		t.Errorf("pago = %+v", pago)
	}
	guardado, _ = f.store.CostoPorID(ctx, costo.ID)
	if !guardado.Pagado {
		t.Error("cost must be paid after callback")
	}

	// el callback repetido no genera otro pago
	if _, err := f.svc.EjecutarPasarela(ctx, res.Token, "PAYER1"); !errors.Is(err, billing.ErrPagoDuplicado) {
		t.Errorf("expected ErrPagoDuplicado, got %v", err)
	}
	if f.pasarela.capturas != 1 {
		t.Errorf("capturas = %d, want 1", f.pasarela.capturas)
	}
}

func TestPasarela_CallbackInvalido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)

	if _, err := f.svc.EjecutarPasarela(ctx, "", "PAYER1"); !errors.Is(err, billing.ErrCallbackInvalido) {
		t.Errorf("sin token: %v", err)
	}
	if _, err := f.svc.EjecutarPasarela(ctx, "EC-x", ""); !errors.Is(err, billing.ErrCallbackInvalido) {
		t.Errorf("sin payer: %v", err)
	}
	if _, err := f.svc.EjecutarPasarela(ctx, "EC-desconocido", "PAYER1"); !errors.Is(err, billing.ErrCallbackInvalido) {
		t.Errorf("token desconocido: %v", err)
	}
}

func TestPasarela_FalloCapturaDejaCostoSinPagar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)

	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if err != nil {
		t.Fatal(err)
	}
	// payer distinto al que aprobó
	f.pasarela.Aprobar(res.Token, "PAYER1")
	if _, err := f.svc.EjecutarPasarela(ctx, res.Token, "OTRO"); !errors.Is(err, billing.ErrPasarela) {
		t.Fatalf("expected ErrPasarela, got %v", err)
	}

	guardado, _ := f.store.CostoPorID(ctx, costo.ID)
	if guardado.Pagado {
		t.Error("cost must stay unpaid")
	}
	tr, _ := f.store.TransaccionPorToken(ctx, res.Token)
	if tr.Estado != models.TransaccionFallida {
		t.Errorf("estado = %q, want fallida", tr.Estado)
	}
	// se puede iniciar un nuevo intento
	if _, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal}); err != nil {
		t.Errorf("retry: %v", err)
	}
}

func TestPasarela_ErrorAlCrearOrden(t *testing.T) {
	f := newFixture(t)
	f.cargar50(t)
	f.pasarela.errCrear = errors.New("503")

	_, err := f.svc.RegistrarPago(context.Background(), billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if !errors.Is(err, billing.ErrPasarela) {
		t.Fatalf("expected ErrPasarela, got %v", err)
	}
}

func TestPasarela_NoConfigurada(t *testing.T) {
	store := memstore.New()
	svc := billing.NewService(store, nil, billing.Config{TarifaConsulta: dec("10")}, zerolog.Nop())
	_, err := svc.RegistrarPago(context.Background(), billing.SolicitudPago{PacienteID: 1, Metodo: models.MetodoPayPal})
	if !errors.Is(err, billing.ErrPasarela) {
		t.Fatalf("expected ErrPasarela, got %v", err)
	}
}

func TestCancelarPasarela(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)

	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.CancelarPasarela(ctx, res.Token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.pasarela.Aprobar(res.Token, "PAYER1")
	if _, err := f.svc.EjecutarPasarela(ctx, res.Token, "PAYER1"); !errors.Is(err, billing.ErrCallbackInvalido) {
		t.Errorf("callback after cancel: %v", err)
	}
	if err := f.svc.CancelarPasarela(ctx, res.Token); !errors.Is(err, billing.ErrCallbackInvalido) {
		t.Errorf("second cancel: %v", err)
	}
}

func TestRecibo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo})
	if err != nil {
		t.Fatal(err)
	}

	r, err := f.svc.Recibo(ctx, res.Pago.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r.Paciente.NombreCompleto() != "Ana Pérez" {
		t.Errorf("paciente = %q", r.Paciente.NombreCompleto())
	}
	if !r.Desglose.TotalGeneral.Equal(r.Pago.Monto) {
		t.Errorf("desglose %s != monto %s", r.Desglose.TotalGeneral, r.Pago.Monto)
	}
	if _, err := f.svc.Recibo(ctx, 9999); !errors.Is(err, models.ErrNoEncontrado) {
		t.Errorf("expected ErrNoEncontrado, got %v", err)
	}
}

func TestPasarela_OrdenNuevaCancelaLaAnterior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)
	req := billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal}

	primera, err := f.svc.RegistrarPago(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	segunda, err := f.svc.RegistrarPago(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	// el pagador aprobó las dos órdenes
	f.pasarela.Aprobar(primera.Token, "PAYER1")
	f.pasarela.Aprobar(segunda.Token, "PAYER1")

	if _, err := f.svc.EjecutarPasarela(ctx, segunda.Token, "PAYER1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.EjecutarPasarela(ctx, primera.Token, "PAYER1"); !errors.Is(err, billing.ErrCallbackInvalido) {
		t.Errorf("old order: expected ErrCallbackInvalido, got %v", err)
	}
	if f.pasarela.capturas != 1 {
		t.Errorf("capturas = %d, want 1", f.pasarela.capturas)
	}
	tr, _ := f.store.TransaccionPorToken(ctx, primera.Token)
	if tr.Estado != models.TransaccionCancelada {
		t.Errorf("estado = %q, want cancelada", tr.Estado)
	}
	pagos, _ := f.svc.Pagos(ctx, f.paciente)
	if len(pagos) != 1 || pagos[0].CostoAtencionID != costo.ID {
		t.Errorf("pagos = %+v, want one for costo %d", pagos, costo.ID)
	}
}

func TestPasarela_CallbacksConcurrentesCapturanUnaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if err != nil {
		t.Fatal(err)
	}
	f.pasarela.Aprobar(res.Token, "PAYER1")

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.EjecutarPasarela(ctx, res.Token, "PAYER1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, billing.ErrPagoDuplicado), errors.Is(err, billing.ErrPagoEnProceso):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || f.pasarela.capturas != 1 {
		t.Errorf("ok = %d, capturas = %d, want 1 and 1", ok, f.pasarela.capturas)
	}
}

func TestPasarela_EfectivoRechazadoDuranteCaptura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if err != nil {
		t.Fatal(err)
	}
	f.pasarela.Aprobar(res.Token, "PAYER1")

	var errEfectivo error
	f.pasarela.enCaptura = func() {
		_, errEfectivo = f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo})
	}
	if _, err := f.svc.EjecutarPasarela(ctx, res.Token, "PAYER1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(errEfectivo, billing.ErrPagoEnProceso) {
		t.Errorf("cash during capture: expected ErrPagoEnProceso, got %v", errEfectivo)
	}
	pagos, _ := f.svc.Pagos(ctx, f.paciente)
	if len(pagos) != 1 || pagos[0].MetodoPago != models.MetodoPayPal {
		t.Errorf("pagos = %+v, want only the gateway payment", pagos)
	}
}

func TestPasarela_EfectivoCancelaOrdenPendiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo}); err != nil {
		t.Fatal(err)
	}
	f.pasarela.Aprobar(res.Token, "PAYER1")
	if _, err := f.svc.EjecutarPasarela(ctx, res.Token, "PAYER1"); !errors.Is(err, billing.ErrCallbackInvalido) {
		t.Errorf("expected ErrCallbackInvalido, got %v", err)
	}
	if f.pasarela.capturas != 0 {
		t.Errorf("capturas = %d, want 0", f.pasarela.capturas)
	}
}

func TestPasarela_TotalCambiadoNoCaptura(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)
	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoPayPal})
	if err != nil {
		t.Fatal(err)
	}
	// se agrega un cargo después de crear la orden
	if _, err := f.svc.AgregarServicio(ctx, costo.ID, billing.SolicitudServicio{NombreServicio: "Inyección", CostoServicio: dec("5")}); err != nil {
		t.Fatal(err)
	}
	f.pasarela.Aprobar(res.Token, "PAYER1")

	if _, err := f.svc.EjecutarPasarela(ctx, res.Token, "PAYER1"); !errors.Is(err, billing.ErrMontoCambiado) {
		t.Fatalf("expected ErrMontoCambiado, got %v", err)
	}
	if f.pasarela.capturas != 0 {
		t.Errorf("capturas = %d, want 0", f.pasarela.capturas)
	}
	tr, _ := f.store.TransaccionPorToken(ctx, res.Token)
	if tr.Estado != models.TransaccionCancelada {
		t.Errorf("estado = %q, want cancelada", tr.Estado)
	}
	guardado, _ := f.store.CostoPorID(ctx, costo.ID)
	if guardado.Pagado {
		t.Error("cost must stay unpaid")
	}
}

func TestRecibo_DesgloseCongelado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	res, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo})
	if err != nil {
		t.Fatal(err)
	}

	// un cargo escrito directo en el almacén tras el cobro no altera el recibo
	atencion := f.atencion
	if err := f.store.CrearExamen(ctx, &models.ExamenSolicitado{
		NombreExamen: "Rayos X",
		PacienteID:   f.paciente,
		AtencionID:   &atencion,
		Costo:        dec("40.00"),
		Estado:       models.ExamenPendiente,
	}); err != nil {
		t.Fatal(err)
	}

	r, err := f.svc.Recibo(ctx, res.Pago.ID)
	if err != nil {
		t.Fatal(err)
	}
	d := r.Desglose
	if !d.TotalGeneral.Equal(dec("50")) || !d.Examenes.Equal(dec("15")) || !d.ServiciosAdicionales.Equal(dec("25")) || !d.CostoConsulta.Equal(dec("10")) {
		t.Errorf("desglose = %+v, want 10 + 25 + 15 = 50", d)
	}
}
