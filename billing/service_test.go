package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/memstore"
	"github.com/lizet96/clinica-backend/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fakePasarela simula PayPal: las órdenes quedan aprobadas por el payer indicado en Aprobar
type fakePasarela struct {
	mu        sync.Mutex
	ordenes   []billing.OrdenPasarela
	aprobadas map[string]string
	capturas  int
	errCrear  error
	// enCaptura corre dentro de CapturarOrden, antes de cobrar
	enCaptura func()
}

func newFakePasarela() *fakePasarela {
	return &fakePasarela{aprobadas: map[string]string{}}
}

func (f *fakePasarela) CrearOrden(_ context.Context, o billing.OrdenPasarela) (*billing.OrdenCreada, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errCrear != nil {
		return nil, f.errCrear
	}
	f.ordenes = append(f.ordenes, o)
	token := "EC-" + o.Referencia
	return &billing.OrdenCreada{Token: token, ApprovalURL: "https://sandbox.paypal.test/checkoutnow?token=" + token}, nil
}

func (f *fakePasarela) Aprobar(token, payerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aprobadas[token] = payerID
}

func (f *fakePasarela) CapturarOrden(_ context.Context, token, payerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.aprobadas[token] != payerID {
		return "", errors.New("PAYER_ACTION_REQUIRED")
	}
	if f.enCaptura != nil {
		f.enCaptura()
	}
	f.capturas++
	return "CAPTURE-" + token, nil
}

type fixture struct {
	svc      *billing.Service
	store    *memstore.Store
	pasarela *fakePasarela
	paciente int
	atencion int
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	pasarela := newFakePasarela()
	svc := billing.NewService(store, pasarela, billing.Config{
		TarifaConsulta: dec("10.00"),
		Moneda:         "USD",
		ReturnURL:      "http://localhost/api/v1/pagos/paypal/ejecutar",
		CancelURL:      "http://localhost/api/v1/pagos/paypal/cancelar",
	}, zerolog.Nop())

	f := &fixture{svc: svc, store: store, pasarela: pasarela}
	f.paciente = store.AgregarPaciente(models.Paciente{Nombres: "Ana", Apellidos: "Pérez", Email: "ana@example.com", Activo: true})
	f.atencion = f.nuevaAtencion(t, time.Now())
	return f
}

func (f *fixture) nuevaAtencion(t *testing.T, fecha time.Time) int {
	t.Helper()
	a := &models.Atencion{
		PacienteID:     f.paciente,
		FechaAtencion:  fecha,
		MotivoConsulta: "control",
		Sintomas:       "ninguno",
		Tratamiento:    "reposo",
	}
	if err := f.store.CrearAtencion(context.Background(), a); err != nil {
		t.Fatalf("crear atención: %v", err)
	}
	return a.ID
}

// cargar50 deja la atención con consulta 10 + servicio 25 + examen 15
func (f *fixture) cargar50(t *testing.T) *models.CostosAtencion {
	t.Helper()
	ctx := context.Background()
	costo, err := f.svc.CrearCosto(ctx, billing.SolicitudCosto{AtencionID: f.atencion})
	if err != nil {
		t.Fatalf("crear costo: %v", err)
	}
	if _, err := f.svc.AgregarServicio(ctx, costo.ID, billing.SolicitudServicio{NombreServicio: "Curación", CostoServicio: dec("25.00")}); err != nil {
		t.Fatalf("agregar servicio: %v", err)
	}
	atencion := f.atencion
	if err := f.store.CrearExamen(ctx, &models.ExamenSolicitado{
		NombreExamen: "Hemograma",
		PacienteID:   f.paciente,
		AtencionID:   &atencion,
		Costo:        dec("15.00"),
		Estado:       models.ExamenPendiente,
	}); err != nil {
		t.Fatalf("crear examen: %v", err)
	}
	return costo
}

func TestCostoAtencion_Ejemplo(t *testing.T) {
	f := newFixture(t)
	f.cargar50(t)

	d, err := f.svc.CostoAtencion(context.Background(), f.atencion)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.TotalGeneral.Equal(dec("50.00")) {
		t.Errorf("total = %s, want 50.00", d.TotalGeneral)
	}
	if !d.CostoConsulta.Equal(dec("10")) || !d.ServiciosAdicionales.Equal(dec("25")) || !d.Examenes.Equal(dec("15")) || !d.Medicinas.IsZero() {
		t.Errorf("desglose = %+v", d)
	}
}

func TestCostoAtencion_Medicinas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	med := f.store.AgregarMedicamento(models.Medicamento{Nombre: "Paracetamol", Precio: dec("2.50")})
	if err := f.store.CrearDetalle(ctx, &models.DetalleAtencion{AtencionID: f.atencion, MedicamentoID: med, Cantidad: 3, Prescripcion: "c/8h"}); err != nil {
		t.Fatal(err)
	}

	d, err := f.svc.CostoAtencion(ctx, f.atencion)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// sin costo registrado se usa la tarifa por defecto
	if !d.TotalGeneral.Equal(dec("17.50")) {
		t.Errorf("total = %s, want 17.50", d.TotalGeneral)
	}
}

func TestCostoAtencion_ExamenPorDetalleSeCuentaUnaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	atencion := f.atencion
	examen := &models.ExamenSolicitado{NombreExamen: "Rayos X", PacienteID: f.paciente, AtencionID: &atencion, Costo: dec("40"), Estado: models.ExamenPendiente}
	if err := f.store.CrearExamen(ctx, examen); err != nil {
		t.Fatal(err)
	}
	cancelado := &models.ExamenSolicitado{NombreExamen: "Glucosa", PacienteID: f.paciente, AtencionID: &atencion, Costo: dec("8"), Estado: models.ExamenCancelado}
	if err := f.store.CrearExamen(ctx, cancelado); err != nil {
		t.Fatal(err)
	}
	med := f.store.AgregarMedicamento(models.Medicamento{Nombre: "Ibuprofeno", Precio: dec("1")})
	if err := f.store.CrearDetalle(ctx, &models.DetalleAtencion{AtencionID: f.atencion, MedicamentoID: med, ExamenSolicitadoID: &examen.ID, Cantidad: 1, Prescripcion: "x"}); err != nil {
		t.Fatal(err)
	}

	d, err := f.svc.CostoAtencion(ctx, f.atencion)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Examenes.Equal(dec("40")) {
		t.Errorf("examenes = %s, want 40", d.Examenes)
	}
	if !d.TotalGeneral.Equal(dec("51")) {
		t.Errorf("total = %s, want 51", d.TotalGeneral)
	}
}

func TestCostoAtencion_SinAtencion(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CostoAtencion(context.Background(), 9999); !errors.Is(err, billing.ErrSinAtencion) {
		t.Fatalf("expected ErrSinAtencion, got %v", err)
	}
}

func TestCostosPaciente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	f.nuevaAtencion(t, time.Now().Add(time.Hour))

	d, err := f.svc.CostosPaciente(ctx, f.paciente)
	if err != nil {
		t.Fatal(err)
	}
	if !d.TotalGeneral.Equal(dec("60")) {
		t.Errorf("total = %s, want 60 (50 + tarifa 10)", d.TotalGeneral)
	}

	if _, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, AtencionID: f.atencion, Metodo: models.MetodoEfectivo}); err != nil {
		t.Fatal(err)
	}
	d, err = f.svc.CostosPaciente(ctx, f.paciente)
	if err != nil {
		t.Fatal(err)
	}
	if !d.TotalGeneral.Equal(dec("10")) {
		t.Errorf("total tras pagar = %s, want 10", d.TotalGeneral)
	}
}

func TestCostosPaciente_SinAtenciones(t *testing.T) {
	f := newFixture(t)
	otro := f.store.AgregarPaciente(models.Paciente{Nombres: "Luis"})
	if _, err := f.svc.CostosPaciente(context.Background(), otro); !errors.Is(err, billing.ErrSinAtencion) {
		t.Fatalf("expected ErrSinAtencion, got %v", err)
	}
	if _, err := f.svc.VerificarPago(context.Background(), otro); !errors.Is(err, billing.ErrSinAtencion) {
		t.Fatalf("expected ErrSinAtencion, got %v", err)
	}
}

func TestExamenesPendientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cargar50(t)
	suelto := &models.ExamenSolicitado{NombreExamen: "Orina", PacienteID: f.paciente, Costo: dec("5"), Estado: models.ExamenPendiente}
	if err := f.store.CrearExamen(ctx, suelto); err != nil {
		t.Fatal(err)
	}

	examenes, err := f.svc.ExamenesPendientes(ctx, f.paciente)
	if err != nil {
		t.Fatal(err)
	}
	if len(examenes) != 1 || examenes[0].NombreExamen != "Hemograma" {
		t.Errorf("examenes = %+v, want only Hemograma", examenes)
	}
}

func TestCrearCosto_Duplicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CrearCosto(ctx, billing.SolicitudCosto{AtencionID: f.atencion}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CrearCosto(ctx, billing.SolicitudCosto{AtencionID: f.atencion}); !errors.Is(err, billing.ErrCostoDuplicado) {
		t.Fatalf("expected ErrCostoDuplicado, got %v", err)
	}
}

func TestCrearCosto_Validacion(t *testing.T) {
	f := newFixture(t)
	negativo := dec("-1")
	if _, err := f.svc.CrearCosto(context.Background(), billing.SolicitudCosto{AtencionID: f.atencion, CostoConsulta: &negativo}); !errors.Is(err, billing.ErrValidacion) {
		t.Fatalf("expected ErrValidacion, got %v", err)
	}
	if _, err := f.svc.CrearCosto(context.Background(), billing.SolicitudCosto{}); !errors.Is(err, billing.ErrValidacion) {
		t.Fatalf("expected ErrValidacion, got %v", err)
	}
}

func TestActualizarCosto_RecalculaTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)

	tarifa := dec("20")
	actualizado, err := f.svc.ActualizarCosto(ctx, costo.ID, billing.SolicitudCosto{CostoConsulta: &tarifa})
	if err != nil {
		t.Fatal(err)
	}
	if !actualizado.Total.Equal(dec("60")) {
		t.Errorf("total = %s, want 60", actualizado.Total)
	}
}

func TestServicios_RechazadosTrasPago(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)
	if _, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.AgregarServicio(ctx, costo.ID, billing.SolicitudServicio{NombreServicio: "Extra", CostoServicio: dec("1")})
	if !errors.Is(err, billing.ErrCostoPagado) {
		t.Fatalf("expected ErrCostoPagado, got %v", err)
	}
	if err := f.svc.DesactivarCosto(ctx, costo.ID); !errors.Is(err, billing.ErrCostoPagado) {
		t.Fatalf("expected ErrCostoPagado, got %v", err)
	}
}

func TestEliminarServicio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo := f.cargar50(t)
	_, servicios, err := f.svc.Costo(ctx, costo.ID)
	if err != nil || len(servicios) != 1 {
		t.Fatalf("servicios = %v, err = %v", servicios, err)
	}
	if err := f.svc.EliminarServicio(ctx, costo.ID, servicios[0].ID); err != nil {
		t.Fatal(err)
	}
	d, _ := f.svc.CostoAtencion(ctx, f.atencion)
	if !d.TotalGeneral.Equal(dec("25")) {
		t.Errorf("total = %s, want 25", d.TotalGeneral)
	}
	if err := f.svc.EliminarServicio(ctx, costo.ID+1000, servicios[0].ID); !errors.Is(err, models.ErrNoEncontrado) {
		t.Errorf("expected ErrNoEncontrado, got %v", err)
	}
}

func TestCostos_TotalVigenteHastaElPago(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	costo, err := f.svc.CrearCosto(ctx, billing.SolicitudCosto{AtencionID: f.atencion})
	if err != nil {
		t.Fatal(err)
	}
	// el examen llega por atenciones, sin tocar el costo guardado
	atencion := f.atencion
	examen := func(costo string) {
		t.Helper()
		if err := f.store.CrearExamen(ctx, &models.ExamenSolicitado{NombreExamen: "Hemograma", PacienteID: f.paciente, AtencionID: &atencion, Costo: dec(costo), Estado: models.ExamenPendiente}); err != nil {
			t.Fatal(err)
		}
	}
	examen("15")

	actual, _, err := f.svc.Costo(ctx, costo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !actual.Total.Equal(dec("25")) {
		t.Errorf("Costo total = %s, want 25", actual.Total)
	}
	lista, err := f.svc.Costos(ctx, f.paciente)
	if err != nil || len(lista) != 1 || !lista[0].Total.Equal(dec("25")) {
		t.Fatalf("Costos = %+v, %v", lista, err)
	}

	if _, err := f.svc.RegistrarPago(ctx, billing.SolicitudPago{PacienteID: f.paciente, Metodo: models.MetodoEfectivo}); err != nil {
		t.Fatal(err)
	}
	examen("40")
	pagado, _, err := f.svc.Costo(ctx, costo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !pagado.Total.Equal(dec("25")) {
		t.Errorf("paid total = %s, want 25", pagado.Total)
	}
}
