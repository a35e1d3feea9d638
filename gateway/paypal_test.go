package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/lizet96/clinica-backend/billing"
	"github.com/plutov/paypal/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeAPI struct {
	tokens    int
	creadas   []paypal.PurchaseUnitRequest
	appCtx    *paypal.ApplicationContext
	orden     *paypal.Order
	captura   *paypal.CaptureOrderResponse
	errCrear  error
	capturado bool
}

func (f *fakeAPI) GetAccessToken(context.Context) (*paypal.TokenResponse, error) {
	f.tokens++
	return &paypal.TokenResponse{Token: "A21"}, nil
}

func (f *fakeAPI) CreateOrder(_ context.Context, intent string, pu []paypal.PurchaseUnitRequest, _ *paypal.CreateOrderPayer, app *paypal.ApplicationContext) (*paypal.Order, error) {
	if f.errCrear != nil {
		return nil, f.errCrear
	}
	f.creadas = append(f.creadas, pu...)
	f.appCtx = app
	return &paypal.Order{
		ID:     "5O190127TN364715T",
		Status: "CREATED",
		Links: []paypal.Link{
			{Rel: "self", Href: "https://api-m.sandbox.paypal.com/v2/checkout/orders/5O190127TN364715T"},
			{Rel: "approve", Href: "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T"},
		},
	}, nil
}

func (f *fakeAPI) GetOrder(context.Context, string) (*paypal.Order, error) {
	return f.orden, nil
}

func (f *fakeAPI) CaptureOrder(context.Context, string, paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error) {
	f.capturado = true
	return f.captura, nil
}

func TestCrearOrden(t *testing.T) {
	api := &fakeAPI{}
	p := newPayPal(api, "Clínica", zerolog.Nop())

	orden, err := p.CrearOrden(context.Background(), billing.OrdenPasarela{
		Referencia: "ref-1",
		Monto:      decimal.RequireFromString("50"),
		Moneda:     "USD",
		ReturnURL:  "http://localhost/ok",
		CancelURL:  "http://localhost/cancel",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orden.Token != "5O190127TN364715T" {
		t.Errorf("token = %q", orden.Token)
	}
	if orden.ApprovalURL != "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T" {
		t.Errorf("approval = %q", orden.ApprovalURL)
	}
	if len(api.creadas) != 1 || api.creadas[0].Amount.Value != "50.00" || api.creadas[0].Amount.Currency != "USD" {
		t.Errorf("purchase units = %+v", api.creadas)
	}
	if api.appCtx.ReturnURL != "http://localhost/ok" || api.appCtx.CancelURL != "http://localhost/cancel" {
		t.Errorf("app context = %+v", api.appCtx)
	}

	if _, err := p.CrearOrden(context.Background(), billing.OrdenPasarela{Monto: decimal.NewFromInt(1)}); err != nil {
		t.Fatal(err)
	}
	if api.tokens != 1 {
		t.Errorf("tokens = %d, want 1", api.tokens)
	}
}

func TestCrearOrden_Error(t *testing.T) {
	api := &fakeAPI{errCrear: errors.New("INVALID_REQUEST")}
	p := newPayPal(api, "Clínica", zerolog.Nop())
	if _, err := p.CrearOrden(context.Background(), billing.OrdenPasarela{Monto: decimal.NewFromInt(1)}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCapturarOrden(t *testing.T) {
	api := &fakeAPI{
		orden: &paypal.Order{ID: "O1", Status: "APPROVED", Payer: &paypal.PayerWithNameAndPhone{PayerID: "PAYER1"}},
		captura: &paypal.CaptureOrderResponse{
			ID:     "O1",
			Status: "COMPLETED",
			PurchaseUnits: []paypal.CapturedPurchaseUnit{{
				Payments: &paypal.CapturedPayments{Captures: []paypal.CaptureAmount{{ID: "3C679366HH908993F"}}},
			}},
		},
	}
	p := newPayPal(api, "Clínica", zerolog.Nop())

	ref, err := p.CapturarOrden(context.Background(), "O1", "PAYER1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "3C679366HH908993F" {
		t.Errorf("referencia = %q", ref)
	}
}

func TestCapturarOrden_Rechazos(t *testing.T) {
	cases := []struct {
		name  string
		orden *paypal.Order
	}{
		{"no aprobada", &paypal.Order{Status: "CREATED", Payer: &paypal.PayerWithNameAndPhone{PayerID: "PAYER1"}}},
		{"otro pagador", &paypal.Order{Status: "APPROVED", Payer: &paypal.PayerWithNameAndPhone{PayerID: "OTRO"}}},
		{"sin pagador", &paypal.Order{Status: "APPROVED"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{orden: tc.orden}
			p := newPayPal(api, "Clínica", zerolog.Nop())
			if _, err := p.CapturarOrden(context.Background(), "O1", "PAYER1"); err == nil {
				t.Fatal("expected error")
			}
			if api.capturado {
				t.Error("order must not be captured")
			}
		})
	}
}

func TestLinkAprobacion(t *testing.T) {
	if _, err := linkAprobacion([]paypal.Link{{Rel: "self", Href: "x"}}); err == nil {
		t.Error("expected error without approve link")
	}
	href, err := linkAprobacion([]paypal.Link{{Rel: "payer-action", Href: "https://paypal/pay"}})
	if err != nil || href != "https://paypal/pay" {
		t.Errorf("href = %q, err = %v", href, err)
	}
}

func TestIDCaptura_SinCapturas(t *testing.T) {
	if id := idCaptura(&paypal.CaptureOrderResponse{ID: "O9"}); id != "O9" {
		t.Errorf("id = %q, want O9", id)
	}
}

func TestNewPayPal_ModoDesconocido(t *testing.T) {
	if _, err := NewPayPal("id", "secret", "produccion", "Clínica", zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
