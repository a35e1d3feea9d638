// Package gateway conecta el procesador de pagos con PayPal (API Orders v2).
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lizet96/clinica-backend/billing"
	"github.com/plutov/paypal/v4"
	"github.com/rs/zerolog"
)

var _ billing.Pasarela = (*PayPal)(nil)

// Modos de la cuenta de PayPal
const (
	ModoSandbox = "sandbox"
	ModoLive    = "live"
)

// ordenesAPI es la parte del cliente de PayPal que se usa
type ordenesAPI interface {
	GetAccessToken(ctx context.Context) (*paypal.TokenResponse, error)
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, payer *paypal.CreateOrderPayer, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
}

// PayPal implementa billing.Pasarela
type PayPal struct {
	api       ordenesAPI
	marca     string
	log       zerolog.Logger
	mu        sync.Mutex
	conectado bool
}

// NewPayPal crea el cliente para el modo indicado (sandbox o live)
func NewPayPal(clientID, secret, modo, marca string, logger zerolog.Logger) (*PayPal, error) {
	base := paypal.APIBaseSandBox
	switch modo {
	case ModoSandbox, "":
	case ModoLive:
		base = paypal.APIBaseLive
	default:
		return nil, fmt.Errorf("modo de PayPal desconocido: %q", modo)
	}
	client, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, err
	}
	return newPayPal(client, marca, logger), nil
}

func newPayPal(api ordenesAPI, marca string, logger zerolog.Logger) *PayPal {
	return &PayPal{
		api:   api,
		marca: marca,
		log:   logger.With().Str("component", "paypal").Logger(),
	}
}

// autenticar obtiene el token OAuth la primera vez; el cliente lo renueva solo antes de expirar
func (p *PayPal) autenticar(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conectado {
		return nil
	}
	if _, err := p.api.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("token de PayPal: %w", err)
	}
	p.conectado = true
	return nil
}

func (p *PayPal) CrearOrden(ctx context.Context, o billing.OrdenPasarela) (*billing.OrdenCreada, error) {
	if err := p.autenticar(ctx); err != nil {
		return nil, err
	}
	orden, err := p.api.CreateOrder(ctx, paypal.OrderIntentCapture, []paypal.PurchaseUnitRequest{{
		ReferenceID: o.Referencia,
		Description: o.Descripcion,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: o.Moneda,
			Value:    o.Monto.StringFixed(2),
		},
	}}, nil, &paypal.ApplicationContext{
		BrandName: p.marca,
		ReturnURL: o.ReturnURL,
		CancelURL: o.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("crear orden: %w", err)
	}

	approval, err := linkAprobacion(orden.Links)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Str("orden", orden.ID).Str("referencia", o.Referencia).Msg("orden creada")
	return &billing.OrdenCreada{Token: orden.ID, ApprovalURL: approval}, nil
}

func (p *PayPal) CapturarOrden(ctx context.Context, token, payerID string) (string, error) {
	if err := p.autenticar(ctx); err != nil {
		return "", err
	}
	orden, err := p.api.GetOrder(ctx, token)
	if err != nil {
		return "", fmt.Errorf("consultar orden: %w", err)
	}
	if orden.Status != "APPROVED" {
		return "", fmt.Errorf("la orden %s no está aprobada (estado %s)", token, orden.Status)
	}
	if orden.Payer == nil || orden.Payer.PayerID != payerID {
		return "", fmt.Errorf("el pagador no coincide con la orden %s", token)
	}

	resp, err := p.api.CaptureOrder(ctx, token, paypal.CaptureOrderRequest{})
	if err != nil {
		return "", fmt.Errorf("capturar orden: %w", err)
	}
	if resp.Status != "COMPLETED" {
		return "", fmt.Errorf("captura de la orden %s en estado %s", token, resp.Status)
	}
	return idCaptura(resp), nil
}

func linkAprobacion(links []paypal.Link) (string, error) {
	for _, l := range links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href, nil
		}
	}
	return "", errors.New("la orden no trae link de aprobación")
}

// idCaptura usa el ID de la captura y, si no viene, el de la orden
func idCaptura(resp *paypal.CaptureOrderResponse) string {
	for _, pu := range resp.PurchaseUnits {
		if pu.Payments == nil {
			continue
		}
		for _, c := range pu.Payments.Captures {
			if c.ID != "" {
				return c.ID
			}
		}
	}
	return resp.ID
}
