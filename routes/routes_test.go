package routes

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lizet96/clinica-backend/handlers"
	"github.com/lizet96/clinica-backend/middleware"
	"github.com/rs/zerolog"
)

func nuevaApp(ping func(context.Context) error) *fiber.App {
	jwt := middleware.NewJWT("secreto", time.Hour)
	h := handlers.New(nil, nil, nil, jwt, "Clínica", zerolog.Nop())
	app := fiber.New()
	SetupRoutes(app, h, jwt, Opciones{CORSOrigins: []string{"*"}, Version: "test", Ping: ping}, zerolog.Nop())
	return app
}

func TestHealthDB(t *testing.T) {
	cases := []struct {
		name string
		ping func(context.Context) error
		want int
	}{
		{"ok", func(context.Context) error { return nil }, fiber.StatusOK},
		{"caída", func(context.Context) error { return errors.New("connection refused") }, fiber.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := nuevaApp(tc.ping).Test(httptest.NewRequest("GET", "/health/db", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestHealthDB_SinPing(t *testing.T) {
	resp, err := nuevaApp(nil).Test(httptest.NewRequest("GET", "/health/db", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPagosRequiereToken(t *testing.T) {
	app := nuevaApp(nil)
	req := httptest.NewRequest("GET", "/api/v1/pagos", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("pagos without token status = %d, want 401", resp.StatusCode)
	}
}
