package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTemplateEngine_Render(t *testing.T) {
	eng := NewTemplateEngine()
	eng.RegisterTemplate(Template{
		ID:      "prueba",
		Subject: "Hola {{nombre}}",
		Body:    "Estimado {{nombre}}, su código es {{codigo}}.",
	})

	subject, body, err := eng.Render("prueba", map[string]string{"nombre": "Ana", "codigo": "1234"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Hola Ana" {
		t.Errorf("subject = %q, want %q", subject, "Hola Ana")
	}
	if body != "Estimado Ana, su código es 1234." {
		t.Errorf("body = %q", body)
	}
}

func TestTemplateEngine_RenderMissing(t *testing.T) {
	eng := NewTemplateEngine()
	if _, _, err := eng.Render("no-existe", nil); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestTemplateEngine_BuiltIn(t *testing.T) {
	eng := NewTemplateEngine()
	for _, id := range []string{PlantillaCitaCreada, PlantillaCitaActualizada, PlantillaCitaCancelada, PlantillaCitaRecordatorio} {
		subject, body, err := eng.Render(id, map[string]string{
			"clinica":  "Clínica",
			"paciente": "Ana Pérez",
			"fecha":    "2026-01-01",
			"hora":     "10:00",
			"estado":   "P",
		})
		if err != nil {
			t.Errorf("plantilla %q: %v", id, err)
			continue
		}
		if strings.Contains(subject+body, "{{") {
			t.Errorf("plantilla %q quedó con marcadores: %q / %q", id, subject, body)
		}
	}
}

func TestDispatcher_Notificar(t *testing.T) {
	sender := &MockEmailSender{}
	d := NewDispatcher(sender, NewTemplateEngine(), "Clínica Central", zerolog.Nop())

	err := d.Notificar(context.Background(), PlantillaCitaCreada, "ana@example.com", map[string]string{
		"paciente": "Ana Pérez",
		"fecha":    "2026-03-10",
		"hora":     "09:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(calls))
	}
	if calls[0].To != "ana@example.com" {
		t.Errorf("to = %q", calls[0].To)
	}
	if !strings.Contains(calls[0].Subject, "Clínica Central") {
		t.Errorf("subject = %q, want clinic name", calls[0].Subject)
	}
	if !strings.Contains(calls[0].Body, "2026-03-10") || !strings.Contains(calls[0].Body, "09:30") {
		t.Errorf("body = %q", calls[0].Body)
	}
}

func TestDispatcher_PropagaError(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true, FailError: "smtp caído"}
	d := NewDispatcher(sender, NewTemplateEngine(), "Clínica", zerolog.Nop())

	err := d.Notificar(context.Background(), PlantillaCitaCancelada, "ana@example.com", nil)
	if err == nil || !strings.Contains(err.Error(), "smtp caído") {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestDispatcher_SinDestinatario(t *testing.T) {
	sender := &MockEmailSender{}
	d := NewDispatcher(sender, NewTemplateEngine(), "Clínica", zerolog.Nop())

	if err := d.Notificar(context.Background(), PlantillaCitaCreada, "", nil); err == nil {
		t.Fatal("expected error without recipient")
	}
	if len(sender.Calls()) != 0 {
		t.Error("no email should be sent")
	}
}

func TestMensaje_AsuntoCodificado(t *testing.T) {
	msg, err := mensaje("clinica@example.com", "ana@example.com", "Confirmación de cita médica", "Hola Ana,\nsu cita está confirmada.")
	if err != nil {
		t.Fatalf("mensaje: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "Subject: =?UTF-8?") {
		t.Errorf("subject is not RFC 2047 encoded:\n%s", raw)
	}
	if strings.Contains(raw, "Subject: Confirmación") {
		t.Error("raw non-ASCII subject in header")
	}
	if !strings.Contains(raw, "charset=UTF-8") {
		t.Errorf("missing UTF-8 charset:\n%s", raw)
	}
}

func TestMensaje_DireccionInvalida(t *testing.T) {
	if _, err := mensaje("clinica@example.com", "no es un correo", "Asunto", "Cuerpo"); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(NewLogSender(zerolog.New(&buf)), NewTemplateEngine(), "Clínica", zerolog.Nop())

	err := d.Notificar(context.Background(), PlantillaCitaRecordatorio, "ana@example.com", map[string]string{
		"paciente": "Ana", "fecha": "2024-05-02", "hora": "09:00", "estado": "P",
	})
	if err != nil {
		t.Fatalf("Notificar: %v", err)
	}
	if !strings.Contains(buf.String(), "ana@example.com") {
		t.Errorf("log = %q", buf.String())
	}
}
