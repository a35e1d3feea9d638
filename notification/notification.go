// Package notification envía los correos de las citas médicas a los pacientes.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Plantillas por evento del ciclo de vida de una cita
const (
	PlantillaCitaCreada       = "cita-creada"
	PlantillaCitaActualizada  = "cita-actualizada"
	PlantillaCitaCancelada    = "cita-cancelada"
	PlantillaCitaRecordatorio = "cita-recordatorio"
)

// EmailSender entrega un correo ya renderizado
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template es un asunto y cuerpo con marcadores {{clave}}
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine guarda las plantillas y las renderiza con los datos de la cita
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine crea el motor con las plantillas de citas ya registradas
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	builtIn := []Template{
		{
			ID:      PlantillaCitaCreada,
			Subject: "Cita médica agendada - {{clinica}}",
			Body:    "Estimado(a) {{paciente}}, su cita médica fue agendada para el {{fecha}} a las {{hora}}.",
		},
		{
			ID:      PlantillaCitaActualizada,
			Subject: "Cita médica modificada - {{clinica}}",
			Body:    "Estimado(a) {{paciente}}, su cita médica fue modificada. Nueva fecha: {{fecha}} a las {{hora}}. Estado: {{estado}}.",
		},
		{
			ID:      PlantillaCitaCancelada,
			Subject: "Cita médica cancelada - {{clinica}}",
			Body:    "Estimado(a) {{paciente}}, su cita médica del {{fecha}} a las {{hora}} fue cancelada.",
		},
		{
			ID:      PlantillaCitaRecordatorio,
			Subject: "Recordatorio de cita médica - {{clinica}}",
			Body:    "Estimado(a) {{paciente}}, le recordamos que mañana {{fecha}} a las {{hora}} tiene una cita médica.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
	return e
}

// RegisterTemplate agrega o reemplaza una plantilla
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render reemplaza los marcadores {{clave}}; los que no tienen dato quedan tal cual
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("plantilla %q no encontrada", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Dispatcher renderiza y envía; no reintenta ni encola
type Dispatcher struct {
	sender    EmailSender
	templates *TemplateEngine
	clinica   string
	log       zerolog.Logger
}

func NewDispatcher(sender EmailSender, templates *TemplateEngine, clinica string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		templates: templates,
		clinica:   clinica,
		log:       logger.With().Str("component", "notification").Logger(),
	}
}

// Notificar envía la plantilla indicada al destinatario y retorna el error de envío
func (d *Dispatcher) Notificar(ctx context.Context, plantilla, para string, datos map[string]string) error {
	if para == "" {
		return errors.New("el destinatario no tiene correo registrado")
	}
	if _, ok := datos["clinica"]; !ok {
		copia := make(map[string]string, len(datos)+1)
		for k, v := range datos {
			copia[k] = v
		}
		copia["clinica"] = d.clinica
		datos = copia
	}

	subject, body, err := d.templates.Render(plantilla, datos)
	if err != nil {
		return err
	}
	if err := d.sender.SendEmail(ctx, para, subject, body); err != nil {
		d.log.Error().Err(err).Str("plantilla", plantilla).Str("para", para).Msg("no se pudo enviar el correo")
		return fmt.Errorf("enviar correo: %w", err)
	}
	d.log.Info().Str("evento", "cita_notificada").Str("plantilla", plantilla).Str("para", para).Msg("correo enviado")
	return nil
}

// EmailCall registra una llamada a SendEmail
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender es un EmailSender en memoria para pruebas
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls retorna una copia de las llamadas registradas
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
