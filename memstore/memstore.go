// Package memstore es una implementación en memoria de la persistencia, usada por las
// pruebas de servicios y handlers.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lizet96/clinica-backend/billing"
	"github.com/lizet96/clinica-backend/clinical"
	"github.com/lizet96/clinica-backend/models"
	"github.com/shopspring/decimal"
)

var (
	_ billing.Store  = (*Store)(nil)
	_ clinical.Store = (*Store)(nil)
)

type datos struct {
	pacientes     map[int]models.Paciente
	medicamentos  map[int]models.Medicamento
	usuarios      map[int]models.Usuario
	atenciones    map[int]models.Atencion
	detalles      map[int]models.DetalleAtencion
	examenes      map[int]models.ExamenSolicitado
	costos        map[int]models.CostosAtencion
	servicios     map[int]models.ServicioAdicional
	pagos         map[int]models.Pago
	transacciones map[string]models.TransaccionPasarela
	citas         map[int]models.CitaMedica
}

// Store guarda todo en mapas; EnTransaccion restaura el estado previo si fn falla
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	seq  int
	d    datos

	// ErrCrearPago, si no es nil, lo retorna CrearPago para simular un fallo a mitad de transacción
	ErrCrearPago error
}

func New() *Store {
	return &Store{d: datos{
		pacientes:     map[int]models.Paciente{},
		medicamentos:  map[int]models.Medicamento{},
		usuarios:      map[int]models.Usuario{},
		atenciones:    map[int]models.Atencion{},
		detalles:      map[int]models.DetalleAtencion{},
		examenes:      map[int]models.ExamenSolicitado{},
		costos:        map[int]models.CostosAtencion{},
		servicios:     map[int]models.ServicioAdicional{},
		pagos:         map[int]models.Pago{},
		transacciones: map[string]models.TransaccionPasarela{},
		citas:         map[int]models.CitaMedica{},
	}}
}

func (s *Store) next() int {
	s.seq++
	return s.seq
}

// AgregarPaciente carga un paciente de referencia y retorna su ID
func (s *Store) AgregarPaciente(p models.Paciente) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.next()
	}
	s.d.pacientes[p.ID] = p
	return p.ID
}

// AgregarMedicamento carga un medicamento de referencia y retorna su ID
func (s *Store) AgregarMedicamento(m models.Medicamento) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.next()
	}
	s.d.medicamentos[m.ID] = m
	return m.ID
}

func (s *Store) PacientePorID(_ context.Context, id int) (*models.Paciente, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.d.pacientes[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &p, nil
}

func (s *Store) MedicamentoPorID(_ context.Context, id int) (*models.Medicamento, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.d.medicamentos[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &m, nil
}

// Atenciones

func (s *Store) AtencionPorID(_ context.Context, id int) (*models.Atencion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.d.atenciones[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &a, nil
}

func (s *Store) ListarAtenciones(_ context.Context, pacienteID int) ([]*models.Atencion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Atencion
	for _, a := range s.d.atenciones {
		if pacienteID == 0 || a.PacienteID == pacienteID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FechaAtencion.Equal(out[j].FechaAtencion) {
			return out[i].FechaAtencion.After(out[j].FechaAtencion)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CrearAtencion(_ context.Context, a *models.Atencion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.pacientes[a.PacienteID]; !ok {
		return models.ErrEnUso
	}
	a.ID = s.next()
	s.d.atenciones[a.ID] = *a
	return nil
}

func (s *Store) ActualizarAtencion(_ context.Context, a *models.Atencion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.atenciones[a.ID]; !ok {
		return models.ErrNoEncontrado
	}
	s.d.atenciones[a.ID] = *a
	return nil
}

// Detalles

func (s *Store) DetallePorID(_ context.Context, id int) (*models.DetalleAtencion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.d.detalles[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	d.PrecioUnitario = s.d.medicamentos[d.MedicamentoID].Precio
	return &d, nil
}

func (s *Store) DetallesPorAtencion(_ context.Context, atencionID int) ([]*models.DetalleAtencion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.DetalleAtencion
	for _, d := range s.d.detalles {
		if d.AtencionID == atencionID {
			d := d
			d.PrecioUnitario = s.d.medicamentos[d.MedicamentoID].Precio
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CrearDetalle(_ context.Context, d *models.DetalleAtencion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.next()
	s.d.detalles[d.ID] = *d
	return nil
}

func (s *Store) EliminarDetalle(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.detalles[id]; !ok {
		return models.ErrNoEncontrado
	}
	delete(s.d.detalles, id)
	return nil
}

// Exámenes

func (s *Store) ExamenPorID(_ context.Context, id int) (*models.ExamenSolicitado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.d.examenes[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &e, nil
}

func (s *Store) ExamenesPorAtencion(_ context.Context, atencionID int) ([]*models.ExamenSolicitado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := map[int]bool{}
	for _, e := range s.d.examenes {
		if e.AtencionID != nil && *e.AtencionID == atencionID {
			ids[e.ID] = true
		}
	}
	for _, d := range s.d.detalles {
		if d.AtencionID == atencionID && d.ExamenSolicitadoID != nil {
			ids[*d.ExamenSolicitadoID] = true
		}
	}
	var out []*models.ExamenSolicitado
	for id := range ids {
		if e, ok := s.d.examenes[id]; ok {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListarExamenes(_ context.Context, pacienteID int, estado string) ([]*models.ExamenSolicitado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ExamenSolicitado
	for _, e := range s.d.examenes {
		if (pacienteID == 0 || e.PacienteID == pacienteID) && (estado == "" || e.Estado == estado) {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CrearExamen(_ context.Context, e *models.ExamenSolicitado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.next()
	s.d.examenes[e.ID] = *e
	return nil
}

func (s *Store) ActualizarExamen(_ context.Context, e *models.ExamenSolicitado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.examenes[e.ID]; !ok {
		return models.ErrNoEncontrado
	}
	s.d.examenes[e.ID] = *e
	return nil
}

func (s *Store) EliminarExamen(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.examenes[id]; !ok {
		return models.ErrNoEncontrado
	}
	for _, d := range s.d.detalles {
		if d.ExamenSolicitadoID != nil && *d.ExamenSolicitadoID == id {
			return models.ErrEnUso
		}
	}
	delete(s.d.examenes, id)
	return nil
}

// Costos

func (s *Store) CostoPorID(_ context.Context, id int) (*models.CostosAtencion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.costos[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &c, nil
}

func (s *Store) CostoPorAtencion(_ context.Context, atencionID int) (*models.CostosAtencion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.d.costos {
		if c.AtencionID == atencionID {
			return &c, nil
		}
	}
	return nil, models.ErrNoEncontrado
}

func (s *Store) ListarCostos(_ context.Context, pacienteID int) ([]*models.CostosAtencion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CostosAtencion
	for _, c := range s.d.costos {
		if pacienteID == 0 || s.d.atenciones[c.AtencionID].PacienteID == pacienteID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CrearCosto(_ context.Context, c *models.CostosAtencion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existente := range s.d.costos {
		if existente.AtencionID == c.AtencionID {
			return models.ErrDuplicado
		}
	}
	c.ID = s.next()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.d.costos[c.ID] = *c
	return nil
}

func (s *Store) ActualizarCosto(_ context.Context, c *models.CostosAtencion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.costos[c.ID]; !ok {
		return models.ErrNoEncontrado
	}
	c.UpdatedAt = time.Now()
	s.d.costos[c.ID] = *c
	return nil
}

// BloquearCosto no bloquea nada: EnTransaccion ya serializa las transacciones
func (s *Store) BloquearCosto(ctx context.Context, id int) (*models.CostosAtencion, error) {
	return s.CostoPorID(ctx, id)
}

func (s *Store) MarcarCostoPagado(_ context.Context, id int, total decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.costos[id]
	if !ok {
		return models.ErrNoEncontrado
	}
	c.Pagado = true
	c.Total = total
	c.UpdatedAt = time.Now()
	s.d.costos[id] = c
	return nil
}

// Servicios adicionales

func (s *Store) ServicioPorID(_ context.Context, id int) (*models.ServicioAdicional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	srv, ok := s.d.servicios[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &srv, nil
}

func (s *Store) ServiciosPorCosto(_ context.Context, costoID int) ([]*models.ServicioAdicional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ServicioAdicional
	for _, srv := range s.d.servicios {
		if srv.CostoAtencionID == costoID {
			srv := srv
			out = append(out, &srv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CrearServicio(_ context.Context, srv *models.ServicioAdicional) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.costos[srv.CostoAtencionID]; !ok {
		return models.ErrEnUso
	}
	srv.ID = s.next()
	s.d.servicios[srv.ID] = *srv
	return nil
}

func (s *Store) EliminarServicio(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.servicios[id]; !ok {
		return models.ErrNoEncontrado
	}
	delete(s.d.servicios, id)
	return nil
}

// Pagos

func (s *Store) PagoPorID(_ context.Context, id int) (*models.Pago, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.d.pagos[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &p, nil
}

func (s *Store) ListarPagos(_ context.Context, pacienteID int) ([]*models.Pago, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Pago
	for _, p := range s.d.pagos {
		if pacienteID == 0 || p.PacienteID == pacienteID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ExistePagoPagado(_ context.Context, pacienteID, costoID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.d.pagos {
		if p.PacienteID == pacienteID && p.CostoAtencionID == costoID && p.Pagado {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) PacienteTienePagos(_ context.Context, pacienteID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.d.pagos {
		if p.PacienteID == pacienteID && p.Pagado {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CrearPago(_ context.Context, p *models.Pago) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrCrearPago != nil {
		return s.ErrCrearPago
	}
	for _, existente := range s.d.pagos {
		if existente.CostoAtencionID == p.CostoAtencionID {
			return models.ErrDuplicado
		}
	}
	p.ID = s.next()
	s.d.pagos[p.ID] = *p
	return nil
}

// Transacciones con la pasarela

func (s *Store) CrearTransaccion(_ context.Context, t *models.TransaccionPasarela) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.transacciones[t.Token]; ok {
		return models.ErrDuplicado
	}
	t.ID = s.next()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.d.transacciones[t.Token] = *t
	return nil
}

func (s *Store) TransaccionPorToken(_ context.Context, token string) (*models.TransaccionPasarela, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.d.transacciones[token]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &t, nil
}

func (s *Store) CambiarEstadoTransaccion(_ context.Context, token, desde, hacia string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.d.transacciones[token]
	if !ok || t.Estado != desde {
		return false, nil
	}
	t.Estado = hacia
	t.UpdatedAt = time.Now()
	s.d.transacciones[token] = t
	return true, nil
}

func (s *Store) TransaccionEnProceso(_ context.Context, costoID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.d.transacciones {
		if t.CostoAtencionID == costoID && t.Estado == models.TransaccionProcesando {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CancelarTransaccionesPendientes(_ context.Context, costoID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, t := range s.d.transacciones {
		if t.CostoAtencionID == costoID && t.Estado == models.TransaccionPendiente {
			t.Estado = models.TransaccionCancelada
			t.UpdatedAt = time.Now()
			s.d.transacciones[token] = t
			n++
		}
	}
	return n, nil
}

// Citas

func (s *Store) CitaPorID(_ context.Context, id int) (*models.CitaMedica, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.citas[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &c, nil
}

func (s *Store) ListarCitas(_ context.Context, fecha *time.Time) ([]*models.CitaMedica, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CitaMedica
	for _, c := range s.d.citas {
		if fecha == nil || mismoDia(c.Fecha, *fecha) {
			c := c
			out = append(out, &c)
		}
	}
	ordenarCitas(out)
	return out, nil
}

func (s *Store) CitasPorFecha(_ context.Context, fecha time.Time, estado string) ([]*models.CitaMedica, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CitaMedica
	for _, c := range s.d.citas {
		if mismoDia(c.Fecha, fecha) && c.Estado == estado {
			c := c
			out = append(out, &c)
		}
	}
	ordenarCitas(out)
	return out, nil
}

func (s *Store) CrearCita(_ context.Context, c *models.CitaMedica) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.next()
	s.d.citas[c.ID] = *c
	return nil
}

func (s *Store) ActualizarCita(_ context.Context, c *models.CitaMedica) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.citas[c.ID]; !ok {
		return models.ErrNoEncontrado
	}
	s.d.citas[c.ID] = *c
	return nil
}

func (s *Store) EliminarCita(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.citas[id]; !ok {
		return models.ErrNoEncontrado
	}
	delete(s.d.citas, id)
	return nil
}

func mismoDia(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

func ordenarCitas(citas []*models.CitaMedica) {
	sort.Slice(citas, func(i, j int) bool {
		if !citas[i].Fecha.Equal(citas[j].Fecha) {
			return citas[i].Fecha.Before(citas[j].Fecha)
		}
		return citas[i].HoraCita < citas[j].HoraCita
	})
}

// Usuarios

// AgregarUsuario carga un usuario y retorna su ID
func (s *Store) AgregarUsuario(u models.Usuario) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.IDUsuario == 0 {
		u.IDUsuario = s.next()
	}
	s.d.usuarios[u.IDUsuario] = u
	return u.IDUsuario
}

func (s *Store) UsuarioPorEmail(_ context.Context, email string) (*models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.d.usuarios {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNoEncontrado
}

func (s *Store) UsuarioPorID(_ context.Context, id int) (*models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.d.usuarios[id]
	if !ok {
		return nil, models.ErrNoEncontrado
	}
	return &u, nil
}

func (s *Store) ActualizarMFA(_ context.Context, id int, secret string, habilitado bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.d.usuarios[id]
	if !ok {
		return models.ErrNoEncontrado
	}
	u.MFASecret = secret
	u.MFAEnabled = habilitado
	s.d.usuarios[id] = u
	return nil
}

// EnTransaccion serializa las transacciones y deshace sus cambios si fn retorna error
func (s *Store) EnTransaccion(_ context.Context, fn func(billing.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	respaldo := s.d.clonar()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.d = respaldo
		s.mu.Unlock()
		return err
	}
	return nil
}

func (d datos) clonar() datos {
	return datos{
		pacientes:     copiar(d.pacientes),
		medicamentos:  copiar(d.medicamentos),
		usuarios:      copiar(d.usuarios),
		atenciones:    copiar(d.atenciones),
		detalles:      copiar(d.detalles),
		examenes:      copiar(d.examenes),
		costos:        copiar(d.costos),
		servicios:     copiar(d.servicios),
		pagos:         copiar(d.pagos),
		transacciones: copiar(d.transacciones),
		citas:         copiar(d.citas),
	}
}

func copiar[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
