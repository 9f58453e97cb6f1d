// Package memory implementa los puertos de persistencia en memoria.
// Cada transacción trabaja sobre una copia del estado y la publica al confirmar,
// con un único mutex para todo el store: las transacciones quedan serializadas.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
)

type state struct {
	entries  map[string]*entity.TimeEntry
	invoices map[string]*entity.Invoice
	items    map[string][]entity.InvoiceItem
	payments map[string][]entity.Payment
	clients  map[string]*entity.Client
	projects map[string]*entity.Project
	jobs     map[string]*entity.DocumentJob
}

func newState() *state {
	return &state{
		entries:  map[string]*entity.TimeEntry{},
		invoices: map[string]*entity.Invoice{},
		items:    map[string][]entity.InvoiceItem{},
		payments: map[string][]entity.Payment{},
		clients:  map[string]*entity.Client{},
		projects: map[string]*entity.Project{},
		jobs:     map[string]*entity.DocumentJob{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.entries {
		e := *v
		c.entries[k] = &e
	}
	for k, v := range s.invoices {
		i := *v
		c.invoices[k] = &i
	}
	for k, v := range s.items {
		c.items[k] = append([]entity.InvoiceItem(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = append([]entity.Payment(nil), v...)
	}
	for k, v := range s.clients {
		cl := *v
		c.clients[k] = &cl
	}
	for k, v := range s.projects {
		p := *v
		c.projects[k] = &p
	}
	for k, v := range s.jobs {
		j := *v
		c.jobs[k] = &j
	}
	return c
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// view acceso a un estado con la política de bloqueo correspondiente:
// el mutex del store fuera de transacción, ninguno dentro (ya está tomado).
type view struct {
	state func() *state
	mu    sync.Locker
	now   func() time.Time
}

// Store ledger store en memoria.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

// Run implementa repository.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	v := &view{state: func() *state { return work }, mu: noopLocker{}, now: s.now}
	if err := fn(reposFor(v)); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repositories repositorios fuera de transacción (cada operación se confirma sola).
func (s *Store) Repositories() repository.Repositories {
	return reposFor(s.autocommit())
}

// Stats repositorio de estadísticas.
func (s *Store) Stats() repository.StatsRepository {
	return &statsRepo{v: s.autocommit()}
}

// autocommit resuelve s.st en cada operación: Run puede haberlo reemplazado.
func (s *Store) autocommit() *view {
	return &view{state: func() *state { return s.st }, mu: &s.mu, now: s.now}
}

func reposFor(v *view) repository.Repositories {
	return repository.Repositories{
		TimeEntries: &timeEntryRepo{v: v},
		Invoices:    &invoiceRepo{v: v},
		Payments:    &paymentRepo{v: v},
		Clients:     &clientRepo{v: v},
		Projects:    &projectRepo{v: v},
		Jobs:        &jobRepo{v: v},
	}
}

// SeedClient registra un cliente (el CRUD de clientes es externo a este servicio).
func (s *Store) SeedClient(c entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.clients[c.ID] = &c
}

// SeedProject registra un proyecto.
func (s *Store) SeedProject(p entity.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.projects[p.ID] = &p
}

// SeedTimeEntry registra un registro de tiempo tal cual (entradas manuales, pruebas).
func (s *Store) SeedTimeEntry(e entity.TimeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.entries[e.ID] = &e
}

var _ repository.TxRunner = (*Store)(nil)
