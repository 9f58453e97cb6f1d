package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/timebill-api/internal/domain"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// Handler procesa un tipo de trabajo. Handle debe ser idempotente: un reintento
// vuelve a derivar el mismo resultado. OnExhausted corre una sola vez, cuando el
// trabajo pasa a dead.
type Handler interface {
	Handle(ctx context.Context, job *entity.DocumentJob) error
	OnExhausted(ctx context.Context, job *entity.DocumentJob, cause error) error
}

// ProcessorConfig parámetros del pool de workers.
type ProcessorConfig struct {
	Concurrency       int
	PollInterval      time.Duration
	BaseBackoff       time.Duration
	VisibilityTimeout time.Duration
}

// DefaultProcessorConfig valores por defecto.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Concurrency:       4,
		PollInterval:      time.Second,
		BaseBackoff:       entity.DefaultJobBaseBackoff,
		VisibilityTimeout: 5 * time.Minute,
	}
}

// Processor consume la cola durable con un número acotado de workers y despacha por tipo.
type Processor struct {
	jobs     repository.JobRepository
	handlers map[entity.JobType]Handler
	cfg      ProcessorConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewProcessor construye el procesador. Los valores de cfg en cero toman el valor por defecto.
func NewProcessor(jobs repository.JobRepository, cfg ProcessorConfig, log *logger.Logger) *Processor {
	def := DefaultProcessorConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = def.VisibilityTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{
		jobs:     jobs,
		handlers: map[entity.JobType]Handler{},
		cfg:      cfg,
		log:      log.Component("processor"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas).
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Register asocia un handler a un tipo de trabajo.
func (p *Processor) Register(t entity.JobType, h Handler) {
	p.handlers[t] = h
}

// Run arranca Concurrency workers y bloquea hasta que ctx se cancela.
func (p *Processor) Run(ctx context.Context) error {
	p.log.Info().Int("concurrency", p.cfg.Concurrency).Dur("poll_interval", p.cfg.PollInterval).Msg("procesador de documentos iniciado")
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Concurrency; i++ {
		worker := i
		g.Go(func() error {
			p.loop(ctx, worker)
			return nil
		})
	}
	err := g.Wait()
	p.log.Info().Msg("procesador de documentos detenido")
	return err
}

func (p *Processor) loop(ctx context.Context, worker int) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		n, err := p.ProcessOnce(ctx, 1)
		if err != nil && ctx.Err() == nil {
			p.log.Error().Err(err).Int("worker", worker).Msg("no se pudo reclamar trabajo")
		}
		if n > 0 {
			timer.Reset(0)
			continue
		}
		timer.Reset(p.cfg.PollInterval)
	}
}

// ProcessOnce reclama hasta limit trabajos listos y los procesa en serie. Devuelve cuántos procesó.
func (p *Processor) ProcessOnce(ctx context.Context, limit int) (int, error) {
	now := p.now().UTC()
	claimed, err := p.jobs.Claim(ctx, now, now.Add(-p.cfg.VisibilityTimeout), limit)
	if err != nil {
		return 0, err
	}
	for _, job := range claimed {
		p.process(ctx, job)
	}
	return len(claimed), nil
}

// Drain procesa hasta que no quedan trabajos listos (pruebas y ejecución puntual).
func (p *Processor) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := p.ProcessOnce(ctx, 10)
		total += n
		if err != nil || n == 0 {
			return total, err
		}
	}
}

func (p *Processor) process(ctx context.Context, job *entity.DocumentJob) {
	log := p.log.Zerolog().With().
		Str("job_id", job.ID).
		Str("job_type", string(job.Type)).
		Str("invoice_id", job.InvoiceID).
		Int("attempt", job.Attempts).
		Logger()

	h, ok := p.handlers[job.Type]
	if !ok {
		log.Error().Msg("tipo de trabajo sin handler")
		if err := p.jobs.Dead(ctx, job.ID, "tipo de trabajo desconocido", p.now().UTC()); err != nil {
			log.Error().Err(err).Msg("no se pudo marcar el trabajo como dead")
		}
		return
	}

	err := p.safeHandle(ctx, h, job)
	if err == nil {
		if err := p.jobs.Complete(ctx, job.ID, p.now().UTC()); err != nil {
			log.Error().Err(err).Msg("no se pudo completar el trabajo")
			return
		}
		log.Info().Msg("trabajo completado")
		return
	}

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// apagado: el trabajo queda en processing y se recupera tras el visibility timeout
		log.Warn().Err(err).Msg("trabajo interrumpido")
		return
	}

	if domain.IsPermanent(err) || job.Exhausted() {
		log.Error().Err(err).Bool("permanent", domain.IsPermanent(err)).Msg("trabajo fallido sin más reintentos")
		if derr := p.jobs.Dead(ctx, job.ID, err.Error(), p.now().UTC()); derr != nil {
			log.Error().Err(derr).Msg("no se pudo marcar el trabajo como dead")
			return
		}
		if herr := h.OnExhausted(ctx, job, err); herr != nil {
			log.Error().Err(herr).Msg("fallo al registrar el estado terminal")
		}
		return
	}

	runAt := p.now().UTC().Add(entity.Backoff(p.cfg.BaseBackoff, job.Attempts))
	log.Warn().Err(err).Time("run_at", runAt).Msg("trabajo fallido, se reintentará")
	if rerr := p.jobs.Retry(ctx, job.ID, err.Error(), runAt); rerr != nil {
		log.Error().Err(rerr).Msg("no se pudo reprogramar el trabajo")
	}
}

func (p *Processor) safeHandle(ctx context.Context, h Handler, job *entity.DocumentJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic en handler: %v", r)
		}
	}()
	return h.Handle(ctx, job)
}
