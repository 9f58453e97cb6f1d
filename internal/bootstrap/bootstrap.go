// Package bootstrap arma la infraestructura compartida por los binarios (api, worker, billingctl)
// a partir de la configuración: store, caché del temporizador, almacenamiento y Redis.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/timebill-api/internal/application/billing"
	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/internal/application/timer"
	"github.com/jhoicas/timebill-api/internal/domain/entity"
	"github.com/jhoicas/timebill-api/internal/domain/repository"
	"github.com/jhoicas/timebill-api/internal/infrastructure/cache"
	"github.com/jhoicas/timebill-api/internal/infrastructure/mail"
	"github.com/jhoicas/timebill-api/internal/infrastructure/memory"
	"github.com/jhoicas/timebill-api/internal/infrastructure/pdf"
	"github.com/jhoicas/timebill-api/internal/infrastructure/postgres"
	"github.com/jhoicas/timebill-api/internal/infrastructure/storage"
	"github.com/jhoicas/timebill-api/pkg/config"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

// Infra dependencias de infraestructura ya conectadas.
type Infra struct {
	Tx         repository.TxRunner
	Repos      repository.Repositories
	Stats      repository.StatsRepository
	TimerCache timer.Cache
	Objects    documents.ObjectStore
	Redis      *redis.Client // nil sin REDIS_HOST

	// Solo en modo memoria, para servir los enlaces firmados desde la API.
	MemoryObjects *storage.MemoryStore

	cfg     *config.Config
	log     *logger.Logger
	pool    *pgxpool.Pool
	closers []func()
}

// Open conecta el store elegido por APP_STORE, Redis (si hay host) y el almacenamiento de objetos.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Infra, error) {
	in := &Infra{cfg: cfg, log: log}

	switch cfg.App.Store {
	case "memory":
		in = NewMemory(cfg, memory.NewStore(), log)
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		in.pool = pool
		in.closers = append(in.closers, pool.Close)
		in.Tx = postgres.NewTxRunner(pool, log)
		in.Repos = postgres.NewRepositories(pool)
		in.Stats = postgres.NewStatsRepository(pool)
	}

	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		in.Redis = client
		in.closers = append(in.closers, func() { _ = client.Close() })
		in.TimerCache = cache.NewRedisTimerCache(client, cfg.Timer.CacheTTL)
	} else if in.TimerCache == nil {
		in.TimerCache = cache.NewInMemoryTimerCache(cfg.Timer.CacheTTL)
	}

	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3Store(ctx, cfg.Storage, log)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("almacenamiento S3: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("no se pudo verificar el bucket")
		}
		in.Objects = s3
		in.MemoryObjects = nil
	} else if in.Objects == nil {
		in.MemoryObjects = storage.NewMemoryStore(fmt.Sprintf("http://localhost:%d/files", cfg.HTTP.Port))
		in.Objects = in.MemoryObjects
	}
	return in, nil
}

// NewMemory infraestructura completamente en proceso sobre store: caché, almacenamiento y cola locales.
func NewMemory(cfg *config.Config, store *memory.Store, log *logger.Logger) *Infra {
	if log == nil {
		log = logger.Nop()
	}
	objects := storage.NewMemoryStore(fmt.Sprintf("http://localhost:%d/files", cfg.HTTP.Port))
	return &Infra{
		Tx:            store,
		Repos:         store.Repositories(),
		Stats:         store.Stats(),
		TimerCache:    cache.NewInMemoryTimerCache(cfg.Timer.CacheTTL),
		Objects:       objects,
		MemoryObjects: objects,
		cfg:           cfg,
		log:           log,
	}
}

// Memory indica si los datos viven en el proceso (sin durabilidad ni cola compartida).
func (in *Infra) Memory() bool { return in.pool == nil }

// Close libera conexiones en orden inverso.
func (in *Infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}

// Invoices caso de uso de facturación con la configuración de numeración.
func (in *Infra) Invoices() *billing.InvoiceUseCase {
	return billing.NewInvoiceUseCase(in.Tx, in.Repos.Invoices, in.Repos.Payments, billing.Config{
		InvoicePrefix:   in.cfg.Billing.InvoicePrefix,
		DefaultCurrency: in.cfg.Billing.DefaultCurrency,
	}, in.log)
}

// Timers caso de uso del temporizador.
func (in *Infra) Timers() *timer.UseCase {
	return timer.NewUseCase(in.Tx, in.Repos.TimeEntries, in.TimerCache, in.log)
}

// Enqueue caso de uso que encola trabajos documentales.
func (in *Infra) Enqueue() *documents.EnqueueUseCase {
	return documents.NewEnqueueUseCase(in.Tx, in.Repos.Invoices, in.Objects, documents.EnqueueConfig{
		MaxAttempts:  in.cfg.Worker.MaxAttempts,
		SignedURLTTL: in.cfg.Storage.SignedURLTTL,
	}, in.log)
}

// Processor procesador de la cola con los handlers de PDF y correo registrados.
// Sin SMTP_HOST los correos solo se registran en el log.
func (in *Infra) Processor(notifier documents.Notifier) (*documents.Processor, error) {
	composer, err := mail.NewTemplateComposer()
	if err != nil {
		return nil, fmt.Errorf("plantillas de correo: %w", err)
	}
	var mailer documents.Mailer
	if in.cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(in.cfg.SMTP, in.log)
	} else {
		mailer = mail.NewLogMailer(in.log)
	}

	loader := documents.NewSnapshotLoader(in.Repos.Invoices, in.Repos.Clients, in.Repos.Payments)
	renderer := pdf.NewInvoiceRenderer(in.cfg.App.Name)

	proc := documents.NewProcessor(in.Repos.Jobs, documents.ProcessorConfig{
		Concurrency:       in.cfg.Worker.Concurrency,
		PollInterval:      in.cfg.Worker.PollInterval,
		BaseBackoff:       in.cfg.Worker.BaseBackoff,
		VisibilityTimeout: in.cfg.Worker.VisibilityTimeout,
	}, in.log)
	proc.Register(entity.JobRenderPDF, documents.NewPDFJobHandler(loader, in.Repos.Invoices, renderer, in.Objects, notifier, in.log))
	proc.Register(entity.JobSendEmail, documents.NewEmailJobHandler(loader, in.Repos.Invoices, in.Objects, mailer, composer, notifier, in.cfg.Storage.SignedURLTTL, in.log))
	return proc, nil
}

// RunOverdueSweep marca facturas vencidas cada interval hasta que ctx se cancele.
func RunOverdueSweep(ctx context.Context, uc *billing.InvoiceUseCase, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	l := log.Component("overdue")
	sweep := func() {
		n, err := uc.MarkOverdue(ctx, time.Now())
		if err != nil {
			if ctx.Err() == nil {
				l.Error().Err(err).Msg("barrido de vencidas")
			}
			return
		}
		if n > 0 {
			l.Info().Int("marked", n).Msg("facturas marcadas como vencidas")
		}
	}
	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
