package bootstrap_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timebill-api/internal/bootstrap"
	"github.com/jhoicas/timebill-api/internal/infrastructure/cache"
	"github.com/jhoicas/timebill-api/internal/infrastructure/memory"
	"github.com/jhoicas/timebill-api/internal/infrastructure/notify"
	"github.com/jhoicas/timebill-api/pkg/config"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "timebill", Store: "memory"},
		HTTP:    config.HTTPConfig{Port: 8080},
		Timer:   config.TimerConfig{CacheTTL: time.Hour},
		Storage: config.StorageConfig{SignedURLTTL: time.Minute},
		Worker:  config.WorkerConfig{MaxAttempts: 3},
		Billing: config.BillingConfig{InvoicePrefix: "INV", DefaultCurrency: "USD"},
	}
}

func TestOpen_MemoryStore(t *testing.T) {
	in, err := bootstrap.Open(context.Background(), memoryConfig(), logger.Nop())
	require.NoError(t, err)
	defer in.Close()

	assert.True(t, in.Memory())
	assert.Nil(t, in.Redis)
	require.NotNil(t, in.MemoryObjects)
	assert.IsType(t, &cache.InMemoryTimerCache{}, in.TimerCache)

	proc, err := in.Processor(notify.NewHub(0, nil))
	require.NoError(t, err)
	n, err := proc.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg := memoryConfig()
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: port}

	in, err := bootstrap.Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer in.Close()

	require.NotNil(t, in.Redis)
	assert.IsType(t, &cache.RedisTimerCache{}, in.TimerCache)
}

func TestRunOverdueSweep_StopsOnCancel(t *testing.T) {
	in := bootstrap.NewMemory(memoryConfig(), memory.NewStore(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bootstrap.RunOverdueSweep(ctx, in.Invoices(), 10*time.Millisecond, logger.Nop())
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el barrido no se detuvo")
	}
}
