package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/internal/infrastructure/notify"
)

func receive(t *testing.T, sub *notify.Subscription) notify.Message {
	t.Helper()
	select {
	case m := <-sub.C:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no llegó el aviso")
		return notify.Message{}
	}
}

func TestHub_DeliversOnlyToOwnerRoom(t *testing.T) {
	hub := notify.NewHub(4, nil)
	a1 := hub.Subscribe("owner-a")
	a2 := hub.Subscribe("owner-a")
	b := hub.Subscribe("owner-b")
	defer a1.Close()
	defer a2.Close()
	defer b.Close()

	require.NoError(t, hub.Notify(context.Background(), "owner-a", documents.EventPdfReady, documents.Notification{InvoiceID: "inv-1"}))

	for _, s := range []*notify.Subscription{a1, a2} {
		m := receive(t, s)
		assert.Equal(t, documents.EventPdfReady, m.Event)
		var n documents.Notification
		require.NoError(t, json.Unmarshal(m.Payload, &n))
		assert.Equal(t, "inv-1", n.InvoiceID)
	}
	assert.Empty(t, b.C)
}

func TestHub_DropsWhenSessionIsSlow(t *testing.T) {
	hub := notify.NewHub(1, nil)
	sub := hub.Subscribe("owner-a")
	defer sub.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Notify(context.Background(), "owner-a", documents.EventEmailSent, nil))
	}
	assert.Len(t, sub.C, 1)
	assert.Equal(t, int64(2), hub.Dropped())
}

func TestHub_CloseRemovesSession(t *testing.T) {
	hub := notify.NewHub(1, nil)
	sub := hub.Subscribe("owner-a")
	assert.Equal(t, 1, hub.Sessions("owner-a"))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Sessions("owner-a"))
	_, ok := <-sub.C
	assert.False(t, ok)

	require.NoError(t, hub.Notify(context.Background(), "owner-a", documents.EventPdfFailed, nil))
}

func TestRedisRelay_ForwardsPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := notify.NewHub(4, nil)
	sub := hub.Subscribe("owner-a")
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- notify.NewRedisRelay(client, hub, nil).Run(ctx, ready) }()
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("relay no se suscribió")
	}

	pub := notify.NewRedisPublisher(client, nil)
	require.NoError(t, pub.Notify(ctx, "owner-a", documents.EventPdfReady, documents.Notification{InvoiceID: "inv-9"}))

	m := receive(t, sub)
	assert.Equal(t, documents.EventPdfReady, m.Event)
	assert.JSONEq(t, `{"invoice_id":"inv-9"}`, string(m.Payload))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("relay no terminó")
	}
}
