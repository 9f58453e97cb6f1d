package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/timebill-api/internal/application/documents"
	"github.com/jhoicas/timebill-api/pkg/logger"
)

const channelPrefix = "notify:"

// ChannelFor canal Pub/Sub del owner.
func ChannelFor(ownerID string) string { return channelPrefix + ownerID }

// RedisPublisher publica avisos en Redis para que el proceso API los reenvíe a sus sesiones.
// Lo usa el worker, que no tiene conexiones WebSocket propias.
type RedisPublisher struct {
	client *redis.Client
	log    *logger.Logger
	now    func() time.Time
}

func NewRedisPublisher(client *redis.Client, log *logger.Logger) *RedisPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisPublisher{client: client, log: log.Component("notify"), now: time.Now}
}

func (p *RedisPublisher) Notify(ctx context.Context, ownerID, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: payload: %w", err)
	}
	data, err := json.Marshal(Message{Event: event, Payload: raw, At: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("notify: mensaje: %w", err)
	}
	if err := p.client.Publish(ctx, ChannelFor(ownerID), data).Err(); err != nil {
		p.log.Error().Err(err).Str("owner_id", ownerID).Str("event", event).Msg("error publicando aviso")
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

// RedisRelay escucha notify:* y entrega cada aviso al Hub local.
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	log    *logger.Logger
}

func NewRedisRelay(client *redis.Client, hub *Hub, log *logger.Logger) *RedisRelay {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisRelay{client: client, hub: hub, log: log.Component("notify")}
}

// Run bloquea hasta que ctx se cancela. ready (opcional) se cierra tras confirmar la suscripción.
func (r *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("notify: suscripción: %w", err)
	}
	if ready != nil {
		close(ready)
	}
	r.log.Info().Str("pattern", channelPrefix+"*").Msg("relay de avisos suscrito")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("aviso ilegible")
				continue
			}
			r.hub.Deliver(strings.TrimPrefix(msg.Channel, channelPrefix), m)
		}
	}
}

var _ documents.Notifier = (*RedisPublisher)(nil)
