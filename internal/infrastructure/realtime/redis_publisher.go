// Package realtime publica eventos de notificación en canales Redis por sala de usuario.
// El gateway WebSocket (fuera de este servicio) se suscribe a "user:<id>" y reenvía.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Convenios-api/internal/application/ports"
	"github.com/jhoicas/Convenios-api/pkg/config"
)

var _ ports.RealtimePublisher = (*RedisPublisher)(nil)

// Message sobre publicado en el canal de la sala.
type Message struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// NewRedisClient crea el cliente y verifica la conexión con un ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisPublisher implementa ports.RealtimePublisher con PUBLISH.
type RedisPublisher struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisPublisher construye el publicador sobre un cliente ya conectado.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, now: time.Now}
}

// Publish serializa el evento y lo publica en el canal room. No espera suscriptores.
func (p *RedisPublisher) Publish(ctx context.Context, room, event string, payload any) error {
	raw, err := json.Marshal(Message{Event: event, Payload: payload, SentAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("realtime: serializar evento: %w", err)
	}
	if err := p.rdb.Publish(ctx, room, raw).Err(); err != nil {
		return fmt.Errorf("realtime: publicar en %s: %w", room, err)
	}
	return nil
}
