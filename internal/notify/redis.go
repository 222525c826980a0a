package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/pkg/redis"
)

// RedisBus publishes progress events on a Redis channel and forwards events
// published by any instance to a local handler (usually Hub.Deliver)
type RedisBus struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

// NewRedisBus creates a bus over client; client must be enabled
func NewRedisBus(client *redis.Client, channel string, log zerolog.Logger) (*RedisBus, error) {
	if client == nil || !client.Enabled() {
		return nil, fmt.Errorf("redis bus requires an enabled redis client")
	}
	if channel == "" {
		channel = "symptrack:progress"
	}
	return &RedisBus{
		client:  client,
		channel: channel,
		log:     log.With().Str("component", "notify.redis").Logger(),
	}, nil
}

// Notify implements contracts.ProgressNotifier
func (b *RedisBus) Notify(ctx context.Context, event contracts.ProgressEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}
	if err := b.client.Redis().Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish progress event: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the channel and calls onEvent for every
// message until ctx is done
func (b *RedisBus) StartForwarder(ctx context.Context, onEvent func(contracts.ProgressEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.client.Redis().Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var event contracts.ProgressEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					b.log.Warn().Err(err).Msg("bad progress event payload")
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}
