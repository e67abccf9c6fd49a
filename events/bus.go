package events

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Topics published by the pipeline.
const (
	TopicAlertCreated      = "alerts.created"
	TopicAlertAcknowledged = "alerts.acknowledged"
	TopicAlertEscalated    = "alerts.escalated"
)

// RedisBus publishes pipeline facts over Redis pub/sub. Publication is
// fire-and-forget: subscribers are asynchronous responders and the alert
// record stays the source of truth.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload interface{}) {
	if b.client == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("Failed to encode event for topic %s: %v", topic, err)
		return
	}

	if err := b.client.Publish(ctx, topic, data).Err(); err != nil {
		logrus.Warnf("Failed to publish event on topic %s: %v", topic, err)
	}
}

// Subscribe returns a channel of raw payloads for a topic. Used by
// out-of-process responders; the core pipeline never blocks on it.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) <-chan string {
	out := make(chan string)

	sub := b.client.Subscribe(ctx, topic)
	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				out <- msg.Payload
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
