package events

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/redis/go-redis/v9"
)

// RedisStreamWriter appends events to a Redis stream named after the topic
// unless a fixed stream is configured.
type RedisStreamWriter struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamWriter(client *redis.Client, stream string, maxLen int64) *RedisStreamWriter {
	return &RedisStreamWriter{client: client, stream: stream, maxLen: maxLen}
}

func (w *RedisStreamWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	stream := w.stream
	if stream == "" {
		stream = topic
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"id":      e.ID(),
			"type":    e.Type(),
			"source":  e.Source(),
			"subject": e.Subject(),
			"time":    e.Time().UTC().Format("2006-01-02T15:04:05.000000Z07:00"),
			"data":    string(e.Data()),
		},
	}
	if w.maxLen > 0 {
		args.MaxLen = w.maxLen
		args.Approx = true
	}
	if err := w.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}

func (w *RedisStreamWriter) Close(_ context.Context) error {
	return w.client.Close()
}
