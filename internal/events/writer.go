package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/careerlink/portal-engine/internal/config"
)

// NewWriter builds the writer selected by cfg.Service.Events.Writer.
func NewWriter(ctx context.Context, cfg *config.Config) (Writer, error) {
	svc := cfg.Service
	switch svc.Events.Writer {
	case "", "stdout":
		return &StdoutWriter{}, nil
	case "none":
		return NoopWriter{}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     svc.Redis.Address,
			Password: svc.Redis.Password,
			DB:       svc.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis %s: %w", svc.Redis.Address, err)
		}
		return NewRedisStreamWriter(client, svc.Redis.Stream, svc.Redis.MaxLen), nil
	case "kafka":
		if len(svc.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("kafka writer needs at least one broker")
		}
		return NewKafkaWriter(svc.Kafka.Brokers, svc.Kafka.ClientID, svc.Kafka.Version)
	case "s3":
		if svc.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 writer needs a bucket")
		}
		client, err := NewS3Client(ctx, svc.S3.Region, svc.S3.Endpoint)
		if err != nil {
			return nil, err
		}
		return NewS3ArchiveWriter(client, svc.S3.Bucket, svc.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown events writer %q", svc.Events.Writer)
	}
}
