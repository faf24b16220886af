package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-insider-scanner/internal/entity"

	"github.com/redis/go-redis/v9"
)

// SignalPublisher hands new signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, signal *entity.Signal) error
}

type signalStreamRepository struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewSignalStreamRepository publishes signals to a Redis stream trimmed to about maxLen entries.
func NewSignalStreamRepository(client *redis.Client, stream string, maxLen int64) SignalPublisher {
	return &signalStreamRepository{client: client, stream: stream, maxLen: maxLen}
}

func (r *signalStreamRepository) Publish(ctx context.Context, signal *entity.Signal) error {
	values, err := StreamValues(signal)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}

// StreamValues is the stream entry for a signal: its identity fields plus the full JSON payload.
func StreamValues(signal *entity.Signal) (map[string]interface{}, error) {
	payload, err := json.Marshal(signal)
	if err != nil {
		return nil, fmt.Errorf("marshal signal: %w", err)
	}
	return map[string]interface{}{
		"id":          signal.ID,
		"ticker":      signal.Ticker,
		"signal_type": signal.SignalType,
		"payload":     string(payload),
	}, nil
}
