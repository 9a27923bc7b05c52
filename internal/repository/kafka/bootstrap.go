package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BootstrapConsumer ensures the topic exists before wiring the reader,
// so a fresh environment does not spin on unknown-topic errors.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, log *zap.Logger) *Consumer {
	_ = EnsureTopic(ctx, cfg.Brokers, TopicSpec{
		Name:              cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, log)

	return NewConsumer(cfg, log)
}
