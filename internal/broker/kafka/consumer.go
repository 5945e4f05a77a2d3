package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/zapshift/zapshift/internal/broker/messages"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer читает события трекинга посылок (messages.ParcelTracked)
// и отдаёт их обработчику уже декодированными.
type Consumer struct {
	r messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return &Consumer{
		r: kafka.NewReader(cfg),
	}
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler func(msg messages.ParcelTracked) error) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}
		var ev messages.ParcelTracked
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			// Битый payload ретраить бессмысленно: коммитим и читаем дальше.
			slog.Warn("skip malformed tracking message", "key", string(m.Key), "error", err)
			if err := c.r.CommitMessages(ctx, m); err != nil {
				return errors.Wrap(err, "commit message")
			}
			continue
		}
		if err := handler(ev); err != nil {
			// Важно: commit делаем только при успехе, иначе потеряем событие.
			return errors.Wrapf(err, "handle tracking %q", ev.TrackingID)
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}
