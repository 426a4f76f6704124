// Package kafka wraps a segmentio/kafka-go writer for artifact notifications.
package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/dirtyfeed/pkg/config"
	"github.com/angelmondragon/dirtyfeed/pkg/logger"
)

// messageWriter abstracts kafka.Writer for tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Writer struct {
	writer  messageWriter
	timeout time.Duration
}

// NewWriter builds a synchronous writer that waits for all in-sync replicas.
func NewWriter(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Writer, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.WriteTimeout,
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"topic": cfg.Topic, "brokers": strings.Join(brokers, ",")}), "kafka writer initialized")
	}
	return &Writer{writer: w, timeout: cfg.WriteTimeout}, nil
}

// NewWriterWith injects a custom writer.
func NewWriterWith(w messageWriter, timeout time.Duration) *Writer {
	return &Writer{writer: w, timeout: timeout}
}

// Publish writes one keyed message, bounded by the configured write timeout.
func (w *Writer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if w == nil || w.writer == nil {
		return errors.New("kafka writer not initialized")
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	msg := kafka.Message{Key: []byte(key), Value: value}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	if w == nil || w.writer == nil {
		return nil
	}
	return w.writer.Close()
}

func cleanBrokers(raw []string) []string {
	var brokers []string
	for _, entry := range raw {
		for _, addr := range strings.Split(entry, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				brokers = append(brokers, addr)
			}
		}
	}
	return brokers
}
