// Package notify announces uploaded artifacts to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/dirtyfeed/pkg/kafka"
)

// Event describes one artifact that reached the sink.
type Event struct {
	Artifact   string    `json:"artifact"`
	Key        string    `json:"key"`
	Format     string    `json:"format"`
	Records    int       `json:"records"`
	Bytes      int       `json:"bytes"`
	PassID     string    `json:"pass_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (e Event) attributes() map[string]string {
	return map[string]string{
		"artifact": e.Artifact,
		"format":   e.Format,
		"pass_id":  e.PassID,
	}
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }
func (Noop) Close() error                        { return nil }

type publishFunc func(ctx context.Context, data []byte, attrs map[string]string) error

// PubSub publishes events to a Pub/Sub topic and waits for the server ack.
type PubSub struct {
	publish publishFunc
	stop    func()
}

func NewPubSub(publisher *pubsub.Publisher) *PubSub {
	return &PubSub{
		publish: func(ctx context.Context, data []byte, attrs map[string]string) error {
			_, err := publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
			return err
		},
		stop: publisher.Stop,
	}
}

func (p *PubSub) Notify(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := p.publish(ctx, data, event.attributes()); err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Artifact, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *PubSub) Close() error {
	if p.stop != nil {
		p.stop()
	}
	return nil
}

// Kafka writes events keyed by object key.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(writer *kafka.Writer) *Kafka {
	return &Kafka{writer: writer}
}

func (k *Kafka) Notify(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := k.writer.Publish(ctx, event.Key, data, event.attributes()); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Artifact, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
