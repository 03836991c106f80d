package repository

import (
	"context"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/pkg/kafka"
	"github.com/JackFeatherston/Osprey/pkg/logger"
)

// KafkaPublisher mirrors lifecycle events onto a Kafka audit stream,
// keyed by event type so per-type ordering is preserved. Publishing is
// asynchronous relative to the caller; a broker outage is logged and
// dropped, never propagated into the proposal flow.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	timeout  time.Duration
	log      *logger.Logger
}

// NewKafkaPublisher builds the audit publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string, log *logger.Logger) drepo.Notifier {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		timeout:  5 * time.Second,
		log:      log,
	}
}

func (p *KafkaPublisher) Broadcast(event models.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.producer.Publish(ctx, p.topic, []byte(event.Type), event); err != nil {
			p.log.Warn("audit publish failed",
				logger.String("event_type", event.Type), logger.Error(err))
		}
	}()
}

// CompositeNotifier fans one event out to several sinks.
type CompositeNotifier struct {
	sinks []drepo.Notifier
}

// NewCompositeNotifier builds a fan-out notifier. Nil sinks are skipped.
func NewCompositeNotifier(sinks ...drepo.Notifier) drepo.Notifier {
	out := &CompositeNotifier{}
	for _, s := range sinks {
		if s != nil {
			out.sinks = append(out.sinks, s)
		}
	}
	return out
}

func (c *CompositeNotifier) Broadcast(event models.Event) {
	for _, s := range c.sinks {
		s.Broadcast(event)
	}
}

// NoopNotifier is wired when no notification sink is configured.
type NoopNotifier struct{}

func NewNoopNotifier() drepo.Notifier { return NoopNotifier{} }

func (NoopNotifier) Broadcast(models.Event) {}
