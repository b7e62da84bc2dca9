package cues

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2beens/intervaltimer/internal/telemetry/metrics"
	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/internal/timer"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultChannelPrefix = "intervaltimer:cues:"

const publishTimeout = 2 * time.Second

// Publisher fans cues out to redis pub/sub, one channel per session.
// Sink cues are published in order by a background worker; Close stops it.
type Publisher struct {
	rdb    redis.Cmdable
	prefix string
	queue  *deliveryQueue
}

func NewPublisher(rdb redis.Cmdable, prefix string, queueSize int, metricsManager *metrics.Manager) *Publisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	p := &Publisher{
		rdb:    rdb,
		prefix: prefix,
	}
	p.queue = newDeliveryQueue("redis", queueSize, publishTimeout, p.Publish, metricsManager)
	return p
}

func (p *Publisher) Channel(sessionID string) string {
	return p.prefix + sessionID
}

func (p *Publisher) Publish(ctx context.Context, msg Message) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cues.redis.publish")
	defer func() {
		tracing.EndWithError(span, err)
	}()
	span.SetAttributes(attribute.String("session-id", msg.SessionID))

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.Channel(msg.SessionID), string(payload)).Err()
}

// Close stops accepting cues and waits until the queued ones are published.
func (p *Publisher) Close() {
	p.queue.close()
}

// Sink queues cues for publishing. A full queue drops the cue.
func (p *Publisher) Sink() SinkFactory {
	return func(src Source) timer.Subscriber {
		return func(cue timer.Cue) {
			p.queue.enqueue(newMessage(src, cue))
		}
	}
}
