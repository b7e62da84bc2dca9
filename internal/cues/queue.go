package cues

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/intervaltimer/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

const DefaultQueueSize = 256

// deliveryQueue hands messages to a single worker so a slow destination
// never runs on the cue dispatch path. A full queue drops the message.
type deliveryQueue struct {
	sink           string
	timeout        time.Duration
	deliver        func(ctx context.Context, msg Message) error
	metricsManager *metrics.Manager

	queue chan Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newDeliveryQueue(
	sink string,
	size int,
	timeout time.Duration,
	deliver func(ctx context.Context, msg Message) error,
	metricsManager *metrics.Manager,
) *deliveryQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &deliveryQueue{
		sink:           sink,
		timeout:        timeout,
		deliver:        deliver,
		metricsManager: metricsManager,
		queue:          make(chan Message, size),
		done:           make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *deliveryQueue) run() {
	defer close(q.done)
	for msg := range q.queue {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.deliver(ctx, msg); err != nil {
			log.Warnf("%s cue [%s] for session %s: %s", q.sink, msg.Cue.Type, msg.SessionID, err)
			q.countFailure()
		}
		cancel()
	}
}

// enqueue never blocks and reports whether msg was accepted.
func (q *deliveryQueue) enqueue(msg Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	select {
	case q.queue <- msg:
		return true
	default:
		log.Warnf("%s queue full, cue [%s] for session %s dropped", q.sink, msg.Cue.Type, msg.SessionID)
		q.countFailure()
		return false
	}
}

func (q *deliveryQueue) countFailure() {
	if q.metricsManager != nil {
		q.metricsManager.CounterCueSinkFailures.WithLabelValues(q.sink).Inc()
	}
}

// close stops accepting messages and waits until the queued ones are delivered.
func (q *deliveryQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
	q.mu.Unlock()
	<-q.done
}
