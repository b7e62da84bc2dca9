package cues

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/intervaltimer/internal/telemetry/metrics"
	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/internal/timer"
	"github.com/2beens/intervaltimer/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const webhookTimeout = 5 * time.Second

// Webhook posts every cue as JSON to a fixed URL. Sink cues are posted in
// order by a background worker; Close stops it.
type Webhook struct {
	url        string
	httpClient *http.Client
	queue      *deliveryQueue
}

// NewWebhook uses a traced http client when httpClient is nil.
func NewWebhook(url string, httpClient *http.Client, queueSize int, metricsManager *metrics.Manager) *Webhook {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   webhookTimeout,
		}
	}
	wh := &Webhook{
		url:        url,
		httpClient: httpClient,
	}
	wh.queue = newDeliveryQueue("webhook", queueSize, webhookTimeout, wh.Post, metricsManager)
	return wh
}

func (wh *Webhook) Post(ctx context.Context, msg Message) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cues.webhook.post")
	defer func() {
		tracing.EndWithError(span, err)
	}()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", pkg.ContentType.JSON)

	resp, err := wh.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("close webhook response body: %s", err)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

// Close stops accepting cues and waits until the queued ones are posted.
func (wh *Webhook) Close() {
	wh.queue.close()
}

// Sink queues cues for the worker. A full queue drops the cue.
func (wh *Webhook) Sink() SinkFactory {
	return func(src Source) timer.Subscriber {
		return func(cue timer.Cue) {
			wh.queue.enqueue(newMessage(src, cue))
		}
	}
}
