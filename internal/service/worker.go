package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/belldivine070/CMS/internal/mailer"
	"github.com/belldivine070/CMS/internal/model"
	"github.com/belldivine070/CMS/internal/queue"
)

// DeliveryOutcome is the terminal result of one recipient-scoped
// delivery, after retries.
type DeliveryOutcome struct {
	Result   string // model.DeliveryDelivered or model.DeliveryAbandoned
	Attempts int
	LastErr  string
}

// DeliveryWorker sends one message to one recipient, retrying transport
// failures up to MaxAttempts with a fixed Backoff between tries. Each
// invocation is independent; the worker holds no shared state.
type DeliveryWorker struct {
	Transport   mailer.Transport
	MaxAttempts int
	Backoff     time.Duration
	Log         zerolog.Logger
}

func NewDeliveryWorker(transport mailer.Transport, maxAttempts int, backoff time.Duration, log zerolog.Logger) *DeliveryWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DeliveryWorker{
		Transport:   transport,
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		Log:         log,
	}
}

// Deliver runs the bounded retry loop. The attempt count and delay are
// explicit loop state; a failure is only reported after exhaustion.
func (w *DeliveryWorker) Deliver(ctx context.Context, t queue.Task) DeliveryOutcome {
	msg := mailer.Message{
		Subject: t.Subject,
		Body:    t.Body,
		From:    t.Sender,
		To:      t.Recipient,
	}

	var lastErr error
	for attempt := 1; attempt <= w.MaxAttempts; attempt++ {
		err := w.Transport.Send(ctx, msg)
		if err == nil {
			w.Log.Info().
				Int("broadcast_id", t.BroadcastID).
				Str("recipient", t.Recipient).
				Int("attempt", attempt).
				Msg("delivered")
			return DeliveryOutcome{Result: model.DeliveryDelivered, Attempts: attempt}
		}

		lastErr = err
		w.Log.Warn().
			Err(err).
			Int("broadcast_id", t.BroadcastID).
			Str("recipient", t.Recipient).
			Int("attempt", attempt).
			Int("max_attempts", w.MaxAttempts).
			Msg("send failed")

		if attempt < w.MaxAttempts {
			time.Sleep(w.Backoff)
		}
	}

	w.Log.Error().
		Int("broadcast_id", t.BroadcastID).
		Str("recipient", t.Recipient).
		Msg("abandoned after max retries")
	return DeliveryOutcome{
		Result:   model.DeliveryAbandoned,
		Attempts: w.MaxAttempts,
		LastErr:  lastErr.Error(),
	}
}
