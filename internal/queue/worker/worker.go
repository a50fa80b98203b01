package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clinicbook/api/internal/jobs"
	"github.com/clinicbook/api/internal/notifications"
)

// Dequeuer pops the next raw payload off the queue, blocking up to
// timeout. An empty payload with a nil error means nothing arrived.
type Dequeuer interface {
	Pop(ctx context.Context, key string, timeout time.Duration) (string, error)
}

type Config struct {
	PopTimeout  time.Duration
	MaxAttempts int
}

// Worker drains booking events from the notification queue and hands
// them to the notifier, retrying transient failures with backoff.
type Worker struct {
	cfg      Config
	queue    Dequeuer
	notifier notifications.Notifier
	log      *slog.Logger
}

func New(cfg Config, queue Dequeuer, notifier notifications.Notifier, log *slog.Logger) *Worker {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			w.log.Info("worker received shutdown signal")
			return nil
		}

		payload, err := w.queue.Pop(ctx, jobs.QueueKey, w.cfg.PopTimeout)

		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("worker received shutdown signal")
				return nil
			}

			w.log.Error("queue pop failed", "error", err)

			if !sleepCtx(ctx, ExponentialBackoff(0)) {
				return nil
			}
			continue
		}

		if payload == "" {
			continue
		}

		event, err := jobs.DecodeEvent(payload)

		if err != nil {
			// Poison payloads are dropped, not retried.
			w.log.Warn("dropping malformed booking event", "error", err, "payload", payload)
			continue
		}

		w.process(ctx, event)
	}
}

func (w *Worker) process(ctx context.Context, event jobs.BookingEvent) {
	notice := notifications.BookingNotice{
		AppointmentID: event.AppointmentID,
		PatientName:   event.PatientName,
		DoctorName:    event.DoctorName,
		Date:          event.Date,
		Time:          event.Time,
	}

	for attempt := 0; attempt < w.cfg.MaxAttempts; attempt++ {
		var err error

		switch event.Kind {
		case jobs.KindBookingConfirmed:
			err = w.notifier.SendBookingConfirmation(ctx, notice)
		case jobs.KindBookingCancelled:
			err = w.notifier.SendBookingCancellation(ctx, notice)
		}

		if err == nil {
			w.log.Info("booking event delivered",
				"kind", string(event.Kind),
				"appointment_id", event.AppointmentID,
				"attempt", attempt+1,
			)
			return
		}

		if ctx.Err() != nil {
			return
		}

		level := slog.LevelWarn
		if errors.Is(err, notifications.ErrCircuitOpen) {
			level = slog.LevelInfo
		}

		w.log.Log(ctx, level, "booking event delivery failed",
			"kind", string(event.Kind),
			"appointment_id", event.AppointmentID,
			"attempt", attempt+1,
			"error", err,
		)

		if !sleepCtx(ctx, ExponentialBackoff(attempt)) {
			return
		}
	}

	w.log.Error("booking event abandoned after retries",
		"kind", string(event.Kind),
		"appointment_id", event.AppointmentID,
		"attempts", w.cfg.MaxAttempts,
	)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
