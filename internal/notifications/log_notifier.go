package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier writes notifications to the log. It stands in for a real
// mail or SMS provider and honors the same env knobs used to rehearse
// provider outages.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendBookingConfirmation(ctx context.Context, notice BookingNotice) error {
	return n.send(ctx, "notification.booking_confirmation", notice)
}

func (n *LogNotifier) SendBookingCancellation(ctx context.Context, notice BookingNotice) error {
	return n.send(ctx, "notification.booking_cancellation", notice)
}

func (n *LogNotifier) send(ctx context.Context, msg string, notice BookingNotice) error {
	// Simulate a slow provider when asked.
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Simulate an outage when asked.
	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	n.log.Info(msg,
		"appointment_id", notice.AppointmentID,
		"patient", notice.PatientName,
		"doctor", notice.DoctorName,
		"date", notice.Date,
		"time", notice.Time,
	)

	return nil
}
