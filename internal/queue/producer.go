package queue

import (
	"context"

	"github.com/clinicbook/api/internal/jobs"
)

type Pusher interface {
	Push(ctx context.Context, key, payload string) error
}

// Producer serializes booking events onto the notification queue.
type Producer struct {
	client Pusher
}

func NewProducer(client Pusher) *Producer {
	return &Producer{client: client}
}

func (p *Producer) EnqueueBookingEvent(ctx context.Context, event jobs.BookingEvent) error {
	payload, err := jobs.EncodeEvent(event)

	if err != nil {
		return err
	}

	return p.client.Push(ctx, jobs.QueueKey, payload)
}
