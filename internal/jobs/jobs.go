package jobs

import (
	"encoding/json"
	"errors"
	"time"
)

// QueueKey is the Redis list the API pushes onto and the worker pops
// from.
const QueueKey = "clinicbook:notifications"

type EventKind string

const (
	KindBookingConfirmed EventKind = "booking.confirmed"
	KindBookingCancelled EventKind = "booking.cancelled"
)

var (
	ErrEmptyPayload = errors.New("empty job payload")
	ErrBadPayload   = errors.New("malformed job payload")
	ErrUnknownKind  = errors.New("unknown job kind")
)

// BookingEvent is the queue payload for patient notifications. It
// carries everything the notifier needs so the worker never touches
// the database.
type BookingEvent struct {
	Kind          EventKind `json:"kind"`
	AppointmentID int64     `json:"appointmentId"`
	PatientName   string    `json:"patientName"`
	DoctorName    string    `json:"doctorName"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	EnqueuedAt    time.Time `json:"enqueuedAt"`
}

func (e BookingEvent) Validate() error {
	switch e.Kind {
	case KindBookingConfirmed, KindBookingCancelled:
	default:
		return ErrUnknownKind
	}

	if e.AppointmentID <= 0 {
		return ErrBadPayload
	}

	return nil
}

func EncodeEvent(e BookingEvent) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func DecodeEvent(raw string) (BookingEvent, error) {
	if raw == "" {
		return BookingEvent{}, ErrEmptyPayload
	}

	var e BookingEvent

	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return BookingEvent{}, ErrBadPayload
	}

	if err := e.Validate(); err != nil {
		return BookingEvent{}, err
	}

	return e, nil
}
