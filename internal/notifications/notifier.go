package notifications

import "context"

// BookingNotice carries the human-facing details of a booking change.
type BookingNotice struct {
	AppointmentID int64
	PatientName   string
	DoctorName    string
	Date          string
	Time          string
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, notice BookingNotice) error
	SendBookingCancellation(ctx context.Context, notice BookingNotice) error
}
