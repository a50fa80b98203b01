package appointment

import (
	"errors"
	"fmt"
	"time"
)

const (
	// Forms submit the calendar date and a 12-hour clock time separately.
	DateLayout = "2006-01-02"
	TimeLayout = "3:04 PM"
)

var ErrInvalidSlot = errors.New("invalid date or time")

// ParseSlot combines a "YYYY-MM-DD" date and an "h:mm AM/PM" time into
// the single starts-at instant stored for the appointment. Both parts
// are validated here rather than letting a malformed string blow up a
// request mid-flight.
func ParseSlot(dateStr, timeStr string) (time.Time, error) {
	d, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSlot, dateStr)
	}

	t, err := time.Parse(TimeLayout, timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSlot, timeStr)
	}

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func FormatDate(startsAt time.Time) string {
	return startsAt.Format(DateLayout)
}

func FormatTime(startsAt time.Time) string {
	return startsAt.Format(TimeLayout)
}
