package doctor

import (
	"errors"
	"time"
)

// Doctor records are seeded out of band and read-only here.
type Doctor struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	CreatedAt      time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("doctor not found")
