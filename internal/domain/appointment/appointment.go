package appointment

import (
	"errors"
	"time"
)

// An appointment holds one bookable slot: a (doctor, date, time) triple
// owned by the patient who booked it. Date and wall-clock time are kept
// combined in StartsAt; the wire format splits them back apart.
type Appointment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	DoctorID  int64     `json:"doctorId"`
	StartsAt  time.Time `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View is the read shape for listings: slot plus the joined names the
// appointment tables reference.
type View struct {
	ID             int64  `json:"id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	DoctorID       int64  `json:"doctorId"`
	DoctorName     string `json:"doctorName"`
	Specialization string `json:"specialization,omitempty"`
	PatientID      int64  `json:"patientId,omitempty"`
	PatientName    string `json:"patientName,omitempty"`
}

var (
	ErrNotFound  = errors.New("appointment not found")
	ErrSlotTaken = errors.New("slot already booked")
	ErrNotOwner  = errors.New("appointment belongs to another user")
)

type BookRequest struct {
	DoctorID int64  `form:"doctor_id" json:"doctorId" binding:"required"`
	Date     string `form:"date" json:"date" binding:"required"`
	Time     string `form:"time" json:"time" binding:"required"`
}

type EditRequest struct {
	Date string `form:"date" json:"date" binding:"required"`
	Time string `form:"time" json:"time" binding:"required"`
}
