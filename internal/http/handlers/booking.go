package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/clinicbook/api/internal/config"
	"github.com/clinicbook/api/internal/domain/appointment"
	"github.com/clinicbook/api/internal/domain/doctor"
	"github.com/clinicbook/api/internal/http/flash"
	"github.com/clinicbook/api/internal/http/middlewares"
	"github.com/clinicbook/api/internal/jobs"
	"github.com/clinicbook/api/internal/observability"
	"github.com/gin-gonic/gin"
)

type AppointmentStore interface {
	Create(ctx context.Context, userID, doctorID int64, startsAt time.Time) (appointment.Appointment, error)
	GetByID(ctx context.Context, id int64) (appointment.Appointment, error)
	UpdateSlot(ctx context.Context, id int64, startsAt time.Time) (appointment.Appointment, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]appointment.View, error)
}

type DoctorStore interface {
	List(ctx context.Context) ([]doctor.Doctor, error)
	GetByID(ctx context.Context, id int64) (doctor.Doctor, error)
}

// NotificationEnqueuer hands a booking event to the queue. Enqueue
// failures never fail the request.
type NotificationEnqueuer interface {
	EnqueueBookingEvent(ctx context.Context, event jobs.BookingEvent) error
}

type BookingHandler struct {
	appointments AppointmentStore
	doctors      DoctorStore
	queue        NotificationEnqueuer
	prom         *observability.Prom
	log          *slog.Logger
}

func NewBookingHandler(appointments AppointmentStore, doctors DoctorStore, queue NotificationEnqueuer, prom *observability.Prom, log *slog.Logger) *BookingHandler {
	if log == nil {
		log = slog.Default()
	}

	return &BookingHandler{
		appointments: appointments,
		doctors:      doctors,
		queue:        queue,
		prom:         prom,
		log:          log,
	}
}

// BookPage shows the booking form: the doctor list plus an optional
// preselected doctor from ?doctor_id.
func (h *BookingHandler) BookPage(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	doctors, err := h.doctors.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load doctors")
		return
	}

	payload := gin.H{
		"page":    "book",
		"doctors": doctors,
	}

	if raw := ctx.Query("doctor_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			payload["selectedDoctorId"] = id
		}
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, payload))
}

func (h *BookingHandler) Book(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondInternal(ctx, "Missing session")
		return
	}

	var req appointment.BookRequest

	if !BindForm(ctx, &req, "/book") {
		return
	}

	startsAt, err := appointment.ParseSlot(req.Date, req.Time)

	if err != nil {
		h.countBooking("invalid")
		RedirectWithFlash(ctx, "/book", flash.LevelDanger, "Invalid date or time format.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	doc, err := h.doctors.GetByID(cctx, req.DoctorID)

	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			h.countBooking("invalid")
			RedirectWithFlash(ctx, "/book", flash.LevelDanger, "Doctor not found.")
			return
		}

		RespondInternal(ctx, "Could not book appointment")
		return
	}

	appt, err := h.appointments.Create(cctx, p.ID, req.DoctorID, startsAt)

	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrSlotTaken):
			h.countBooking("conflict")
			RedirectWithFlash(ctx, "/book", flash.LevelDanger, "This time slot is already booked. Please choose another.")
		case errors.Is(err, doctor.ErrNotFound):
			h.countBooking("invalid")
			RedirectWithFlash(ctx, "/book", flash.LevelDanger, "Doctor not found.")
		default:
			RespondInternal(ctx, "Could not book appointment")
		}
		return
	}

	h.countBooking("booked")

	h.enqueueEvent(ctx, jobs.BookingEvent{
		Kind:          jobs.KindBookingConfirmed,
		AppointmentID: appt.ID,
		PatientName:   p.Name,
		DoctorName:    doc.Name,
		Date:          appointment.FormatDate(appt.StartsAt),
		Time:          appointment.FormatTime(appt.StartsAt),
		EnqueuedAt:    time.Now().UTC(),
	})

	RedirectWithFlash(ctx, "/appointments", flash.LevelSuccess, "Appointment booked successfully!")
}

// List shows the caller's own appointments, soonest first.
func (h *BookingHandler) List(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondInternal(ctx, "Missing session")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	views, err := h.appointments.ListByUser(cctx, p.ID)

	if err != nil {
		RespondInternal(ctx, "Could not load appointments")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{
		"page":         "appointments",
		"appointments": views,
	}))
}

func (h *BookingHandler) EditPage(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondInternal(ctx, "Missing session")
		return
	}

	appt, err := h.ownedAppointment(ctx, p.ID)

	if err != nil {
		h.denyAppointmentAccess(ctx, err, "You cannot edit this appointment.")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{
		"page": "edit",
		"appointment": gin.H{
			"id":       appt.ID,
			"doctorId": appt.DoctorID,
			"date":     appointment.FormatDate(appt.StartsAt),
			"time":     appointment.FormatTime(appt.StartsAt),
		},
	}))
}

func (h *BookingHandler) Edit(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondInternal(ctx, "Missing session")
		return
	}

	appt, err := h.ownedAppointment(ctx, p.ID)

	if err != nil {
		h.denyAppointmentAccess(ctx, err, "You cannot edit this appointment.")
		return
	}

	editPath := "/edit/" + strconv.FormatInt(appt.ID, 10)

	var req appointment.EditRequest

	if !BindForm(ctx, &req, editPath) {
		return
	}

	startsAt, err := appointment.ParseSlot(req.Date, req.Time)

	if err != nil {
		RedirectWithFlash(ctx, editPath, flash.LevelDanger, "Invalid date or time format.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if _, err := h.appointments.UpdateSlot(cctx, appt.ID, startsAt); err != nil {
		switch {
		case errors.Is(err, appointment.ErrSlotTaken):
			RedirectWithFlash(ctx, editPath, flash.LevelDanger, "This time slot is already booked. Please choose another.")
		case errors.Is(err, appointment.ErrNotFound):
			RespondNotFound(ctx, "Appointment not found")
		default:
			RespondInternal(ctx, "Could not update appointment")
		}
		return
	}

	RedirectWithFlash(ctx, "/appointments", flash.LevelSuccess, "Appointment updated successfully!")
}

func (h *BookingHandler) Delete(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondInternal(ctx, "Missing session")
		return
	}

	appt, err := h.ownedAppointment(ctx, p.ID)

	if err != nil {
		h.denyAppointmentAccess(ctx, err, "You cannot delete this appointment.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.appointments.Delete(cctx, appt.ID); err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			RespondNotFound(ctx, "Appointment not found")
			return
		}

		RespondInternal(ctx, "Could not delete appointment")
		return
	}

	event := jobs.BookingEvent{
		Kind:          jobs.KindBookingCancelled,
		AppointmentID: appt.ID,
		PatientName:   p.Name,
		Date:          appointment.FormatDate(appt.StartsAt),
		Time:          appointment.FormatTime(appt.StartsAt),
		EnqueuedAt:    time.Now().UTC(),
	}

	// Doctor name is cosmetic on a cancellation notice; skip it if the
	// lookup fails.
	if doc, err := h.doctors.GetByID(cctx, appt.DoctorID); err == nil {
		event.DoctorName = doc.Name
	}

	h.enqueueEvent(ctx, event)

	RedirectWithFlash(ctx, "/appointments", flash.LevelSuccess, "Appointment deleted successfully!")
}

// ownedAppointment loads the :id appointment and enforces that the
// caller booked it. A missing or garbled id comes back as ErrNotFound,
// someone else's booking as ErrNotOwner. Admins get no bypass here;
// they have their own read-only views.
func (h *BookingHandler) ownedAppointment(ctx *gin.Context, userID int64) (appointment.Appointment, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		return appointment.Appointment{}, appointment.ErrNotFound
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	appt, err := h.appointments.GetByID(cctx, id)

	if err != nil {
		return appointment.Appointment{}, err
	}

	if appt.UserID != userID {
		return appointment.Appointment{}, appointment.ErrNotOwner
	}

	return appt, nil
}

// denyAppointmentAccess turns an ownership-check failure into the
// response the form flows expect: a plain 404 for an unknown id, a
// flash-and-bounce for acting on someone else's booking.
func (h *BookingHandler) denyAppointmentAccess(ctx *gin.Context, err error, denyMessage string) {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		RespondNotFound(ctx, "Appointment not found")
	case errors.Is(err, appointment.ErrNotOwner):
		RedirectWithFlash(ctx, "/appointments", flash.LevelDanger, denyMessage)
	default:
		RespondInternal(ctx, "Could not load appointment")
	}
}

func (h *BookingHandler) countBooking(result string) {
	if h.prom != nil {
		h.prom.BookingsTotal.WithLabelValues(result).Inc()
	}
}

func (h *BookingHandler) enqueueEvent(ctx *gin.Context, event jobs.BookingEvent) {
	if h.queue == nil {
		return
	}

	qctx, cancel := config.WithTimeout(time.Second)
	defer cancel()

	if err := h.queue.EnqueueBookingEvent(qctx, event); err != nil {
		h.log.Warn("failed to enqueue booking event",
			"kind", string(event.Kind),
			"appointment_id", event.AppointmentID,
			"error", err,
			"request_id", requestIDFrom(ctx),
		)
	}
}
