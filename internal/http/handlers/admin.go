package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicbook/api/internal/config"
	"github.com/clinicbook/api/internal/domain/appointment"
	"github.com/clinicbook/api/internal/domain/doctor"
	"github.com/clinicbook/api/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// upcomingLimit caps the dashboard's appointment preview.
const upcomingLimit = 5

type AdminAppointmentStore interface {
	ListAll(ctx context.Context) ([]appointment.View, error)
	ListSoonest(ctx context.Context, limit int) ([]appointment.View, error)
	Count(ctx context.Context) (int, error)
}

type AdminDoctorStore interface {
	List(ctx context.Context) ([]doctor.Doctor, error)
	Count(ctx context.Context) (int, error)
}

type AdminUserStore interface {
	ListPatients(ctx context.Context) ([]user.User, error)
	CountPatients(ctx context.Context) (int, error)
}

// AdminHandler serves the read-only admin views. Writes stay with the
// booking flows; admins observe, they do not book on behalf of anyone.
type AdminHandler struct {
	appointments AdminAppointmentStore
	doctors      AdminDoctorStore
	users        AdminUserStore
}

func NewAdminHandler(appointments AdminAppointmentStore, doctors AdminDoctorStore, users AdminUserStore) *AdminHandler {
	return &AdminHandler{
		appointments: appointments,
		doctors:      doctors,
		users:        users,
	}
}

// Dashboard reports entity counts plus the five soonest appointments
// on record.
func (h *AdminHandler) Dashboard(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	totalDoctors, err := h.doctors.Count(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	totalPatients, err := h.users.CountPatients(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	totalAppointments, err := h.appointments.Count(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	upcoming, err := h.appointments.ListSoonest(cctx, upcomingLimit)

	if err != nil {
		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{
		"page": "admin_dashboard",
		"totals": gin.H{
			"doctors":      totalDoctors,
			"patients":     totalPatients,
			"appointments": totalAppointments,
		},
		"upcoming": upcoming,
	}))
}

func (h *AdminHandler) Doctors(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	doctors, err := h.doctors.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load doctors")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{
		"page":    "admin_doctors",
		"doctors": doctors,
	}))
}

func (h *AdminHandler) Patients(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	patients, err := h.users.ListPatients(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load patients")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{
		"page":     "admin_patients",
		"patients": patients,
	}))
}

func (h *AdminHandler) Appointments(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	views, err := h.appointments.ListAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load appointments")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{
		"page":         "admin_appointments",
		"appointments": views,
	}))
}
