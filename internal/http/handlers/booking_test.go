package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/clinicbook/api/internal/domain/appointment"
	"github.com/clinicbook/api/internal/domain/doctor"
	"github.com/clinicbook/api/internal/http/handlers"
	"github.com/clinicbook/api/internal/http/middlewares"
	"github.com/clinicbook/api/internal/jobs"
	"github.com/gin-gonic/gin"
)

// Fake implementation of the handlers.AppointmentStore interface

type fakeAppointmentStore struct {
	createFn     func(ctx context.Context, userID, doctorID int64, startsAt time.Time) (appointment.Appointment, error)
	getFn        func(ctx context.Context, id int64) (appointment.Appointment, error)
	updateSlotFn func(ctx context.Context, id int64, startsAt time.Time) (appointment.Appointment, error)
	deleteFn     func(ctx context.Context, id int64) error
	listByUserFn func(ctx context.Context, userID int64) ([]appointment.View, error)
}

func (f *fakeAppointmentStore) Create(ctx context.Context, userID, doctorID int64, startsAt time.Time) (appointment.Appointment, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, doctorID, startsAt)
	}

	return appointment.Appointment{}, nil
}

func (f *fakeAppointmentStore) GetByID(ctx context.Context, id int64) (appointment.Appointment, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return appointment.Appointment{}, appointment.ErrNotFound
}

func (f *fakeAppointmentStore) UpdateSlot(ctx context.Context, id int64, startsAt time.Time) (appointment.Appointment, error) {
	if f.updateSlotFn != nil {
		return f.updateSlotFn(ctx, id, startsAt)
	}

	return appointment.Appointment{}, nil
}

func (f *fakeAppointmentStore) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

func (f *fakeAppointmentStore) ListByUser(ctx context.Context, userID int64) ([]appointment.View, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID)
	}

	return []appointment.View{}, nil
}

type fakeDoctorStore struct {
	listFn func(ctx context.Context) ([]doctor.Doctor, error)
	getFn  func(ctx context.Context, id int64) (doctor.Doctor, error)
}

func (f *fakeDoctorStore) List(ctx context.Context) ([]doctor.Doctor, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return []doctor.Doctor{}, nil
}

func (f *fakeDoctorStore) GetByID(ctx context.Context, id int64) (doctor.Doctor, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return doctor.Doctor{ID: id, Name: "Dr. Suman Shrestha", Specialization: "Cardiologist"}, nil
}

type fakeEnqueuer struct {
	events []jobs.BookingEvent
	err    error
}

func (f *fakeEnqueuer) EnqueueBookingEvent(ctx context.Context, event jobs.BookingEvent) error {
	if f.err != nil {
		return f.err
	}

	f.events = append(f.events, event)

	return nil
}

// asPrincipal fakes a passed login gate for the handler under test.
func asPrincipal(p middlewares.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxPrincipal, p)
		c.Next()
	}
}

func bookingRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, asPrincipal(middlewares.Principal{ID: 7, Name: "Pat Doe"}), h)

	return r
}

func TestBook(t *testing.T) {
	validForm := url.Values{
		"doctor_id": {"2"},
		"date":      {"2026-09-01"},
		"time":      {"10:30 AM"},
	}

	tests := []struct {
		name         string
		form         url.Values
		storeSetUp   func(*fakeAppointmentStore)
		doctorSetUp  func(*fakeDoctorStore)
		wantLocation string
		wantEnqueued int
	}{
		{
			name: "success",
			form: validForm,
			storeSetUp: func(f *fakeAppointmentStore) {
				f.createFn = func(ctx context.Context, userID, doctorID int64, startsAt time.Time) (appointment.Appointment, error) {
					if userID != 7 {
						t.Fatalf("expected booking for user 7, got %d", userID)
					}
					return appointment.Appointment{ID: 11, UserID: userID, DoctorID: doctorID, StartsAt: startsAt}, nil
				}
			},
			wantLocation: "/appointments",
			wantEnqueued: 1,
		},
		{
			name: "slot conflict bounces back to the form",
			form: validForm,
			storeSetUp: func(f *fakeAppointmentStore) {
				f.createFn = func(ctx context.Context, userID, doctorID int64, startsAt time.Time) (appointment.Appointment, error) {
					return appointment.Appointment{}, appointment.ErrSlotTaken
				}
			},
			wantLocation: "/book",
		},
		{
			name: "missing fields bounce back to the form",
			form: url.Values{
				"doctor_id": {"2"},
			},
			wantLocation: "/book",
		},
		{
			name: "malformed time bounces back to the form",
			form: url.Values{
				"doctor_id": {"2"},
				"date":      {"2026-09-01"},
				"time":      {"25:99"},
			},
			wantLocation: "/book",
		},
		{
			name: "unknown doctor bounces back to the form",
			form: validForm,
			doctorSetUp: func(f *fakeDoctorStore) {
				f.getFn = func(ctx context.Context, id int64) (doctor.Doctor, error) {
					return doctor.Doctor{}, doctor.ErrNotFound
				}
			},
			wantLocation: "/book",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeAppointmentStore{}
			doctors := &fakeDoctorStore{}
			enqueuer := &fakeEnqueuer{}

			if tc.storeSetUp != nil {
				tc.storeSetUp(store)
			}

			if tc.doctorSetUp != nil {
				tc.doctorSetUp(doctors)
			}

			h := handlers.NewBookingHandler(store, doctors, enqueuer, nil, nil)
			r := bookingRouter(http.MethodPost, "/book", h.Book)

			w := postForm(r, "/book", tc.form)

			if w.Code != http.StatusFound {
				t.Fatalf("expected status 302, got %d", w.Code)
			}

			if got := w.Header().Get("Location"); got != tc.wantLocation {
				t.Fatalf("expected redirect to %s, got %s", tc.wantLocation, got)
			}

			if len(enqueuer.events) != tc.wantEnqueued {
				t.Fatalf("expected %d enqueued events, got %d", tc.wantEnqueued, len(enqueuer.events))
			}

			if tc.wantEnqueued > 0 && enqueuer.events[0].Kind != jobs.KindBookingConfirmed {
				t.Fatalf("expected confirmation event, got %s", enqueuer.events[0].Kind)
			}
		})
	}
}

func TestBookSurvivesEnqueueFailure(t *testing.T) {
	store := &fakeAppointmentStore{
		createFn: func(ctx context.Context, userID, doctorID int64, startsAt time.Time) (appointment.Appointment, error) {
			return appointment.Appointment{ID: 11, UserID: userID, DoctorID: doctorID, StartsAt: startsAt}, nil
		},
	}

	enqueuer := &fakeEnqueuer{err: context.DeadlineExceeded}

	h := handlers.NewBookingHandler(store, &fakeDoctorStore{}, enqueuer, nil, nil)
	r := bookingRouter(http.MethodPost, "/book", h.Book)

	w := postForm(r, "/book", url.Values{
		"doctor_id": {"2"},
		"date":      {"2026-09-01"},
		"time":      {"10:30 AM"},
	})

	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}

	if got := w.Header().Get("Location"); got != "/appointments" {
		t.Fatalf("expected booking to succeed despite enqueue failure, got redirect to %s", got)
	}
}

func TestListAppointments(t *testing.T) {
	store := &fakeAppointmentStore{
		listByUserFn: func(ctx context.Context, userID int64) ([]appointment.View, error) {
			return []appointment.View{
				{ID: 1, Date: "2026-09-01", Time: "10:30 AM", DoctorID: 2, DoctorName: "Dr. Suman Shrestha"},
			}, nil
		},
	}

	h := handlers.NewBookingHandler(store, &fakeDoctorStore{}, nil, nil, nil)
	r := bookingRouter(http.MethodGet, "/appointments", h.List)

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Appointments []appointment.View `json:"appointments"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if len(body.Appointments) != 1 || body.Appointments[0].DoctorName != "Dr. Suman Shrestha" {
		t.Fatalf("unexpected appointments payload: %+v", body.Appointments)
	}
}

func TestEditOwnership(t *testing.T) {
	owned := appointment.Appointment{ID: 5, UserID: 7, DoctorID: 2, StartsAt: time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)}
	foreign := appointment.Appointment{ID: 6, UserID: 99, DoctorID: 2, StartsAt: owned.StartsAt}

	get := func(ctx context.Context, id int64) (appointment.Appointment, error) {
		switch id {
		case owned.ID:
			return owned, nil
		case foreign.ID:
			return foreign, nil
		}
		return appointment.Appointment{}, appointment.ErrNotFound
	}

	form := url.Values{
		"date": {"2026-09-02"},
		"time": {"11:00 AM"},
	}

	tests := []struct {
		name         string
		path         string
		updateErr    error
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "owner can move the slot",
			path:         "/edit/5",
			wantStatus:   http.StatusFound,
			wantLocation: "/appointments",
		},
		{
			name:         "someone else's appointment is refused",
			path:         "/edit/6",
			wantStatus:   http.StatusFound,
			wantLocation: "/appointments",
		},
		{
			name:       "missing appointment is a 404",
			path:       "/edit/404",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "garbled id is a 404",
			path:       "/edit/abc",
			wantStatus: http.StatusNotFound,
		},
		{
			name:         "slot conflict returns to the edit form",
			path:         "/edit/5",
			updateErr:    appointment.ErrSlotTaken,
			wantStatus:   http.StatusFound,
			wantLocation: "/edit/5",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			updated := false

			store := &fakeAppointmentStore{
				getFn: get,
				updateSlotFn: func(ctx context.Context, id int64, startsAt time.Time) (appointment.Appointment, error) {
					if tc.updateErr != nil {
						return appointment.Appointment{}, tc.updateErr
					}
					updated = true
					return appointment.Appointment{ID: id, UserID: 7, DoctorID: 2, StartsAt: startsAt}, nil
				},
			}

			h := handlers.NewBookingHandler(store, &fakeDoctorStore{}, nil, nil, nil)
			r := bookingRouter(http.MethodPost, "/edit/:id", h.Edit)

			w := postForm(r, tc.path, form)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, w.Code)
			}

			if tc.wantLocation != "" {
				if got := w.Header().Get("Location"); got != tc.wantLocation {
					t.Fatalf("expected redirect to %s, got %s", tc.wantLocation, got)
				}
			}

			if tc.name == "someone else's appointment is refused" && updated {
				t.Fatalf("expected no update on foreign appointment")
			}
		})
	}
}

func TestDelete(t *testing.T) {
	owned := appointment.Appointment{ID: 5, UserID: 7, DoctorID: 2, StartsAt: time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)}
	foreign := appointment.Appointment{ID: 6, UserID: 99, DoctorID: 2, StartsAt: owned.StartsAt}

	get := func(ctx context.Context, id int64) (appointment.Appointment, error) {
		switch id {
		case owned.ID:
			return owned, nil
		case foreign.ID:
			return foreign, nil
		}
		return appointment.Appointment{}, appointment.ErrNotFound
	}

	t.Run("owner can cancel and a cancellation event is queued", func(t *testing.T) {
		deleted := false

		store := &fakeAppointmentStore{
			getFn: get,
			deleteFn: func(ctx context.Context, id int64) error {
				deleted = true
				return nil
			},
		}

		enqueuer := &fakeEnqueuer{}

		h := handlers.NewBookingHandler(store, &fakeDoctorStore{}, enqueuer, nil, nil)
		r := bookingRouter(http.MethodGet, "/delete/:id", h.Delete)

		req := httptest.NewRequest(http.MethodGet, "/delete/5", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusFound || w.Header().Get("Location") != "/appointments" {
			t.Fatalf("expected redirect to /appointments, got %d %s", w.Code, w.Header().Get("Location"))
		}

		if !deleted {
			t.Fatalf("expected appointment to be deleted")
		}

		if len(enqueuer.events) != 1 || enqueuer.events[0].Kind != jobs.KindBookingCancelled {
			t.Fatalf("expected one cancellation event, got %+v", enqueuer.events)
		}
	})

	t.Run("foreign appointment is refused", func(t *testing.T) {
		store := &fakeAppointmentStore{
			getFn: get,
			deleteFn: func(ctx context.Context, id int64) error {
				t.Fatalf("delete should not be called")
				return nil
			},
		}

		h := handlers.NewBookingHandler(store, &fakeDoctorStore{}, nil, nil, nil)
		r := bookingRouter(http.MethodGet, "/delete/:id", h.Delete)

		req := httptest.NewRequest(http.MethodGet, "/delete/6", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusFound || w.Header().Get("Location") != "/appointments" {
			t.Fatalf("expected redirect to /appointments, got %d %s", w.Code, w.Header().Get("Location"))
		}
	})

	t.Run("missing appointment is a 404", func(t *testing.T) {
		store := &fakeAppointmentStore{getFn: get}

		h := handlers.NewBookingHandler(store, &fakeDoctorStore{}, nil, nil, nil)
		r := bookingRouter(http.MethodGet, "/delete/:id", h.Delete)

		req := httptest.NewRequest(http.MethodGet, "/delete/404", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", w.Code)
		}
	})
}

func TestBookPagePreselectsDoctor(t *testing.T) {
	doctors := &fakeDoctorStore{
		listFn: func(ctx context.Context) ([]doctor.Doctor, error) {
			return []doctor.Doctor{{ID: 1, Name: "Dr. Suman Shrestha", Specialization: "Cardiologist"}}, nil
		},
	}

	h := handlers.NewBookingHandler(&fakeAppointmentStore{}, doctors, nil, nil, nil)
	r := bookingRouter(http.MethodGet, "/book", h.BookPage)

	req := httptest.NewRequest(http.MethodGet, "/book?doctor_id=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		SelectedDoctorID int64 `json:"selectedDoctorId"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if body.SelectedDoctorID != 1 {
		t.Fatalf("expected selectedDoctorId 1, got %d", body.SelectedDoctorID)
	}
}
