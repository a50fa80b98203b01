package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clinicbook/api/internal/cache"
	"github.com/clinicbook/api/internal/config"
	"github.com/clinicbook/api/internal/domain/doctor"
	"github.com/clinicbook/api/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const doctorListCacheKey = "doctors:list"

type DoctorLister interface {
	List(ctx context.Context) ([]doctor.Doctor, error)
}

// PublicHandler serves the pages anyone can reach: the doctor listing
// on the landing page and the logged-in patient dashboard.
type PublicHandler struct {
	doctors DoctorLister
	cache   *cache.Cache
	guard   *middlewares.AuthMiddleware
}

func NewPublicHandler(doctors DoctorLister, pageCache *cache.Cache, guard *middlewares.AuthMiddleware) *PublicHandler {
	return &PublicHandler{
		doctors: doctors,
		cache:   pageCache,
		guard:   guard,
	}
}

// Index lists the clinic's doctors. The list only changes on reseed,
// so it sits behind the in-process cache and an ETag.
func (h *PublicHandler) Index(ctx *gin.Context) {
	doctors, err := h.doctorList()

	if err != nil {
		RespondInternal(ctx, "Could not load doctors")
		return
	}

	payload := gin.H{
		"page":    "index",
		"doctors": doctors,
	}

	if h.guard != nil {
		if p, ok := h.guard.CurrentPrincipal(ctx); ok {
			payload["user"] = gin.H{"name": p.Name, "admin": p.Admin}
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, withFlash(ctx, payload))
}

// Dashboard is the patient landing page after login: the doctor list
// to book from, addressed to the logged-in user.
func (h *PublicHandler) Dashboard(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)

	if !ok {
		RespondInternal(ctx, "Missing session")
		return
	}

	doctors, err := h.doctorList()

	if err != nil {
		RespondInternal(ctx, "Could not load doctors")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{
		"page":    "dashboard",
		"name":    p.Name,
		"admin":   p.Admin,
		"doctors": doctors,
	}))
}

// doctorList serves from the cache when it can; the roster only moves
// on reseed.
func (h *PublicHandler) doctorList() ([]doctor.Doctor, error) {
	if h.cache != nil {
		if v, ok := h.cache.Get(doctorListCacheKey); ok {
			if doctors, ok := v.([]doctor.Doctor); ok {
				return doctors, nil
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	doctors, err := h.doctors.List(cctx)

	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.Set(doctorListCacheKey, doctors)
	}

	return doctors, nil
}
