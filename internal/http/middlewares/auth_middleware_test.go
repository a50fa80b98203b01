package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicbook/api/internal/auth"
	"github.com/clinicbook/api/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifySession(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.claims, nil
}

func guardedRouter(v middlewares.SessionVerifier, admin bool) *gin.Engine {
	guard := middlewares.NewAuthMiddleware(v)

	mw := guard.RequireLogin()
	if admin {
		mw = guard.RequireAdmin()
	}

	r := gin.New()
	r.GET("/protected", mw, func(c *gin.Context) {
		p, ok := middlewares.PrincipalFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "name": p.Name, "admin": p.Admin})
	})

	return r
}

func request(r *gin.Engine, withCookie bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	if withCookie {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "token"})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRequireLogin(t *testing.T) {
	tests := []struct {
		name       string
		verifier   *fakeVerifier
		withCookie bool
		wantStatus int
	}{
		{
			name:       "no cookie redirects to login",
			verifier:   &fakeVerifier{},
			withCookie: false,
			wantStatus: http.StatusFound,
		},
		{
			name:       "bad token redirects to login",
			verifier:   &fakeVerifier{err: errors.New("expired")},
			withCookie: true,
			wantStatus: http.StatusFound,
		},
		{
			name:       "valid session passes through",
			verifier:   &fakeVerifier{claims: &auth.Claims{UserID: 7, Name: "Pat Doe"}},
			withCookie: true,
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := guardedRouter(tc.verifier, false)

			w := request(r, tc.withCookie)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, w.Code)
			}

			if tc.wantStatus == http.StatusFound && w.Header().Get("Location") != "/login" {
				t.Fatalf("expected redirect to /login, got %s", w.Header().Get("Location"))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		verifier   *fakeVerifier
		wantStatus int
	}{
		{
			name:       "plain user is turned away",
			verifier:   &fakeVerifier{claims: &auth.Claims{UserID: 7, Name: "Pat Doe"}},
			wantStatus: http.StatusFound,
		},
		{
			name:       "admin passes through",
			verifier:   &fakeVerifier{claims: &auth.Claims{UserID: 1, Name: "Clinic Admin", Admin: true}},
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := guardedRouter(tc.verifier, true)

			w := request(r, true)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
		})
	}
}
