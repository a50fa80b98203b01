package middlewares

import (
	"net/http"

	"github.com/clinicbook/api/internal/auth"
	"github.com/clinicbook/api/internal/http/flash"
	"github.com/gin-gonic/gin"
)

// Principal is the authenticated actor attached to a request once the
// session cookie checks out.
type Principal struct {
	ID    int64
	Name  string
	Admin bool
}

// Keep this small interface so tests can fake it easily.
type SessionVerifier interface {
	VerifySession(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	sessions SessionVerifier
}

func NewAuthMiddleware(sessions SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireLogin gates a route on a valid session cookie. A browser flow
// gets the original app's treatment: flash a warning and bounce to the
// login page rather than answering 401.
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := m.principal(c)

		if !ok {
			flash.Set(c, flash.LevelWarning, "Please login first.")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(CtxPrincipal, p)
		c.Next()
	}
}

// RequireAdmin additionally demands the admin flag on the principal.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := m.principal(c)

		if !ok || !p.Admin {
			flash.Set(c, flash.LevelDanger, "Admins only!")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(CtxPrincipal, p)
		c.Next()
	}
}

func (m *AuthMiddleware) principal(c *gin.Context) (Principal, bool) {
	token, err := c.Cookie(auth.CookieName)
	if err != nil || token == "" {
		return Principal{}, false
	}

	claims, err := m.sessions.VerifySession(token)
	if err != nil {
		return Principal{}, false
	}

	return Principal{
		ID:    claims.UserID,
		Name:  claims.Name,
		Admin: claims.Admin,
	}, true
}

// PrincipalFromContext is the handler-side accessor so handlers don't
// need to know the context key.
func PrincipalFromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return Principal{}, false
	}

	p, ok := v.(Principal)
	return p, ok
}

// CurrentPrincipal reads the session cookie directly, for public pages
// that only adapt their response when someone happens to be logged in.
func (m *AuthMiddleware) CurrentPrincipal(c *gin.Context) (Principal, bool) {
	return m.principal(c)
}
