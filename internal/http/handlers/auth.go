package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/clinicbook/api/internal/auth"
	"github.com/clinicbook/api/internal/config"
	"github.com/clinicbook/api/internal/domain/user"
	"github.com/clinicbook/api/internal/http/flash"
	"github.com/clinicbook/api/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// SessionIssuer covers what the auth flows need from auth.Manager.
type SessionIssuer interface {
	IssueSession(userID int64, name string, admin bool) (string, error)
	VerifySession(token string) (*auth.Claims, error)
	TTL() time.Duration
}

type AuthHandler struct {
	users    UserStore
	sessions SessionIssuer
	env      string
}

func NewAuthHandler(users UserStore, sessions SessionIssuer, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		env:      cfg.Env,
	}
}

// RegisterPage bounces anyone already logged in, like the original app.
func (h *AuthHandler) RegisterPage(ctx *gin.Context) {
	if _, ok := h.currentClaims(ctx); ok {
		ctx.Redirect(http.StatusFound, "/dashboard")
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{"page": "register"}))
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	if _, ok := h.currentClaims(ctx); ok {
		ctx.Redirect(http.StatusFound, "/dashboard")
		return
	}

	var req user.RegisterRequest

	if !BindForm(ctx, &req, "/register") {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	_, err = h.users.Create(cctx, req.Name, req.Email, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RedirectWithFlash(ctx, "/register", flash.LevelDanger, "Email already registered")
			return
		}

		RespondInternal(ctx, "Could not create account")
		return
	}

	RedirectWithFlash(ctx, "/login", flash.LevelSuccess, "Registration successful! Please login.")
}

func (h *AuthHandler) LoginPage(ctx *gin.Context) {
	if claims, ok := h.currentClaims(ctx); ok {
		ctx.Redirect(http.StatusFound, homeFor(claims.Admin))
		return
	}

	ctx.JSON(http.StatusOK, withFlash(ctx, gin.H{"page": "login"}))
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindForm(ctx, &req, "/login") {
		return
	}

	if req.Role == "" {
		req.Role = "user"
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RedirectWithFlash(ctx, "/login", flash.LevelDanger, "Invalid credentials")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, req.Password); err != nil {
		RedirectWithFlash(ctx, "/login", flash.LevelDanger, "Invalid credentials")
		return
	}

	// Cross-check the requested role against the stored admin flag: a
	// valid password is not enough to enter through the wrong door.
	if req.Role == "admin" && !foundUser.IsAdmin {
		RedirectWithFlash(ctx, "/login", flash.LevelDanger, "This account is not an admin.")
		return
	}

	if req.Role == "user" && foundUser.IsAdmin {
		RedirectWithFlash(ctx, "/login", flash.LevelWarning, "Please select Admin login for this account.")
		return
	}

	token, err := h.sessions.IssueSession(foundUser.ID, foundUser.Name, foundUser.IsAdmin)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, token)

	RedirectWithFlash(ctx, homeFor(foundUser.IsAdmin), flash.LevelSuccess, "Welcome, "+foundUser.Name+"!")
}

// Logout clears the session cookie unconditionally.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)

	RedirectWithFlash(ctx, "/login", flash.LevelSuccess, "Logged out successfully")
}

func homeFor(admin bool) string {
	if admin {
		return "/admin/dashboard"
	}

	return "/dashboard"
}

func (h *AuthHandler) currentClaims(ctx *gin.Context) (*auth.Claims, bool) {
	token, err := ctx.Cookie(auth.CookieName)
	if err != nil || token == "" {
		return nil, false
	}

	claims, err := h.sessions.VerifySession(token)
	if err != nil {
		return nil, false
	}

	return claims, true
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string) {
	secure := h.env == "prod"

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		auth.CookieName,
		token,
		int(h.sessions.TTL().Seconds()),
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.env == "prod"

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		auth.CookieName,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}
