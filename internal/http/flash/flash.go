package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// One-shot, severity-tagged notification carried in a cookie across a
// redirect and surfaced on the next rendered page.
const (
	cookieName = "clinic_flash"
	maxAge     = 60 // seconds; a flash only needs to survive one redirect

	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

type Message struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// secureCookies mirrors the session cookie's Secure attribute. Set
// once at router construction, before any request is served.
var secureCookies bool

// UseSecureCookies marks flash cookies Secure, for prod deployments
// behind TLS.
func UseSecureCookies(on bool) {
	secureCookies = on
}

func Set(ctx *gin.Context, level, message string) {
	b, err := json.Marshal(Message{Level: level, Message: message})
	if err != nil {
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cookieName, base64.RawURLEncoding.EncodeToString(b), maxAge, "/", "", secureCookies, true)
}

// Take reads and clears the pending flash, if any.
func Take(ctx *gin.Context) (Message, bool) {
	raw, err := ctx.Cookie(cookieName)
	if err != nil || raw == "" {
		return Message{}, false
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cookieName, "", -1, "/", "", secureCookies, true)

	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Message{}, false
	}

	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, false
	}

	return m, true
}
