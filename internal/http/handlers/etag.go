package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes the payload with a strong ETag over its
// JSON form so clients polling the public doctor list can revalidate
// instead of refetching. If hashing fails the body is served without
// a validator.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	tag, err := etagFor(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	ctx.Header("ETag", tag)

	if etagMatches(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

func etagFor(payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(body)

	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// etagMatches evaluates If-None-Match against the current validator:
// a bare "*" matches anything, otherwise each listed tag is compared
// with weak prefixes stripped.
func etagMatches(header, tag string) bool {
	header = strings.TrimSpace(header)

	if header == "" || tag == "" {
		return false
	}

	if header == "*" {
		return true
	}

	want := trimWeakPrefix(tag)

	for _, candidate := range strings.Split(header, ",") {
		if trimWeakPrefix(candidate) == want {
			return true
		}
	}

	return false
}

func trimWeakPrefix(raw string) string {
	v := strings.TrimSpace(raw)

	return strings.TrimSpace(strings.TrimPrefix(v, "W/"))
}
