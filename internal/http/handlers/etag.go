package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondSuccessWithETag renders {status, data} with a strong ETag over data.
// A matching If-None-Match answers 304 with no body.
func RespondSuccessWithETag(ctx *gin.Context, status int, data interface{}) {
	body := gin.H{"status": "success", "data": data}

	tag, ok := entityTag(data)
	if !ok {
		ctx.JSON(status, body)
		return
	}

	ctx.Header("ETag", tag)
	// records carry user-scoped fields; shared caches must revalidate
	ctx.Header("Cache-Control", "private, no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, body)
}

func entityTag(data interface{}) (string, bool) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, true
}

// etagMatches applies the weak comparison If-None-Match calls for.
func etagMatches(header, tag string) bool {
	header = strings.TrimSpace(header)
	switch header {
	case "":
		return false
	case "*":
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == tag {
			return true
		}
	}
	return false
}
