package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// BasicAuth gates the admin API behind HTTP basic auth. Failure answers 401
// with a challenge header so browsers prompt for credentials. Comparison is
// constant-time.
func BasicAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if ok && secureCompare(user, username) && secureCompare(pass, password) {
			c.Next()
			return
		}
		c.Header("WWW-Authenticate", `Basic realm="Secure Area"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}

// secureCompare hashes both sides first so the comparison neither leaks
// timing nor length.
func secureCompare(a, b string) bool {
	ah := sha256.Sum256([]byte(a))
	bh := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ah[:], bh[:]) == 1
}
