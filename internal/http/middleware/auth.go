package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brightform/userhub/internal/identity"
)

const callerKey = "caller"

// Auth resolves the caller from a provider-issued bearer token.
type Auth struct {
	Verifier *identity.Verifier
}

// RequireSession aborts with 401 unless the request carries a valid,
// non-expired session token. The resolved caller is attached to the context;
// role checks stay with the services.
func (m *Auth) RequireSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
		return
	}

	caller, err := m.Verifier.Verify(c.Request.Context(), parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return
	}

	c.Set(callerKey, caller)
	c.Next()
}

// GetCaller exposes the authenticated caller to handlers.
func GetCaller(c *gin.Context) (*identity.Caller, bool) {
	value, ok := c.Get(callerKey)
	if !ok {
		return nil, false
	}
	caller, ok := value.(*identity.Caller)
	return caller, ok
}
