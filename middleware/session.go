package middleware

import (
	"net/http"

	"storefront-svc/config"
	"storefront-svc/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionIDKey   = "session_id"
	sessionDataKey = "session_data"
	userIDKey      = "user_id"
)

// SessionMiddleware makes sure every request carries a session cookie. An
// absent or malformed cookie is replaced by a fresh random id.
func SessionMiddleware(store session.Store, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, sid, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)

		c.Set(sessionIDKey, sid)
		c.Set(sessionDataKey, store.For(sid))
		c.Next()
	}
}

// RequestContextFrom collects the identity that SessionMiddleware and
// Identity attached to the request.
func RequestContextFrom(c *gin.Context) session.RequestContext {
	rc := session.RequestContext{SessionID: c.GetString(sessionIDKey)}
	if data, ok := c.Get(sessionDataKey); ok {
		rc.Data, _ = data.(session.Data)
	}
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(int64); ok {
			rc.UserID = &id
		}
	}
	return rc
}
