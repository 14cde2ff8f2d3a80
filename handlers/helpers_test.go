package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-svc/config"
	"storefront-svc/middleware"
	"storefront-svc/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var testSessionConfig = config.SessionConfig{
	CookieName: "sessionid",
	TTL:        time.Hour,
}

// newSessionRouter returns a router that issues sessions backed by an
// in-memory redis.
func newSessionRouter(t *testing.T) *gin.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.SessionMiddleware(session.NewRedisStore(rdb, time.Hour), testSessionConfig))
	return router
}

// serve runs req through router, carrying over the given session cookie.
func serve(router http.Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == testSessionConfig.CookieName {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", testSessionConfig.CookieName)
	return nil
}
