package middleware

import (
	"context"
	"net/http"

	"replica-auth/internal/logger"
	"replica-auth/internal/session"
	"replica-auth/internal/storage"
)

// Browser is the per-request view of one browser: its keyspace and its
// session controller.
type Browser struct {
	ID       string
	KV       storage.KV
	Sessions *session.Controller
}

// unexported, collision-proof context keys
type browserContextKeyType struct{}
type sessionContextKeyType struct{}

var (
	browserKey = browserContextKeyType{}
	sessionKey = sessionContextKeyType{}
)

// BrowserFromContext returns the Browser attached by Browsers.Attach.
func BrowserFromContext(ctx context.Context) (*Browser, bool) {
	b, ok := ctx.Value(browserKey).(*Browser)
	return b, ok
}

// SessionFromContext returns the session admitted by Gate.RequireSession.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(session.Session)
	return s, ok
}

// Browsers identifies the browser behind each request, issuing a new id
// when the cookie is absent or malformed.
type Browsers struct {
	KV      storage.KV
	Decode  session.Decoder
	Cookies session.CookieOptions
}

func NewBrowsers(kv storage.KV, decode session.Decoder, cookies session.CookieOptions) *Browsers {
	return &Browsers{KV: kv, Decode: decode, Cookies: cookies}
}

func (b *Browsers) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.BrowserID(r, b.Cookies)
		if !ok {
			id = session.NewBrowserID()
			session.SetCookie(w, id, b.Cookies)
			logger.Debug("issued browser id", nil)
		}

		scoped := storage.Scope(b.KV, id)
		browser := &Browser{
			ID:       id,
			KV:       scoped,
			Sessions: session.NewController(session.NewStore(scoped), b.Decode),
		}

		ctx := context.WithValue(r.Context(), browserKey, browser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
