package session

import (
	"net/http"
	"time"
)

const (
	// CookieName carries the browser id. The __Host- prefix needs Secure.
	CookieName         = "__Host-browser"
	InsecureCookieName = "browser"

	browserCookieTTL = 365 * 24 * time.Hour
)

// CookieOptions defines how browser cookies are issued.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
	Domain   string // should usually be empty for __Host- cookies
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/" // required for __Host-
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	if o.Secure {
		o.Domain = ""
	}
	return o
}

func (o CookieOptions) name() string {
	if o.Secure {
		return CookieName
	}
	return InsecureCookieName
}

// BrowserID reads a well-formed browser id from the request.
func BrowserID(r *http.Request, opts CookieOptions) (string, bool) {
	cookie, err := r.Cookie(opts.name())
	if err != nil || !ValidBrowserID(cookie.Value) {
		return "", false
	}
	return cookie.Value, true
}

// SetCookie issues the browser cookie to the client.
func SetCookie(w http.ResponseWriter, browserID string, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     opts.name(),
		Value:    browserID,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  time.Now().Add(browserCookieTTL),
		MaxAge:   int(browserCookieTTL.Seconds()),
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}
