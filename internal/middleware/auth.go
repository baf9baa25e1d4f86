package middleware

import (
	"context"
	"net/http"
	"net/url"

	"replica-auth/internal/logger"
	"replica-auth/internal/session"
)

// DecisionKind is what the gate does with a navigation.
type DecisionKind int

const (
	Loading DecisionKind = iota
	Redirect
	Admit
)

func (k DecisionKind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Admit:
		return "admit"
	default:
		return "unknown"
	}
}

type Decision struct {
	Kind     DecisionKind
	Location string
}

// Decide maps a session state to a navigation decision. The sign-in path is
// always admitted so a redirect can never loop.
func Decide(state session.State, requested, signInPath string) Decision {
	if requested == signInPath {
		return Decision{Kind: Admit}
	}

	switch state {
	case session.Initializing:
		return Decision{Kind: Loading}
	case session.Authenticated:
		return Decision{Kind: Admit}
	default:
		return Decision{
			Kind:     Redirect,
			Location: signInPath + "?" + url.Values{"from": {requested}}.Encode(),
		}
	}
}

// Gate admits protected views only for browsers with a session.
type Gate struct {
	SignInPath string
}

func NewGate(signInPath string) *Gate {
	return &Gate{SignInPath: signInPath}
}

func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		browser, ok := BrowserFromContext(r.Context())
		if !ok {
			logger.Error("gate used without browser middleware", nil)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Restore must finish before deciding.
		browser.Sessions.Restore(r.Context())
		snap := browser.Sessions.Snapshot()

		d := Decide(snap.State, r.URL.Path, g.SignInPath)
		switch d.Kind {
		case Loading:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
		case Redirect:
			http.Redirect(w, r, d.Location, http.StatusFound)
		default:
			ctx := r.Context()
			if snap.Session != nil {
				ctx = context.WithValue(ctx, sessionKey, *snap.Session)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}
