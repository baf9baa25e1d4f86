package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"replica-auth/internal/auth/idtoken"
	"replica-auth/internal/auth/provider"
	"replica-auth/internal/auth/provider/slack"
	"replica-auth/internal/dashboard"
	"replica-auth/internal/middleware"
	"replica-auth/internal/session"
	"replica-auth/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slackConfig = slack.Config{
	ClientID:    "cid",
	Scopes:      []string{"commands", "chat:write"},
	RedirectURI: "https://api.example.com/slack/callback",
}

func testOptions() Options {
	return Options{
		GoogleClientID:      "google-client",
		DefaultLinkProvider: "slack",
		LinkStateTTL:        time.Minute,
		FlashTTL:            time.Minute,
		Surfaces: []dashboard.SurfaceConfig{
			{Name: "Collector", BaseURL: "https://collector.example.com/embed", NeedsTeam: true},
			{Name: "Manager", BaseURL: "https://manager.example.com/"},
		},
	}
}

func newTestRouter(t *testing.T, opts Options, p provider.LinkProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := storage.NewMemoryKV()
	t.Cleanup(func() { _ = mem.Close() })

	browsers := middleware.NewBrowsers(mem, idtoken.Decode, session.CookieOptions{Secure: true})
	gate := middleware.NewGate(SignInPath)

	r := gin.New()
	scoped := r.Group("/")
	scoped.Use(middleware.Gin(browsers.Attach))

	NewHandler(provider.NewRegistry(p), opts).RegisterRoutes(scoped, middleware.Gin(gate.RequireSession))
	return r
}

// browser replays its id cookie the way a real browser would.
type browser struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newBrowser(t *testing.T, r *gin.Engine) *browser {
	return &browser{t: t, router: r}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) postCredential(from, credential, csrfCookie, csrfForm string) *httptest.ResponseRecorder {
	form := url.Values{"credential": {credential}, "select_by": {"btn"}}
	if csrfForm != "" {
		form.Set(googleCSRFName, csrfForm)
	}

	target := GoogleCallbackPath
	if from != "" {
		target += "?" + url.Values{"from": {from}}.Encode()
	}

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if csrfCookie != "" {
		req.AddCookie(&http.Cookie{Name: googleCSRFName, Value: csrfCookie})
	}
	return b.do(req)
}

func (b *browser) signIn(claims jwt.MapClaims) {
	b.t.Helper()
	rec := b.postCredential(DashboardPath, idToken(b.t, claims), "csrf", "csrf")
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	require.Equal(b.t, DashboardPath, rec.Header().Get("Location"))
}

func (b *browser) dashboard() dashboard.View {
	b.t.Helper()
	rec := b.get(DashboardPath)
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())

	var v dashboard.View
	require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func idToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("google-signs-this"))
	require.NoError(t, err)
	return tok
}

var ann = jwt.MapClaims{"sub": "u1", "name": "Ann", "email": "ann@example.com"}

func TestFreshBrowserIsSentToSignIn(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))

	rec := b.get(DashboardPath)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth?from=%2Fdashboard", rec.Header().Get("Location"))
	require.NotNil(t, b.cookie)
	assert.True(t, session.ValidBrowserID(b.cookie.Value))
}

func TestSignInPage(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))

	rec := b.get("/auth?from=%2Fdashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["widget_enabled"])
	assert.Equal(t, "google-client", body["google_client_id"])
	assert.Equal(t, "/dashboard", body["from"])
	assert.Equal(t, "/auth/google?from=%2Fdashboard", body["login_uri"])
	assert.NotContains(t, body, "notice")
}

func TestSignInPageWithoutClientID(t *testing.T) {
	opts := testOptions()
	opts.GoogleClientID = ""
	b := newBrowser(t, newTestRouter(t, opts, slack.New(slackConfig)))

	rec := b.get(SignInPath)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["widget_enabled"])
	assert.Equal(t, "Google sign-in is not configured.", body["error"])
	assert.NotContains(t, body, "google_client_id")

	rec = b.postCredential("", idToken(t, ann), "csrf", "csrf")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSignInEstablishesSession(t *testing.T) {
	r := newTestRouter(t, testOptions(), slack.New(slackConfig))
	b := newBrowser(t, r)

	b.signIn(ann)

	v := b.dashboard()
	assert.Equal(t, "u1", v.User.SubjectID)
	assert.Equal(t, "Ann", v.User.Name)
	assert.Equal(t, "ann@example.com", v.User.Email)
	assert.Nil(t, v.Linked)
	assert.Equal(t, "/link/slack", v.LinkPath)

	// already signed in: the sign-in page sends the browser back
	rec := b.get("/auth?from=%2Fdashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, DashboardPath, rec.Header().Get("Location"))

	// another browser shares nothing
	other := newBrowser(t, r)
	assert.Equal(t, http.StatusFound, other.get(DashboardPath).Code)
}

func TestSignInGreetingFallsBackToEmail(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))
	b.signIn(jwt.MapClaims{"sub": "u2", "email": "bo@example.com"})

	assert.Equal(t, "bo@example.com", b.dashboard().User.Name)
}

func TestSignInRejectsBadCredential(t *testing.T) {
	for name, credential := range map[string]string{
		"empty":     "",
		"malformed": "not-a-jwt",
		"no sub":    idToken(t, jwt.MapClaims{"name": "Ann"}),
	} {
		t.Run(name, func(t *testing.T) {
			b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))

			rec := b.postCredential(DashboardPath, credential, "csrf", "csrf")
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/auth?error=signin_failed&from=%2Fdashboard", rec.Header().Get("Location"))

			assert.Equal(t, http.StatusFound, b.get(DashboardPath).Code)

			rec = b.get("/auth?error=signin_failed")
			assert.Contains(t, rec.Body.String(), "Sign-in failed. Please try again.")
		})
	}
}

func TestSignInChecksGoogleCSRF(t *testing.T) {
	cases := map[string][2]string{
		"no cookie":   {"", "csrf"},
		"no field":    {"csrf", ""},
		"mismatched":  {"csrf", "other"},
		"both absent": {"", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))

			rec := b.postCredential(DashboardPath, idToken(t, ann), tc[0], tc[1])
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, http.StatusFound, b.get(DashboardPath).Code)
		})
	}
}

func TestLogout(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))
	b.signIn(ann)

	rec := b.do(httptest.NewRequest(http.MethodPost, LogoutPath, nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, SignInPath, rec.Header().Get("Location"))

	rec = b.get(DashboardPath)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth?from=%2Fdashboard", rec.Header().Get("Location"))
}

// startLink returns the state the provider would echo back.
func startLink(t *testing.T, b *browser) string {
	t.Helper()
	rec := b.get("/link/slack")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "slack.com", loc.Host)
	assert.Equal(t, "cid", loc.Query().Get("client_id"))
	assert.Equal(t, "commands,chat:write", loc.Query().Get("scope"))
	assert.Equal(t, slackConfig.RedirectURI, loc.Query().Get("redirect_uri"))

	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestLinkRoundTrip(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))
	b.signIn(ann)

	state := startLink(t, b)

	rec := b.get("/dashboard?" + url.Values{
		"status":    {"success"},
		"team_id":   {"T1"},
		"team_name": {"Acme"},
		"state":     {state},
	}.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, DashboardPath, rec.Header().Get("Location"))

	v := b.dashboard()
	require.NotNil(t, v.Linked)
	assert.Equal(t, "T1", v.Linked.ExternalTeamID)
	assert.Equal(t, "Acme", v.Linked.TeamName)
	assert.True(t, v.Linked.IsActive)
	require.NotNil(t, v.Notice)
	assert.Equal(t, "Connected to Acme.", v.Notice.Message)

	require.Len(t, v.Surfaces, 2)
	assert.Equal(t, "https://collector.example.com/embed?team_id=T1&user_id=u1", v.Surfaces[0].URL)
	assert.Equal(t, "https://manager.example.com/?user_id=u1", v.Surfaces[1].URL)

	// the outcome is shown once
	v = b.dashboard()
	assert.Nil(t, v.Linked)
	assert.Nil(t, v.Notice)
	assert.NotEmpty(t, v.Surfaces[0].CallToAction)

	// the state was consumed
	rec = b.get("/dashboard?" + url.Values{
		"status": {"success"}, "team_id": {"T1"}, "state": {state},
	}.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	v = b.dashboard()
	assert.Nil(t, v.Linked)
}

func TestLinkCallbackKeepsUnrelatedParams(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))
	b.signIn(ann)

	rec := b.get("/dashboard?tab=apps&status=error&message=denied")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard?tab=apps", rec.Header().Get("Location"))
}

func TestLinkCallbackError(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))
	b.signIn(ann)
	startLink(t, b)

	rec := b.get("/dashboard?status=error&message=denied")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	v := b.dashboard()
	assert.Nil(t, v.Linked)
	require.NotNil(t, v.Notice)
	assert.Equal(t, "error", string(v.Notice.Level))
	assert.Equal(t, "denied", v.Notice.Message)
}

func TestLinkCallbackStateMismatch(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))
	b.signIn(ann)
	startLink(t, b)

	rec := b.get("/dashboard?status=success&team_id=T1&team_name=Evil&state=forged")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	v := b.dashboard()
	assert.Nil(t, v.Linked)
	require.NotNil(t, v.Notice)
	assert.Equal(t, "Failed to connect your workspace. Please try again.", v.Notice.Message)
}

func TestLinkStateIsBoundToBrowser(t *testing.T) {
	r := newTestRouter(t, testOptions(), slack.New(slackConfig))

	victim := newBrowser(t, r)
	victim.signIn(ann)

	attacker := newBrowser(t, r)
	attacker.signIn(jwt.MapClaims{"sub": "evil"})
	state := startLink(t, attacker)

	victim.get("/dashboard?" + url.Values{
		"status": {"success"}, "team_id": {"T9"}, "state": {state},
	}.Encode())

	assert.Nil(t, victim.dashboard().Linked)
}

func TestStartLinkMissingConfiguration(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slack.Config{ClientID: "cid"})))
	b.signIn(ann)

	rec := b.get("/link/slack")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, DashboardPath, rec.Header().Get("Location"))

	v := b.dashboard()
	require.NotNil(t, v.Notice)
	assert.Equal(t, "The workspace integration is not configured.", v.Notice.Message)
}

func TestStartLinkUnknownProvider(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))
	b.signIn(ann)

	assert.Equal(t, http.StatusNotFound, b.get("/link/teams").Code)
}

func TestStartLinkRequiresSession(t *testing.T) {
	b := newBrowser(t, newTestRouter(t, testOptions(), slack.New(slackConfig)))

	rec := b.get("/link/slack")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth?from=%2Flink%2Fslack", rec.Header().Get("Location"))
}

func TestSafeReturnPath(t *testing.T) {
	cases := map[string]string{
		"":                   "/dashboard",
		"/dashboard":         "/dashboard",
		"/dashboard?tab=a":   "/dashboard?tab=a",
		"/authors":           "/authors",
		"https://evil.com":   "/dashboard",
		"//evil.com":         "/dashboard",
		"/\\evil.com":        "/dashboard",
		"/auth":              "/dashboard",
		"/auth/google":       "/dashboard",
		"/auth?from=%2Fauth": "/dashboard",
		"dashboard":          "/dashboard",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeReturnPath(in, DashboardPath), "input %q", in)
	}
}

func TestValidGoogleCSRF(t *testing.T) {
	assert.True(t, validGoogleCSRF("abc", "abc"))
	assert.False(t, validGoogleCSRF("abc", "abd"))
	assert.False(t, validGoogleCSRF("", ""))
	assert.False(t, validGoogleCSRF("abc", ""))
}
