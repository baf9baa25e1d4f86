package handler

import (
	"net/http"
	"net/url"

	"replica-auth/internal/logger"
	"replica-auth/internal/session"

	"github.com/gin-gonic/gin"
)

const signInFailed = "signin_failed"

// signInPage describes the sign-in widget. A browser that already has a
// session is sent back to where it came from.
func (h *Handler) signInPage(c *gin.Context) {
	b, ok := browserOf(c)
	if !ok {
		return
	}

	b.Sessions.Restore(c.Request.Context())
	from := safeReturnPath(c.Query("from"), DashboardPath)

	if b.Sessions.Snapshot().State == session.Authenticated {
		c.Redirect(http.StatusFound, from)
		return
	}

	resp := gin.H{
		"from":           from,
		"login_uri":      GoogleCallbackPath + "?" + url.Values{"from": {from}}.Encode(),
		"widget_enabled": h.opts.GoogleClientID != "",
	}

	if h.opts.GoogleClientID == "" {
		logger.Error("google client id is not configured", nil)
		resp["error"] = "Google sign-in is not configured."
	} else {
		resp["google_client_id"] = h.opts.GoogleClientID
	}

	if c.Query("error") == signInFailed {
		resp["notice"] = gin.H{
			"level":   "error",
			"message": "Sign-in failed. Please try again.",
		}
	}

	c.JSON(http.StatusOK, resp)
}

// googleCallback receives the credential Google Identity Services posts in
// redirect mode.
func (h *Handler) googleCallback(c *gin.Context) {
	if h.opts.GoogleClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "google sign-in is not configured",
		})
		return
	}

	b, ok := browserOf(c)
	if !ok {
		return
	}

	var cookieToken string
	if cookie, err := c.Request.Cookie(googleCSRFName); err == nil {
		cookieToken = cookie.Value
	}
	if !validGoogleCSRF(cookieToken, c.PostForm(googleCSRFName)) {
		logger.Warn("google sign-in csrf check failed", map[string]any{
			"cookie_present": cookieToken != "",
		})
		c.JSON(http.StatusForbidden, gin.H{
			"error": "invalid csrf token",
		})
		return
	}

	var resp session.CredentialResponse
	if err := c.ShouldBind(&resp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	from := safeReturnPath(c.Query("from"), DashboardPath)

	if err := b.Sessions.SignIn(c.Request.Context(), resp); err != nil {
		logger.Warn("sign-in failed", map[string]any{
			"error":              err.Error(),
			"credential_present": resp.Credential != "",
		})
		c.Redirect(http.StatusSeeOther, SignInPath+"?"+url.Values{
			"from":  {from},
			"error": {signInFailed},
		}.Encode())
		return
	}

	logger.Info("signed in", map[string]any{
		"select_by": resp.SelectBy,
	})

	c.Redirect(http.StatusSeeOther, from)
}
