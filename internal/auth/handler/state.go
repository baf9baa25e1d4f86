package handler

import (
	"crypto/subtle"
	"strings"
)

// googleCSRFName is both the cookie and the form field Google Identity
// Services sets when it posts a credential to the login URI.
const googleCSRFName = "g_csrf_token"

func validGoogleCSRF(cookieValue, formValue string) bool {
	if cookieValue == "" || formValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(formValue)) == 1
}

// safeReturnPath keeps post-sign-in redirects on this origin.
func safeReturnPath(from, fallback string) string {
	if from == "" ||
		!strings.HasPrefix(from, "/") ||
		strings.HasPrefix(from, "//") ||
		strings.HasPrefix(from, "/\\") ||
		from == SignInPath ||
		strings.HasPrefix(from, SignInPath+"/") ||
		strings.HasPrefix(from, SignInPath+"?") {
		return fallback
	}
	return from
}
