package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin adapts a net/http middleware to Gin. The wrapped middleware decides
// whether the rest of the chain runs.
func Gin(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false

		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		// The middleware answered on its own; stop the Gin chain.
		if !called {
			c.Abort()
		}
	}
}
