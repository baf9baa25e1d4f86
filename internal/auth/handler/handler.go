package handler

import (
	"net/http"
	"time"

	"replica-auth/internal/auth/provider"
	"replica-auth/internal/dashboard"
	"replica-auth/internal/logger"
	"replica-auth/internal/middleware"

	"github.com/gin-gonic/gin"
)

const (
	SignInPath         = "/auth"
	GoogleCallbackPath = "/auth/google"
	LogoutPath         = "/auth/logout"
	DashboardPath      = "/dashboard"
)

type Options struct {
	GoogleClientID      string
	DefaultLinkProvider string
	LinkStateTTL        time.Duration
	FlashTTL            time.Duration
	Surfaces            []dashboard.SurfaceConfig
}

type Handler struct {
	providers *provider.Registry
	opts      Options
}

func NewHandler(registry *provider.Registry, opts Options) *Handler {
	return &Handler{
		providers: registry,
		opts:      opts,
	}
}

// RegisterRoutes mounts the public routes on r and the protected ones behind
// gate. r must already carry the browser middleware.
func (h *Handler) RegisterRoutes(r gin.IRouter, gate gin.HandlerFunc) {
	r.GET(SignInPath, h.signInPage)
	r.POST(GoogleCallbackPath, h.googleCallback)
	r.POST(LogoutPath, h.Logout)

	protected := r.Group("/")
	protected.Use(gate)
	protected.GET(DashboardPath, h.dashboardPage)
	protected.GET("/link/:provider", h.startLink)
}

func (h *Handler) Logout(c *gin.Context) {
	b, ok := browserOf(c)
	if !ok {
		return
	}

	if err := b.Sessions.SignOut(c.Request.Context()); err != nil {
		// local state is already cleared; storage is best-effort
		logger.Error("sign-out storage clear failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("signed out", nil)

	c.Redirect(http.StatusSeeOther, SignInPath)
}

func browserOf(c *gin.Context) (*middleware.Browser, bool) {
	b, ok := middleware.BrowserFromContext(c.Request.Context())
	if !ok {
		logger.Error("browser context missing", map[string]any{
			"path": c.Request.URL.Path,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
		})
	}
	return b, ok
}
