package app

import (
	"net/http"

	"replica-auth/internal/auth/handler"
	"replica-auth/internal/auth/idtoken"
	"replica-auth/internal/auth/provider"
	"replica-auth/internal/auth/provider/slack"
	"replica-auth/internal/config"
	"replica-auth/internal/dashboard"
	"replica-auth/internal/logger"
	"replica-auth/internal/middleware"
	"replica-auth/internal/session"

	"github.com/gin-gonic/gin"
)

func newRouter(infra *Infra, cfg config.Config) *gin.Engine {

	// ----------------------------
	// Dependencies
	// ----------------------------

	slackProvider := slack.New(slack.Config{
		ClientID:     cfg.SlackClientID,
		Scopes:       cfg.SlackScopes,
		RedirectURI:  cfg.SlackRedirectURI,
		AuthorizeURL: cfg.SlackAuthorizeURL,
	})

	registry := provider.NewRegistry(slackProvider)

	browsers := middleware.NewBrowsers(
		infra.KV,
		idtoken.Decode,
		session.CookieOptions{
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		},
	)

	gate := middleware.NewGate(handler.SignInPath)

	authHandler := handler.NewHandler(registry, handler.Options{
		GoogleClientID:      cfg.GoogleClientID,
		DefaultLinkProvider: slackProvider.Name(),
		LinkStateTTL:        cfg.LinkStateTTL,
		FlashTTL:            cfg.FlashTTL,
		Surfaces: []dashboard.SurfaceConfig{
			{Name: "Collector", BaseURL: cfg.CollectorURL, NeedsTeam: true},
			{Name: "Manager", BaseURL: cfg.ManagerURL},
		},
	})

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Every other route knows which browser it serves.
	browserScoped := router.Group("/")
	browserScoped.Use(middleware.Gin(browsers.Attach))

	authHandler.RegisterRoutes(browserScoped, middleware.Gin(gate.RequireSession))

	for _, route := range router.Routes() {
		logger.Debug("route registered", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}

	return router
}
