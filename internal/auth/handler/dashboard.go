package handler

import (
	"errors"
	"net/http"

	"replica-auth/internal/dashboard"
	"replica-auth/internal/link"
	"replica-auth/internal/logger"
	"replica-auth/internal/middleware"
	"replica-auth/internal/session"

	"github.com/gin-gonic/gin"
)

// dashboardPage reconciles any linking callback on the URL, then renders. When
// callback parameters were present the browser is sent to the clean URL and
// the outcome is shown on that next render.
func (h *Handler) dashboardPage(c *gin.Context) {
	b, ok := browserOf(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sess, _ := middleware.SessionFromContext(ctx)

	states := link.NewStateStore(b.KV, h.opts.LinkStateTTL)
	res := link.NewReconciler(states).Reconcile(ctx, c.Request.URL, sess.SubjectID)

	if res.Outcome != link.OutcomeNone {
		fields := map[string]any{"linked": res.Outcome == link.OutcomeLinked}
		if res.Err != nil {
			fields["error"] = res.Err.Error()
		}
		logger.Info("link callback reconciled", fields)
	}

	if res.Stripped {
		err := putFlash(ctx, b.KV, h.opts.FlashTTL, flash{Account: res.Account, Notice: res.Notice})
		if err == nil {
			c.Redirect(http.StatusSeeOther, res.URL.RequestURI())
			return
		}
		logger.Error("flash write failed, rendering in place", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusOK, h.view(sess, flash{Account: res.Account, Notice: res.Notice}))
		return
	}

	c.JSON(http.StatusOK, h.view(sess, takeFlash(ctx, b.KV)))
}

// startLink redirects the browser to the provider's consent screen.
func (h *Handler) startLink(c *gin.Context) {
	name := c.Param("provider")

	p, err := h.providers.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "unknown link provider",
		})
		return
	}

	b, ok := browserOf(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sess, _ := middleware.SessionFromContext(ctx)

	builder := link.NewBuilder(p, link.NewStateStore(b.KV, h.opts.LinkStateTTL))
	authURL, err := builder.BuildAuthorizationURL(ctx, sess.SubjectID)
	if err != nil {
		message := "Could not start the workspace connection. Please try again."
		if errors.Is(err, link.ErrMissingConfiguration) {
			message = "The workspace integration is not configured."
		}
		logger.Error("link request refused", map[string]any{
			"provider": name,
			"error":    err.Error(),
		})

		notice := &link.Notification{Level: link.LevelError, Message: message}
		if err := putFlash(ctx, b.KV, h.opts.FlashTTL, flash{Notice: notice}); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": message})
			return
		}
		c.Redirect(http.StatusSeeOther, DashboardPath)
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) view(sess session.Session, f flash) dashboard.View {
	return dashboard.NewView(sess, f.Account, f.Notice, h.opts.Surfaces, "/link/"+h.opts.DefaultLinkProvider)
}
