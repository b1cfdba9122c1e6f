package subscriber

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/landing/internal/models"
	"github.com/mx-space/landing/internal/pkg/metrics"
	"github.com/mx-space/landing/internal/pkg/response"
	"go.uber.org/zap"
)

const subscribedMessage = "Subscribed successfully"

// Mailer sends the signup confirmation.
type Mailer interface {
	SendConfirmation(to string) error
}

// Lifecycle is notified after every successful signup and removal.
type Lifecycle interface {
	OnSubscribe(ctx context.Context, email string)
	OnUnsubscribe(ctx context.Context, email string)
}

type Handler struct {
	store     Store
	mailer    Mailer
	lifecycle Lifecycle
	log       *zap.Logger
}

func NewHandler(store Store, mailer Mailer, lifecycle Lifecycle, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, mailer: mailer, lifecycle: lifecycle, log: log.Named("Subscriber")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/subscribe", h.subscribe)
	rg.POST("/unsubscribe", h.unsubscribe)
	rg.POST("/check-access", h.checkAccess)
	rg.GET("/site-status", h.siteStatus)
}

type emailDTO struct {
	Email string `json:"email"`
}

// bindEmail reads {email}. An empty body counts as a missing email.
func bindEmail(c *gin.Context) (string, bool) {
	var dto emailDTO
	if err := c.ShouldBindJSON(&dto); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "Invalid request body")
		return "", false
	}
	return models.NormalizeEmail(dto.Email), true
}

// POST /api/subscribe
func (h *Handler) subscribe(c *gin.Context) {
	email, ok := bindEmail(c)
	if !ok {
		metrics.Subscriptions.WithLabelValues("invalid").Inc()
		return
	}
	if email == "" {
		metrics.Subscriptions.WithLabelValues("invalid").Inc()
		response.BadRequest(c, "Email is required")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.Create(ctx, email); err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired):
			metrics.Subscriptions.WithLabelValues("invalid").Inc()
			response.BadRequest(c, "Email is required")
		case errors.Is(err, ErrDuplicate):
			metrics.Subscriptions.WithLabelValues("duplicate").Inc()
			response.BadRequest(c, ErrDuplicate.Error())
		default:
			metrics.Subscriptions.WithLabelValues("error").Inc()
			h.log.Error("create subscriber failed", zap.String("email", email), zap.Error(err))
			response.InternalError(c, err)
		}
		return
	}

	mailErr := h.mailer.SendConfirmation(email)
	if h.lifecycle != nil {
		h.lifecycle.OnSubscribe(ctx, email)
	}
	if mailErr != nil {
		metrics.Subscriptions.WithLabelValues("error").Inc()
		h.log.Error("confirmation mail failed, subscriber kept", zap.String("email", email), zap.Error(mailErr))
		response.InternalError(c, mailErr)
		return
	}

	metrics.Subscriptions.WithLabelValues("created").Inc()
	h.log.Info("subscribed", zap.String("email", email))
	response.OK(c, gin.H{"message": subscribedMessage})
}

// POST /api/unsubscribe
func (h *Handler) unsubscribe(c *gin.Context) {
	email, ok := bindEmail(c)
	if !ok {
		return
	}
	if email == "" {
		metrics.Unsubscriptions.WithLabelValues("not_found").Inc()
		response.NotFoundMsg(c, "Email not found")
		return
	}

	removed, err := h.store.Delete(c.Request.Context(), email)
	if err != nil {
		metrics.Unsubscriptions.WithLabelValues("error").Inc()
		h.log.Error("delete subscriber failed", zap.String("email", email), zap.Error(err))
		response.InternalError(c, err)
		return
	}
	if !removed {
		metrics.Unsubscriptions.WithLabelValues("not_found").Inc()
		response.NotFoundMsg(c, "Email not found")
		return
	}

	if h.lifecycle != nil {
		h.lifecycle.OnUnsubscribe(c.Request.Context(), email)
	}
	metrics.Unsubscriptions.WithLabelValues("removed").Inc()
	h.log.Info("unsubscribed", zap.String("email", email))
	response.OK(c, gin.H{"success": true})
}

// POST /api/check-access
func (h *Handler) checkAccess(c *gin.Context) {
	email, ok := bindEmail(c)
	if !ok {
		return
	}
	if email == "" {
		response.BadRequest(c, "Email is required")
		return
	}

	ctx := c.Request.Context()
	hasAccess := false
	sub, err := h.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		hasAccess = sub.Active()
	case errors.Is(err, ErrNotFound):
	default:
		h.log.Error("lookup subscriber failed", zap.String("email", email), zap.Error(err))
		response.InternalError(c, err)
		return
	}

	live, err := SiteLive(ctx, h.store)
	if err != nil {
		h.log.Error("count active subscribers failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"hasAccess": hasAccess, "siteLive": live})
}

// GET /api/site-status
func (h *Handler) siteStatus(c *gin.Context) {
	live, err := SiteLive(c.Request.Context(), h.store)
	if err != nil {
		h.log.Error("count active subscribers failed", zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"siteLive": live})
}
