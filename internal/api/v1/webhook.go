package v1

import (
	"io"
	"net/http"

	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/flexprice/curbside/internal/service"
	"github.com/gin-gonic/gin"
)

// maxWebhookBodyBytes matches the provider's documented payload ceiling
const maxWebhookBodyBytes = 65536

// WebhookHandler handles webhook-related endpoints
type WebhookHandler struct {
	service service.WebhookService
	logger  *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary Handle Stripe webhook
// @Description Verify and process a Stripe event; retries of failed deliveries are processed again
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe webhook signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Errorw("failed to read request body", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.logger.Errorw("missing Stripe-Signature header")
		c.Error(ierr.NewError("missing Stripe-Signature header").
			WithHint("Missing Stripe-Signature header").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.HandleWebhook(c.Request.Context(), body, signature)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
