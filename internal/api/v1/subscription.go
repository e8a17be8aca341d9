package v1

import (
	"net/http"

	"github.com/flexprice/curbside/internal/api/dto"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/flexprice/curbside/internal/logger"
	"github.com/flexprice/curbside/internal/service"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service    service.SubscriptionService
	reconciler service.ReconcilerService
	log        *logger.Logger
}

func NewSubscriptionHandler(
	service service.SubscriptionService,
	reconciler service.ReconcilerService,
	log *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:    service,
		reconciler: reconciler,
		log:        log,
	}
}

// @Summary Quote subscription
// @Description Price the phase list a signup for the given addresses would produce
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Addresses"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /subscriptions/quote [post]
func (h *SubscriptionHandler) Quote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Create subscription
// @Description Create a customer and a subscription billing every address, attaching the seasonal schedule once payable
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body dto.CreateSubscriptionRequest true "Signup"
// @Success 201 {object} dto.CreateSubscriptionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateSubscription(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("failed to create subscription", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Reconcile subscription
// @Description Attach the seasonal schedule to a subscription now instead of waiting for a webhook
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /subscriptions/{id}/reconcile [post]
func (h *SubscriptionHandler) Reconcile(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("subscription id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("failed to reconcile subscription", "subscription_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		SubscriptionID: result.SubscriptionID,
		ScheduleID:     result.ScheduleID,
		Outcome:        string(result.Outcome),
		Phases:         result.Phases,
		Truncated:      result.Truncated,
		SkippedChunks:  result.SkippedChunks,
	})
}
