package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
	"github.com/mehuljv/shopstack-backend/pkg/payment/stripe"
)

// webhookBodyLimit bounds how much of a webhook payload is read
const webhookBodyLimit = 1 << 20 // 1 MiB

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

type CreateIntentRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// CreateIntent creates a payment intent for an unpaid order
// POST /api/v1/payments/intent
func (ctrl *PaymentController) CreateIntent(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	result, err := ctrl.paymentService.CreateIntentForOrder(c.Request.Context(), userID, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apierrors.NotFound(c, apierrors.CodeOrderNotFound, "order not found")
		case errors.Is(err, service.ErrOrderAlreadyPaid):
			apierrors.Conflict(c, apierrors.CodePaymentFailed, "order is already paid")
		case errors.Is(err, service.ErrPaymentsNotConfigured):
			apierrors.RespondWithError(c, http.StatusServiceUnavailable, apierrors.CodePaymentFailed, "payments are not available")
		default:
			log.Error("Failed to create payment intent", err, map[string]interface{}{
				"order_id": req.OrderID,
			})
			apierrors.InternalError(c, "failed to create payment intent")
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Webhook receives Stripe webhook events. Signature failures return 400 so
// Stripe retries with a correct signature; everything else is acknowledged.
// POST /api/v1/payments/webhook
func (ctrl *PaymentController) Webhook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit))
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "failed to read payload")
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if err := ctrl.paymentService.HandleWebhook(payload, sigHeader); err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			apierrors.BadRequest(c, apierrors.CodePaymentNotVerified, "invalid webhook signature")
			return
		}
		log.Error("Webhook processing failed", err)
		apierrors.InternalError(c, "webhook processing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Refund issues a full refund for an order (admin)
// POST /api/v1/admin/orders/:id/refund
func (ctrl *PaymentController) Refund(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid order ID")
		return
	}

	order, err := ctrl.paymentService.RefundOrder(c.Request.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apierrors.NotFound(c, apierrors.CodeOrderNotFound, "order not found")
		case errors.Is(err, service.ErrOrderNotRefundable):
			apierrors.Conflict(c, apierrors.CodePaymentRefundFailed, "order has no refundable payment")
		default:
			log.Error("Refund failed", err, map[string]interface{}{
				"order_id": orderID,
			})
			apierrors.InternalError(c, "refund failed")
		}
		return
	}

	c.JSON(http.StatusOK, order)
}
