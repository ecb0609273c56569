package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"github.com/mehuljv/shopstack-backend/pkg/payment/stripe"
)

var (
	ErrOrderAlreadyPaid      = errors.New("order is already paid")
	ErrOrderNotRefundable    = errors.New("order has no refundable payment")
	ErrPaymentsNotConfigured = errors.New("payment gateway is not configured")
)

// StripeGateway is the slice of the Stripe client the payment service needs.
// *stripe.Client satisfies it.
type StripeGateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, metadata map[string]string) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
	CreateRefund(ctx context.Context, intentID string, amount int64) (*stripe.Refund, error)
	ConstructEvent(payload []byte, sigHeader string) (*stripe.Event, error)
}

// PaymentIntentResult is returned to the client so it can confirm the
// payment browser-side.
type PaymentIntentResult struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type PaymentService interface {
	CreateIntentForOrder(ctx context.Context, userID, orderID uint) (*PaymentIntentResult, error)
	HandleWebhook(payload []byte, sigHeader string) error
	RefundOrder(ctx context.Context, orderID uint) (*model.Order, error)
}

type paymentService struct {
	orderRepo repository.OrderRepository
	gateway   StripeGateway
}

func NewPaymentService(orderRepo repository.OrderRepository, gateway StripeGateway) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
	}
}

func (s *paymentService) CreateIntentForOrder(ctx context.Context, userID, orderID uint) (*PaymentIntentResult, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsNotConfigured
	}

	logger.Info("Creating payment intent for order", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	if order.PaymentStatus != model.PaymentStatusUnpaid {
		return nil, ErrOrderAlreadyPaid
	}

	amount := order.Total.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := s.gateway.CreatePaymentIntent(ctx, amount, map[string]string{
		"order_id":     strconv.FormatUint(uint64(order.ID), 10),
		"order_number": order.OrderNumber,
	})
	if err != nil {
		logger.Error("Failed to create payment intent", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	order.PaymentIntentID = intent.ID
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	return &PaymentIntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}

// HandleWebhook verifies and applies a Stripe webhook event. Unknown event
// types are acknowledged and ignored.
func (s *paymentService) HandleWebhook(payload []byte, sigHeader string) error {
	if s.gateway == nil {
		return ErrPaymentsNotConfigured
	}

	event, err := s.gateway.ConstructEvent(payload, sigHeader)
	if err != nil {
		logger.Warn("Rejected webhook with bad signature", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	logger.Info("Processing payment webhook", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	switch event.Type {
	case stripe.EventPaymentIntentSucceeded:
		return s.applyIntentSucceeded(event)
	case stripe.EventChargeRefunded:
		return s.applyChargeRefunded(event)
	case stripe.EventPaymentIntentFailed:
		// Order stays unpaid; the expiry job reclaims stock later
		return nil
	default:
		return nil
	}
}

func (s *paymentService) applyIntentSucceeded(event *stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return fmt.Errorf("failed to decode payment intent from event: %w", err)
	}

	order, err := s.orderRepo.FindByPaymentIntentID(intent.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Webhook for unknown payment intent", map[string]interface{}{
				"intent_id": intent.ID,
			})
			return nil
		}
		return err
	}

	// Webhooks can be delivered more than once and out of order
	if !order.PaymentStatus.CanTransitionTo(model.PaymentStatusPaid) {
		return nil
	}

	now := time.Now()
	order.PaymentStatus = model.PaymentStatusPaid
	order.PaidAt = &now
	if err := s.orderRepo.Update(order); err != nil {
		return err
	}

	logger.Info("Order marked paid via webhook", map[string]interface{}{
		"order_id":  order.ID,
		"intent_id": intent.ID,
	})
	return nil
}

func (s *paymentService) applyChargeRefunded(event *stripe.Event) error {
	var charge struct {
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
		return fmt.Errorf("failed to decode charge from event: %w", err)
	}
	if charge.PaymentIntent == "" {
		return nil
	}

	order, err := s.orderRepo.FindByPaymentIntentID(charge.PaymentIntent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if order.PaymentStatus == model.PaymentStatusRefunded {
		return nil
	}
	// A refund event for an order that was never paid is a stray; acknowledge
	// it without touching the order.
	if !order.PaymentStatus.CanTransitionTo(model.PaymentStatusRefunded) {
		logger.Warn("Ignoring refund event for order not in a refundable state", map[string]interface{}{
			"order_id":       order.ID,
			"payment_status": order.PaymentStatus,
		})
		return nil
	}
	order.PaymentStatus = model.PaymentStatusRefunded
	if err := s.orderRepo.Update(order); err != nil {
		return err
	}

	logger.Info("Order marked refunded via webhook", map[string]interface{}{
		"order_id": order.ID,
	})
	return nil
}

// RefundOrder issues a full refund for a paid or refund-pending order
func (s *paymentService) RefundOrder(ctx context.Context, orderID uint) (*model.Order, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsNotConfigured
	}

	logger.Info("Refunding order", map[string]interface{}{
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.PaymentIntentID == "" ||
		!order.PaymentStatus.CanTransitionTo(model.PaymentStatusRefunded) {
		return nil, ErrOrderNotRefundable
	}

	if _, err := s.gateway.CreateRefund(ctx, order.PaymentIntentID, 0); err != nil {
		logger.Error("Failed to create refund", err, map[string]interface{}{
			"order_id":  orderID,
			"intent_id": order.PaymentIntentID,
		})
		return nil, err
	}

	order.PaymentStatus = model.PaymentStatusRefunded
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	logger.Info("Order refunded", map[string]interface{}{
		"order_id": orderID,
	})
	return order, nil
}
