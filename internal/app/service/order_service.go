package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mehuljv/shopstack-backend/config"
	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"github.com/mehuljv/shopstack-backend/pkg/payment/stripe"
	"github.com/mehuljv/shopstack-backend/pkg/util"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidAddress        = errors.New("shipping address is incomplete")
	ErrStockConflict         = errors.New("insufficient stock")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrTransactionAborted    = errors.New("order transaction aborted, please retry")
	ErrPaymentNotVerified    = errors.New("payment could not be verified")
	ErrPaymentAmountMismatch = errors.New("payment amount does not match order total")
)

// StockConflictError reports which product could not cover the requested
// quantity. It matches ErrStockConflict under errors.Is.
type StockConflictError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *StockConflictError) Is(target error) bool {
	return target == ErrStockConflict
}

// createOrderMaxAttempts bounds retries when the database aborts the
// checkout transaction under concurrent load.
const createOrderMaxAttempts = 3

// CreateOrderInput carries everything needed to place an order
type CreateOrderInput struct {
	ShippingAddress model.Address
	BillingAddress  model.Address
	PaymentMethod   string
	PaymentIntentID string
}

// PaymentGateway is the slice of the Stripe client the order service needs
type PaymentGateway interface {
	GetPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
}

type OrderService interface {
	CreateOrderFromCart(ctx context.Context, userID uint, input CreateOrderInput) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID uint, orderID uint, isAdmin bool) (*model.Order, error)
	GetAllOrders(filter repository.OrderFilter) ([]model.Order, int64, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus, trackingNumber, notes string) (*model.Order, error)
	UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error)
	CancelOrder(userID, orderID uint) (*model.Order, error)
	CancelExpiredOrders(olderThan time.Time) (int, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	gateway   PaymentGateway
	checkout  config.CheckoutConfig
	db        *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	gateway PaymentGateway,
	checkout config.CheckoutConfig,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		gateway:   gateway,
		checkout:  checkout,
		db:        db,
	}
}

func (s *orderService) CreateOrderFromCart(ctx context.Context, userID uint, input CreateOrderInput) (*model.Order, error) {
	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id":        userID,
		"payment_method": input.PaymentMethod,
	})

	if !input.ShippingAddress.IsComplete() {
		logger.Warn("Order creation rejected: incomplete shipping address", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrInvalidAddress
	}
	if input.BillingAddress == (model.Address{}) {
		input.BillingAddress = input.ShippingAddress
	}

	var (
		order *model.Order
		err   error
	)
	for attempt := 1; attempt <= createOrderMaxAttempts; attempt++ {
		order, err = s.createOrderAttempt(ctx, userID, input)
		if err == nil || !isRetryableTxError(err) {
			break
		}
		logger.Warn("Order transaction aborted, retrying", map[string]interface{}{
			"user_id": userID,
			"attempt": attempt,
		})
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	if err != nil {
		if isRetryableTxError(err) {
			logger.Error("Order transaction aborted after retries", err, map[string]interface{}{
				"user_id":  userID,
				"attempts": createOrderMaxAttempts,
			})
			return nil, ErrTransactionAborted
		}
		return nil, err
	}

	logger.Info("Order created successfully", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total.String(),
		"item_count":   len(order.OrderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

// createOrderAttempt runs one checkout transaction: lock the cart's
// products, snapshot prices, decrement stock with a guarded update, insert
// the order and clear the cart. Any failure rolls back the whole attempt.
func (s *orderService) createOrderAttempt(ctx context.Context, userID uint, input CreateOrderInput) (*model.Order, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order creation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	// The cart is read inside the transaction, under lock, so lines added
	// or removed after checkout starts cannot leak into or out of this order.
	var cartItems []model.CartItem
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&cartItems).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to fetch cart items", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if len(cartItems) == 0 {
		tx.Rollback()
		logger.Warn("Cannot create order: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	var (
		subtotal   = decimal.Zero
		orderItems []model.OrderItem
	)

	for _, cartItem := range cartItems {
		var product model.Product
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, cartItem.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Product not found during order creation", map[string]interface{}{
					"user_id":    userID,
					"product_id": cartItem.ProductID,
				})
				return nil, ErrProductNotFound
			}
			logger.Error("Failed to fetch product during order creation", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": cartItem.ProductID,
			})
			return nil, err
		}

		if !product.IsActive {
			tx.Rollback()
			logger.Warn("Order creation failed: product no longer available", map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
			})
			return nil, ErrProductUnavailable
		}

		if product.StockQuantity < cartItem.Quantity {
			tx.Rollback()
			logger.Warn("Order creation failed: insufficient stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
				"requested":  cartItem.Quantity,
				"available":  product.StockQuantity,
			})
			return nil, &StockConflictError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   cartItem.Quantity,
				Available:   product.StockQuantity,
			}
		}

		// Guarded decrement: the stock_quantity >= ? condition keeps the
		// count from ever going negative even if another transaction slipped
		// in between the locked read and this update.
		result := tx.Model(&model.Product{}).
			Where("id = ? AND stock_quantity >= ?", product.ID, cartItem.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", cartItem.Quantity))
		if result.Error != nil {
			tx.Rollback()
			logger.Error("Failed to decrement product stock", result.Error, map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
			})
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			logger.Warn("Order creation failed: stock changed under lock", map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
				"requested":  cartItem.Quantity,
			})
			return nil, &StockConflictError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   cartItem.Quantity,
				Available:   product.StockQuantity,
			}
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(cartItem.Quantity)))
		orderItems = append(orderItems, model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    cartItem.Quantity,
			LineTotal:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	tax, shippingFee, total := s.computeTotals(subtotal)

	order := &model.Order{
		OrderNumber:     util.GenerateOrderNumber(time.Now()),
		UserID:          userID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusUnpaid,
		PaymentMethod:   input.PaymentMethod,
		PaymentIntentID: input.PaymentIntentID,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingFee:     shippingFee,
		Total:           total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		OrderItems:      orderItems,
	}

	if input.PaymentIntentID != "" {
		if err := s.verifyPayment(ctx, input.PaymentIntentID, total); err != nil {
			tx.Rollback()
			return nil, err
		}
		now := time.Now()
		order.PaymentStatus = model.PaymentStatusPaid
		order.PaidAt = &now
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
			"total":   total.String(),
		})
		return nil, err
	}

	// Only the lines this order consumed are cleared; anything the user
	// added while checkout was running stays in the cart.
	consumed := make([]uint, 0, len(cartItems))
	for _, cartItem := range cartItems {
		consumed = append(consumed, cartItem.ProductID)
	}
	if err := tx.Where("user_id = ? AND product_id IN ?", userID, consumed).
		Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to clear cart after order creation", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	return order, nil
}

// computeTotals applies tax and the shipping rule to a subtotal. Orders at
// or above the free shipping threshold ship for nothing.
func (s *orderService) computeTotals(subtotal decimal.Decimal) (tax, shippingFee, total decimal.Decimal) {
	tax = subtotal.Mul(decimal.NewFromFloat(s.checkout.TaxRate)).Round(2)

	shippingFee = decimal.NewFromFloat(s.checkout.ShippingFee)
	if subtotal.GreaterThanOrEqual(decimal.NewFromFloat(s.checkout.FreeShippingThreshold)) {
		shippingFee = decimal.Zero
	}

	total = subtotal.Add(tax).Add(shippingFee).Round(2)
	return tax, shippingFee, total
}

// verifyPayment checks that a client-supplied payment intent has actually
// succeeded and covers the order total before the order is marked paid.
func (s *orderService) verifyPayment(ctx context.Context, intentID string, total decimal.Decimal) error {
	if s.gateway == nil {
		logger.Warn("Payment intent supplied but no gateway configured", map[string]interface{}{
			"intent_id": intentID,
		})
		return ErrPaymentNotVerified
	}

	intent, err := s.gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		logger.Error("Failed to retrieve payment intent", err, map[string]interface{}{
			"intent_id": intentID,
		})
		return ErrPaymentNotVerified
	}
	if intent.Status != stripe.IntentStatusSucceeded {
		logger.Warn("Payment intent has not succeeded", map[string]interface{}{
			"intent_id": intentID,
			"status":    intent.Status,
		})
		return ErrPaymentNotVerified
	}

	// Stripe amounts are in the smallest currency unit
	expected := total.Mul(decimal.NewFromInt(100)).IntPart()
	if intent.Amount != expected {
		logger.Warn("Payment intent amount mismatch", map[string]interface{}{
			"intent_id": intentID,
			"expected":  expected,
			"actual":    intent.Amount,
		})
		return ErrPaymentAmountMismatch
	}

	return nil
}

// isRetryableTxError reports whether the database aborted the transaction
// for reasons a clean retry can fix (serialization failures, deadlocks).
func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40p01") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "serialization failure")
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	logger.Debug("Fetching user orders", map[string]interface{}{
		"user_id": userID,
	})

	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrderByID(userID uint, orderID uint, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	// Non-admins only ever see their own orders; report not-found rather
	// than leaking that the order exists.
	if !isAdmin && order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}

	return order, nil
}

func (s *orderService) GetAllOrders(filter repository.OrderFilter) ([]model.Order, int64, error) {
	return s.orderRepo.FindAll(filter)
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus, trackingNumber, notes string) (*model.Order, error) {
	logger.Info("Updating order status", map[string]interface{}{
		"order_id":   orderID,
		"new_status": status,
	})

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		logger.Warn("Rejected order status transition", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       status,
		})
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	if status == model.OrderStatusCancelled {
		return s.cancelOrderTx(order)
	}

	order.Status = status
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if notes != "" {
		order.Notes = notes
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	logger.Info("Order status updated successfully", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return order, nil
}

func (s *orderService) UpdatePaymentStatus(orderID uint, status model.PaymentStatus) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.PaymentStatus.CanTransitionTo(status) {
		logger.Warn("Rejected payment status transition", map[string]interface{}{
			"order_id": orderID,
			"from":     order.PaymentStatus,
			"to":       status,
		})
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.PaymentStatus, status)
	}

	order.PaymentStatus = status
	if status == model.PaymentStatusPaid {
		now := time.Now()
		order.PaidAt = &now
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	logger.Info("Payment status updated successfully", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return order, nil
}

func (s *orderService) CancelOrder(userID, orderID uint) (*model.Order, error) {
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

	if !order.Status.CanTransitionTo(model.OrderStatusCancelled) {
		logger.Warn("Rejected order cancellation", map[string]interface{}{
			"order_id": orderID,
			"status":   order.Status,
		})
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, model.OrderStatusCancelled)
	}

	return s.cancelOrderTx(order)
}

// cancelOrderTx cancels an order and restores the stock it had reserved,
// atomically. Paid orders move to refund_pending for the payment flow to
// pick up.
func (s *orderService) cancelOrderTx(order *model.Order) (*model.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.OrderItems {
			if err := tx.Model(&model.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
				logger.Error("Failed to restore product stock on cancellation", err, map[string]interface{}{
					"order_id":   order.ID,
					"product_id": item.ProductID,
				})
				return err
			}
		}

		now := time.Now()
		order.Status = model.OrderStatusCancelled
		order.CancelledAt = &now
		if order.PaymentStatus == model.PaymentStatusPaid {
			order.PaymentStatus = model.PaymentStatusRefundPending
		}

		return tx.Save(order).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
	})
	return order, nil
}

// CancelExpiredOrders cancels unpaid pending orders created before the
// cutoff and restores their stock. Used by the background scheduler.
func (s *orderService) CancelExpiredOrders(olderThan time.Time) (int, error) {
	orders, err := s.orderRepo.FindExpiredPending(olderThan)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range orders {
		if _, err := s.cancelOrderTx(&orders[i]); err != nil {
			logger.Error("Failed to cancel expired order", err, map[string]interface{}{
				"order_id": orders[i].ID,
			})
			continue
		}
		cancelled++
	}

	if cancelled > 0 {
		logger.Info("Expired orders cancelled", map[string]interface{}{
			"count": cancelled,
		})
	}
	return cancelled, nil
}
