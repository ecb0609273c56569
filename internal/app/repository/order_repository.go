package repository

import (
	"time"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"gorm.io/gorm"
)

// OrderFilter narrows admin order listings
type OrderFilter struct {
	UserID   uint
	Status   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByOrderNumber(orderNumber string) (*model.Order, error)
	FindByPaymentIntentID(intentID string) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindAll(filter OrderFilter) ([]model.Order, int64, error)
	Update(order *model.Order) error
	FindExpiredPending(olderThan time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Product")
	}).Preload("User")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"total":        order.Total.String(),
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"order_number": order.OrderNumber,
			"user_id":      order.UserID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByOrderNumber(orderNumber string) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByPaymentIntentID(intentID string) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Where("payment_intent_id = ?", intentID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindAll(filter OrderFilter) ([]model.Order, int64, error) {
	query := r.db.Model(&model.Order{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count orders in database", err)
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var orders []model.Order
	if err := query.Preload("OrderItems").Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders in database", err)
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})

	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) FindExpiredPending(olderThan time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("OrderItems").
		Where("status = ? AND payment_status = ? AND created_at < ?",
			model.OrderStatusPending, model.PaymentStatusUnpaid, olderThan).
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find expired pending orders in database", err)
		return nil, err
	}
	return orders, nil
}
