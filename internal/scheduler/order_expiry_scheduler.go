package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mehuljv/shopstack-backend/internal/app/service"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
)

// OrderExpiryScheduler cancels pending orders that were never paid,
// returning their reserved stock to the catalog.
type OrderExpiryScheduler struct {
	cron         *cron.Cron
	orderService service.OrderService
	pendingTTL   time.Duration
}

func NewOrderExpiryScheduler(orderService service.OrderService, pendingTTL time.Duration) *OrderExpiryScheduler {
	return &OrderExpiryScheduler{
		cron:         cron.New(),
		orderService: orderService,
		pendingTTL:   pendingTTL,
	}
}

func (s *OrderExpiryScheduler) Start() error {
	_, err := s.cron.AddFunc("*/15 * * * *", func() {
		cutoff := time.Now().Add(-s.pendingTTL)

		cancelled, err := s.orderService.CancelExpiredOrders(cutoff)
		if err != nil {
			logger.Error("Failed to cancel expired orders", err)
			return
		}

		if cancelled > 0 {
			logger.Info("Cancelled expired pending orders", map[string]interface{}{
				"count":  cancelled,
				"cutoff": cutoff.Format(time.RFC3339),
			})
		}
	})
	if err != nil {
		logger.Error("Failed to register order expiry job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Order expiry scheduler started (every 15 minutes)", map[string]interface{}{
		"pending_ttl": s.pendingTTL.String(),
	})

	return nil
}

func (s *OrderExpiryScheduler) Stop() {
	logger.Info("Stopping order expiry scheduler...", nil)
	s.cron.Stop()
	logger.Info("Order expiry scheduler stopped", nil)
}
