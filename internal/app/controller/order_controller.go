package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type AddressRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone"`
}

func (r AddressRequest) toModel() model.Address {
	return model.Address{
		FullName:   r.FullName,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
	}
}

type CreateOrderRequest struct {
	ShippingAddress AddressRequest  `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressRequest `json:"billing_address"`
	PaymentMethod   string          `json:"payment_method" binding:"required"`
	PaymentIntentID string          `json:"payment_intent_id"`
}

type UpdateOrderStatusRequest struct {
	Status         model.OrderStatus `json:"order_status" binding:"required"`
	TrackingNumber string            `json:"tracking_number"`
	Notes          string            `json:"notes"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus model.PaymentStatus `json:"payment_status" binding:"required"`
}

// CreateOrder places an order from the user's cart
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create order request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	input := service.CreateOrderInput{
		ShippingAddress: req.ShippingAddress.toModel(),
		PaymentMethod:   req.PaymentMethod,
		PaymentIntentID: req.PaymentIntentID,
	}
	if req.BillingAddress != nil {
		input.BillingAddress = req.BillingAddress.toModel()
	}

	order, err := ctrl.orderService.CreateOrderFromCart(c.Request.Context(), userID, input)
	if err != nil {
		ctrl.respondOrderError(c, userID, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetMyOrders lists the caller's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetMyOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apierrors.InternalError(c, "failed to fetch orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns one order. Users see only their own; admins see any.
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid order ID")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, orderID, middleware.IsAdmin(c))
	if err != nil {
		ctrl.respondOrderError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder cancels the caller's own order while it is still cancellable
// POST /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid order ID")
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, orderID)
	if err != nil {
		ctrl.respondOrderError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders lists all orders with filters (admin)
// GET /api/v1/admin/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.OrderFilter{
		Status: c.Query("status"),
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		filter.UserID = uint(userID)
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil {
		filter.PageSize = pageSize
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}

	orders, total, err := ctrl.orderService.GetAllOrders(filter)
	if err != nil {
		log.Error("Failed to list orders", err)
		apierrors.InternalError(c, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

// UpdateOrderStatus moves an order through the fulfilment state machine (admin)
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order status request", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(orderID, req.Status, req.TrackingNumber, req.Notes)
	if err != nil {
		ctrl.respondOrderError(c, 0, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdatePaymentStatus moves an order's payment status (admin)
// PUT /api/v1/admin/orders/:id/payment-status
func (ctrl *OrderController) UpdatePaymentStatus(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid order ID")
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	order, err := ctrl.orderService.UpdatePaymentStatus(orderID, req.PaymentStatus)
	if err != nil {
		ctrl.respondOrderError(c, 0, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (ctrl *OrderController) respondOrderError(c *gin.Context, userID uint, err error) {
	log := middleware.GetLoggerFromContext(c)

	var conflict *service.StockConflictError

	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		apierrors.NotFound(c, apierrors.CodeOrderNotFound, "order not found")
	case errors.Is(err, service.ErrEmptyCart):
		apierrors.BadRequest(c, apierrors.CodeCartEmpty, "cart is empty")
	case errors.Is(err, service.ErrInvalidAddress):
		apierrors.BadRequest(c, apierrors.CodeOrderInvalidAddress, "shipping address is incomplete")
	case errors.Is(err, service.ErrProductNotFound):
		apierrors.NotFound(c, apierrors.CodeProductNotFound, "a product in the cart no longer exists")
	case errors.Is(err, service.ErrProductUnavailable):
		apierrors.Conflict(c, apierrors.CodeProductUnavailable, "a product in the cart is no longer available")
	case errors.As(err, &conflict):
		apierrors.RespondWithDetails(c, http.StatusConflict, apierrors.CodeOrderStockConflict, conflict.Error(), gin.H{
			"product_id": conflict.ProductID,
			"requested":  conflict.Requested,
			"available":  conflict.Available,
		})
	case errors.Is(err, service.ErrTransactionAborted):
		apierrors.RespondWithError(c, http.StatusInternalServerError, apierrors.CodeOrderRetryExhausted, "order could not be placed, please retry")
	case errors.Is(err, service.ErrInvalidTransition):
		apierrors.UnprocessableEntity(c, apierrors.CodeOrderInvalidTransition, err.Error())
	case errors.Is(err, service.ErrPaymentNotVerified):
		apierrors.BadRequest(c, apierrors.CodePaymentNotVerified, "payment could not be verified")
	case errors.Is(err, service.ErrPaymentAmountMismatch):
		apierrors.BadRequest(c, apierrors.CodePaymentAmountWrong, "payment amount does not match order total")
	default:
		log.Error("Order operation failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apierrors.InternalError(c, "order operation failed")
	}
}
