package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/config"
	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/internal/db"
	"github.com/mehuljv/shopstack-backend/pkg/payment/stripe"
)

var testCheckoutConfig = config.CheckoutConfig{
	TaxRate:               0.18,
	FreeShippingThreshold: 2000,
	ShippingFee:           99,
	PendingOrderTTL:       24 * time.Hour,
}

// fakeGateway stands in for the Stripe client in checkout tests
type fakeGateway struct {
	intent *stripe.PaymentIntent
	err    error
}

func (f *fakeGateway) GetPaymentIntent(_ context.Context, _ string) (*stripe.PaymentIntent, error) {
	return f.intent, f.err
}

func setupOrderServiceTest(t *testing.T, gateway PaymentGateway) (OrderService, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	orderRepo := repository.NewOrderRepository(testDB)
	orderService := NewOrderService(orderRepo, gateway, testCheckoutConfig, testDB)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	category := &model.Category{Name: "Electronics", Slug: "electronics"}
	testDB.Create(category)

	product := &model.Product{
		Name:          "Test Product",
		Slug:          "test-product",
		Price:         decimal.NewFromInt(500),
		CategoryID:    category.ID,
		StockQuantity: 10,
		IsActive:      true,
	}
	testDB.Create(product)

	return orderService, testDB, user, product
}

func testAddress() model.Address {
	return model.Address{
		FullName:   "Test User",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
		Phone:      "9876543210",
	}
}

func TestOrderService_CreateOrderFromCart_Success(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  2,
	})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, order.OrderNumber)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, order.PaymentStatus)

	// 2 x 500 = 1000, 18% tax = 180, below free shipping so 99 flat
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(decimal.NewFromInt(180)), "tax %s", order.Tax)
	assert.True(t, order.ShippingFee.Equal(decimal.NewFromInt(99)), "shipping %s", order.ShippingFee)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(1279)), "total %s", order.Total)

	// Line items carry name and price snapshots
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, "Test Product", order.OrderItems[0].ProductName)
	assert.True(t, order.OrderItems[0].UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 2, order.OrderItems[0].Quantity)

	// Billing address defaults to shipping when omitted
	assert.Equal(t, order.ShippingAddress, order.BillingAddress)

	var updatedProduct model.Product
	testDB.First(&updatedProduct, product.ID)
	assert.Equal(t, 8, updatedProduct.StockQuantity)

	items, _ := cartRepo.FindByUserID(user.ID)
	assert.Len(t, items, 0)
}

func TestOrderService_CreateOrderFromCart_FreeShipping(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	product.Price = decimal.NewFromInt(1500)
	testDB.Save(product)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	require.NoError(t, err)

	// 3000 subtotal clears the 2000 threshold
	assert.True(t, order.ShippingFee.IsZero(), "shipping %s", order.ShippingFee)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(3540)), "total %s", order.Total)
}

func TestOrderService_CreateOrderFromCart_EmptyCart(t *testing.T) {
	orderService, _, user, _ := setupOrderServiceTest(t, nil)

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
}

func TestOrderService_CreateOrderFromCart_IncompleteAddress(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})

	addr := testAddress()
	addr.PostalCode = ""
	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: addr,
	})
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Nil(t, order)
}

func TestOrderService_CreateOrderFromCart_InsufficientStock(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 100})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	assert.ErrorIs(t, err, ErrStockConflict)
	assert.Nil(t, order)

	var conflict *StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, product.ID, conflict.ProductID)
	assert.Equal(t, 100, conflict.Requested)
	assert.Equal(t, 10, conflict.Available)

	// Nothing changed: stock and cart are untouched
	var updatedProduct model.Product
	testDB.First(&updatedProduct, product.ID)
	assert.Equal(t, 10, updatedProduct.StockQuantity)

	items, _ := cartRepo.FindByUserID(user.ID)
	assert.Len(t, items, 1)
}

func TestOrderService_CreateOrderFromCart_RollbackOnPartialConflict(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	scarce := &model.Product{
		Name:          "Scarce Product",
		Slug:          "scarce-product",
		Price:         decimal.NewFromInt(300),
		CategoryID:    product.CategoryID,
		StockQuantity: 1,
		IsActive:      true,
	}
	testDB.Create(scarce)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: scarce.ID, Quantity: 5})

	_, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	assert.ErrorIs(t, err, ErrStockConflict)

	// The first product's decrement must have been rolled back
	var first, second model.Product
	testDB.First(&first, product.ID)
	testDB.First(&second, scarce.ID)
	assert.Equal(t, 10, first.StockQuantity)
	assert.Equal(t, 1, second.StockQuantity)

	var orderCount int64
	testDB.Model(&model.Order{}).Count(&orderCount)
	assert.Zero(t, orderCount)
}

func TestOrderService_CreateOrderFromCart_LeavesNewLinesInCart(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	latecomer := &model.Product{
		Name:          "Latecomer Product",
		Slug:          "latecomer-product",
		Price:         decimal.NewFromInt(200),
		CategoryID:    product.CategoryID,
		StockQuantity: 5,
		IsActive:      true,
	}
	testDB.Create(latecomer)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2})

	// Sneak a new cart line in after checkout has snapshotted the cart but
	// before it clears the consumed lines. The order insert is the last
	// write before the clear, so hooking it lands the line mid-checkout.
	injected := false
	err := testDB.Callback().Create().After("gorm:create").Register("order_service_test:add_line", func(tx *gorm.DB) {
		if injected {
			return
		}
		if _, ok := tx.Statement.Dest.(*model.Order); !ok {
			return
		}
		injected = true
		tx.Session(&gorm.Session{NewDB: true}).Create(&model.CartItem{
			UserID:    user.ID,
			ProductID: latecomer.ID,
			Quantity:  1,
		})
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		testDB.Callback().Create().Remove("order_service_test:add_line")
	})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)
	require.True(t, injected)

	// The placed order only covers the snapshotted line
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, product.ID, order.OrderItems[0].ProductID)

	// The mid-checkout line survives the clear
	items, err := cartRepo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, latecomer.ID, items[0].ProductID)
}

func TestOrderService_CreateOrderFromCart_ConcurrentLastUnit(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	product.StockQuantity = 1
	testDB.Save(product)

	rival := &model.User{
		Email:        "rival@example.com",
		PasswordHash: "hash",
		Name:         "Rival User",
		Role:         model.RoleUser,
	}
	testDB.Create(rival)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	cartRepo.Create(&model.CartItem{UserID: rival.ID, ProductID: product.ID, Quantity: 1})

	// Both checkouts race for the single remaining unit
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, userID := range []uint{user.ID, rival.ID} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = orderService.CreateOrderFromCart(context.Background(), userID, CreateOrderInput{
				ShippingAddress: testAddress(),
			})
		}(i, userID)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrStockConflict)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	// Exactly one order exists and stock never went negative
	var orderCount int64
	testDB.Model(&model.Order{}).Count(&orderCount)
	assert.EqualValues(t, 1, orderCount)

	var updated model.Product
	testDB.First(&updated, product.ID)
	assert.Equal(t, 0, updated.StockQuantity)
}

func TestOrderService_CreateOrderFromCart_InactiveProduct(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})

	product.IsActive = false
	testDB.Save(product)

	_, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestOrderService_CreateOrderFromCart_VerifiedPayment(t *testing.T) {
	gateway := &fakeGateway{
		intent: &stripe.PaymentIntent{
			ID:     "pi_test_1",
			Amount: 127900, // 1279.00 in paise
			Status: stripe.IntentStatusSucceeded,
		},
	}
	orderService, testDB, user, product := setupOrderServiceTest(t, gateway)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
		PaymentIntentID: "pi_test_1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.NotNil(t, order.PaidAt)
}

func TestOrderService_CreateOrderFromCart_PaymentAmountMismatch(t *testing.T) {
	gateway := &fakeGateway{
		intent: &stripe.PaymentIntent{
			ID:     "pi_test_2",
			Amount: 100, // nowhere near the order total
			Status: stripe.IntentStatusSucceeded,
		},
	}
	orderService, testDB, user, product := setupOrderServiceTest(t, gateway)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2})

	_, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
		PaymentIntentID: "pi_test_2",
	})
	assert.ErrorIs(t, err, ErrPaymentAmountMismatch)

	// Failed verification rolls the whole checkout back
	var updatedProduct model.Product
	testDB.First(&updatedProduct, product.ID)
	assert.Equal(t, 10, updatedProduct.StockQuantity)
}

func TestOrderService_CreateOrderFromCart_UnsucceededIntent(t *testing.T) {
	gateway := &fakeGateway{
		intent: &stripe.PaymentIntent{
			ID:     "pi_test_3",
			Amount: 127900,
			Status: stripe.IntentStatusRequiresPayment,
		},
	}
	orderService, testDB, user, product := setupOrderServiceTest(t, gateway)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2})

	_, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
		PaymentIntentID: "pi_test_3",
	})
	assert.ErrorIs(t, err, ErrPaymentNotVerified)
}

func TestOrderService_GetOrderByID_Ownership(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	found, err := orderService.GetOrderByID(user.ID, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// Another user sees not-found, not forbidden
	_, err = orderService.GetOrderByID(user.ID+1, order.ID, false)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// Admins can read any order
	_, err = orderService.GetOrderByID(user.ID+1, order.ID, true)
	assert.NoError(t, err)
}

func TestOrderService_UpdateOrderStatus_Transitions(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	updated, err := orderService.UpdateOrderStatus(order.ID, model.OrderStatusProcessing, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, updated.Status)

	updated, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusShipped, "TRACK-123", "left warehouse")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)
	assert.Equal(t, "TRACK-123", updated.TrackingNumber)

	// Shipped orders cannot go backwards or be cancelled
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusPending, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusCancelled, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	updated, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusDelivered, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)

	_, err = orderService.UpdateOrderStatus(order.ID, model.OrderStatusProcessing, "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_CancelOrder_RestoresStock(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 3})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	var afterOrder model.Product
	testDB.First(&afterOrder, product.ID)
	require.Equal(t, 7, afterOrder.StockQuantity)

	cancelled, err := orderService.CancelOrder(user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	var afterCancel model.Product
	testDB.First(&afterCancel, product.ID)
	assert.Equal(t, 10, afterCancel.StockQuantity)
}

func TestOrderService_CancelOrder_PaidMovesToRefundPending(t *testing.T) {
	gateway := &fakeGateway{
		intent: &stripe.PaymentIntent{
			ID:     "pi_test_4",
			Amount: 68900, // 500 + 90 tax + 99 shipping
			Status: stripe.IntentStatusSucceeded,
		},
	}
	orderService, testDB, user, product := setupOrderServiceTest(t, gateway)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
		PaymentIntentID: "pi_test_4",
	})
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)

	cancelled, err := orderService.CancelOrder(user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefundPending, cancelled.PaymentStatus)
}

func TestOrderService_UpdatePaymentStatus_InvalidTransition(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	// Unpaid orders cannot jump straight to refunded
	_, err = orderService.UpdatePaymentStatus(order.ID, model.PaymentStatusRefunded)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := orderService.UpdatePaymentStatus(order.ID, model.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
	assert.NotNil(t, updated.PaidAt)
}

func TestOrderService_CancelExpiredOrders(t *testing.T) {
	orderService, testDB, user, product := setupOrderServiceTest(t, nil)

	cartRepo := repository.NewCartRepository(testDB)
	cartRepo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2})

	order, err := orderService.CreateOrderFromCart(context.Background(), user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	// Backdate the order past the TTL
	testDB.Model(&model.Order{}).Where("id = ?", order.ID).
		Update("created_at", time.Now().Add(-48*time.Hour))

	cancelled, err := orderService.CancelExpiredOrders(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	refreshed, err := orderService.GetOrderByID(user.ID, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, refreshed.Status)

	var updatedProduct model.Product
	testDB.First(&updatedProduct, product.ID)
	assert.Equal(t, 10, updatedProduct.StockQuantity)
}
