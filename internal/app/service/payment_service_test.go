package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/internal/db"
	"github.com/mehuljv/shopstack-backend/pkg/payment/stripe"
)

// fakeStripeGateway stands in for the Stripe client in payment tests. Its
// ConstructEvent skips signature checks and decodes the payload directly.
type fakeStripeGateway struct {
	intent      *stripe.PaymentIntent
	refundCalls int
}

func (f *fakeStripeGateway) CreatePaymentIntent(_ context.Context, amount int64, _ map[string]string) (*stripe.PaymentIntent, error) {
	return &stripe.PaymentIntent{
		ID:           "pi_fake_1",
		Amount:       amount,
		Currency:     "inr",
		ClientSecret: "pi_fake_1_secret",
	}, nil
}

func (f *fakeStripeGateway) GetPaymentIntent(_ context.Context, _ string) (*stripe.PaymentIntent, error) {
	return f.intent, nil
}

func (f *fakeStripeGateway) CreateRefund(_ context.Context, intentID string, amount int64) (*stripe.Refund, error) {
	f.refundCalls++
	return &stripe.Refund{ID: "re_fake_1", PaymentIntent: intentID, Amount: amount, Status: "succeeded"}, nil
}

func (f *fakeStripeGateway) ConstructEvent(payload []byte, _ string) (*stripe.Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func setupPaymentServiceTest(t *testing.T) (PaymentService, *fakeStripeGateway, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	gateway := &fakeStripeGateway{}
	return NewPaymentService(repository.NewOrderRepository(testDB), gateway), gateway, testDB
}

func createTestOrder(t *testing.T, testDB *gorm.DB, orderNumber, intentID string, paymentStatus model.PaymentStatus) *model.Order {
	user := &model.User{
		Email:        orderNumber + "@example.com",
		PasswordHash: "hash",
		Name:         "Payment Tester",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	order := &model.Order{
		OrderNumber:     orderNumber,
		UserID:          user.ID,
		Status:          model.OrderStatusPending,
		PaymentStatus:   paymentStatus,
		PaymentIntentID: intentID,
		Subtotal:        decimal.NewFromInt(1000),
		Tax:             decimal.NewFromInt(180),
		ShippingFee:     decimal.NewFromInt(99),
		Total:           decimal.NewFromInt(1279),
	}
	require.NoError(t, testDB.Create(order).Error)
	return order
}

func webhookPayload(t *testing.T, eventType string, object map[string]interface{}) []byte {
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_test_1",
		"type": eventType,
		"data": map[string]interface{}{"object": json.RawMessage(raw)},
	})
	require.NoError(t, err)
	return payload
}

func TestPaymentService_CreateIntentForOrder(t *testing.T) {
	paymentService, _, testDB := setupPaymentServiceTest(t)
	order := createTestOrder(t, testDB, "ORD-20250101-AAAA0001", "", model.PaymentStatusUnpaid)

	result, err := paymentService.CreateIntentForOrder(context.Background(), order.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_fake_1", result.IntentID)
	assert.NotEmpty(t, result.ClientSecret)
	// 1279.00 in paise
	assert.Equal(t, int64(127900), result.Amount)

	var stored model.Order
	testDB.First(&stored, order.ID)
	assert.Equal(t, "pi_fake_1", stored.PaymentIntentID)
}

func TestPaymentService_CreateIntentForOrder_AlreadyPaid(t *testing.T) {
	paymentService, _, testDB := setupPaymentServiceTest(t)
	order := createTestOrder(t, testDB, "ORD-20250101-AAAA0002", "pi_old", model.PaymentStatusPaid)

	_, err := paymentService.CreateIntentForOrder(context.Background(), order.UserID, order.ID)
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestPaymentService_Webhook_IntentSucceededMarksPaid(t *testing.T) {
	paymentService, _, testDB := setupPaymentServiceTest(t)
	order := createTestOrder(t, testDB, "ORD-20250101-AAAA0003", "pi_hook_1", model.PaymentStatusUnpaid)

	payload := webhookPayload(t, stripe.EventPaymentIntentSucceeded, map[string]interface{}{
		"id": "pi_hook_1", "amount": 127900, "status": stripe.IntentStatusSucceeded,
	})
	require.NoError(t, paymentService.HandleWebhook(payload, "sig"))

	var stored model.Order
	testDB.First(&stored, order.ID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.NotNil(t, stored.PaidAt)

	// Stripe redelivers events; a second delivery must not change anything
	firstPaidAt := *stored.PaidAt
	require.NoError(t, paymentService.HandleWebhook(payload, "sig"))
	testDB.First(&stored, order.ID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, firstPaidAt, *stored.PaidAt)
}

func TestPaymentService_Webhook_RefundEventMarksRefunded(t *testing.T) {
	paymentService, _, testDB := setupPaymentServiceTest(t)
	order := createTestOrder(t, testDB, "ORD-20250101-AAAA0004", "pi_hook_2", model.PaymentStatusPaid)

	payload := webhookPayload(t, stripe.EventChargeRefunded, map[string]interface{}{
		"payment_intent": "pi_hook_2",
	})
	require.NoError(t, paymentService.HandleWebhook(payload, "sig"))

	var stored model.Order
	testDB.First(&stored, order.ID)
	assert.Equal(t, model.PaymentStatusRefunded, stored.PaymentStatus)
}

func TestPaymentService_Webhook_RefundEventOnUnpaidOrderIgnored(t *testing.T) {
	paymentService, _, testDB := setupPaymentServiceTest(t)
	order := createTestOrder(t, testDB, "ORD-20250101-AAAA0005", "pi_hook_3", model.PaymentStatusUnpaid)

	// A stray charge.refunded must not move an order that was never paid
	payload := webhookPayload(t, stripe.EventChargeRefunded, map[string]interface{}{
		"payment_intent": "pi_hook_3",
	})
	require.NoError(t, paymentService.HandleWebhook(payload, "sig"))

	var stored model.Order
	testDB.First(&stored, order.ID)
	assert.Equal(t, model.PaymentStatusUnpaid, stored.PaymentStatus)
}

func TestPaymentService_Webhook_UnknownIntentAcknowledged(t *testing.T) {
	paymentService, _, _ := setupPaymentServiceTest(t)

	payload := webhookPayload(t, stripe.EventPaymentIntentSucceeded, map[string]interface{}{
		"id": "pi_nobody", "status": stripe.IntentStatusSucceeded,
	})
	assert.NoError(t, paymentService.HandleWebhook(payload, "sig"))
}

func TestPaymentService_RefundOrder(t *testing.T) {
	paymentService, gateway, testDB := setupPaymentServiceTest(t)
	order := createTestOrder(t, testDB, "ORD-20250101-AAAA0006", "pi_ref_1", model.PaymentStatusPaid)

	refunded, err := paymentService.RefundOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, refunded.PaymentStatus)
	assert.Equal(t, 1, gateway.refundCalls)
}

func TestPaymentService_RefundOrder_UnpaidNotRefundable(t *testing.T) {
	paymentService, gateway, testDB := setupPaymentServiceTest(t)
	order := createTestOrder(t, testDB, "ORD-20250101-AAAA0007", "pi_ref_2", model.PaymentStatusUnpaid)

	_, err := paymentService.RefundOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotRefundable)
	assert.Zero(t, gateway.refundCalls)
}

func TestPaymentService_NilGateway(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	paymentService := NewPaymentService(repository.NewOrderRepository(testDB), nil)

	_, err = paymentService.CreateIntentForOrder(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrPaymentsNotConfigured)
	assert.ErrorIs(t, paymentService.HandleWebhook([]byte("{}"), "sig"), ErrPaymentsNotConfigured)
	_, err = paymentService.RefundOrder(context.Background(), 1)
	assert.ErrorIs(t, err, ErrPaymentsNotConfigured)
}
