package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

// orderTransitions defines the fulfilment state machine. Cancellation is
// only possible before the order ships.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// paymentTransitions defines the payment state machine. An unpaid order can
// enter refund_pending (payment captured out of band, then cancelled) but can
// never jump straight to refunded.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusUnpaid:        {PaymentStatusPaid, PaymentStatusRefundPending},
	PaymentStatusPaid:          {PaymentStatusRefundPending, PaymentStatusRefunded},
	PaymentStatusRefundPending: {PaymentStatusRefunded},
	PaymentStatusRefunded:      {},
}

// CanTransitionTo reports whether the fulfilment status may move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further fulfilment transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether the payment status may move to next
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Address is embedded twice on Order, once per shipping and billing
type Address struct {
	FullName   string `gorm:"type:varchar(100)" json:"full_name"`
	Line1      string `gorm:"type:varchar(255)" json:"line1"`
	Line2      string `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	State      string `gorm:"type:varchar(100)" json:"state"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
	Country    string `gorm:"type:varchar(100)" json:"country"`
	Phone      string `gorm:"type:varchar(20)" json:"phone"`
}

// IsComplete reports whether the mandatory address fields are filled in
func (a Address) IsComplete() bool {
	return a.FullName != "" && a.Line1 != "" && a.City != "" &&
		a.State != "" && a.PostalCode != "" && a.Country != ""
}

type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null;type:varchar(30)" json:"order_number"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);default:'unpaid'" json:"payment_status"`
	PaymentMethod   string          `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentIntentID string          `gorm:"type:varchar(100);index" json:"payment_intent_id,omitempty"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_fee"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	BillingAddress  Address         `gorm:"embedded;embeddedPrefix:bill_" json:"billing_address"`
	TrackingNumber  string          `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	User       User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line on a placed order. Name and price are snapshots taken
// at checkout so later catalog edits never change what was sold.
type OrderItem struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
