package stripe

import "encoding/json"

// PaymentIntent statuses returned by the Stripe API
const (
	IntentStatusSucceeded       = "succeeded"
	IntentStatusRequiresPayment = "requires_payment_method"
	IntentStatusRequiresAction  = "requires_action"
	IntentStatusProcessing      = "processing"
	IntentStatusCanceled        = "canceled"
)

// Webhook event types the service reacts to
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded         = "charge.refunded"
)

// PaymentIntent is the subset of Stripe's PaymentIntent object used here.
// Amounts are in the smallest currency unit (paise for INR).
type PaymentIntent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

// Refund is the subset of Stripe's Refund object used here
type Refund struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentIntent string `json:"payment_intent"`
}

// Event is a webhook event envelope
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ErrorResponse is the error envelope returned by the Stripe API
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
