package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	client, err := NewClient(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test_secret",
		BaseURL:       "https://api.stripe.com/v1",
		Currency:      "inr",
	})
	require.NoError(t, err)
	return client
}

func signPayload(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://api.stripe.com/v1", Currency: "inr"})
	assert.Error(t, err)

	_, err = NewClient(Config{SecretKey: "sk_test_123", Currency: "inr"})
	assert.Error(t, err)
}

func TestConstructEvent_ValidSignature(t *testing.T) {
	client := newTestClient(t)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`)
	timestamp := "1492774577"
	sig := signPayload("whsec_test_secret", timestamp, payload)
	header := fmt.Sprintf("t=%s,v1=%s", timestamp, sig)

	event, err := client.ConstructEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentIntentSucceeded, event.Type)
}

func TestConstructEvent_InvalidSignature(t *testing.T) {
	client := newTestClient(t)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := "t=1492774577,v1=deadbeef"

	_, err := client.ConstructEvent(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEvent_MalformedHeader(t *testing.T) {
	client := newTestClient(t)

	_, err := client.ConstructEvent([]byte(`{}`), "not-a-signature")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
