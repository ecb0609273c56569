package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mehuljv/shopstack-backend/pkg/logger"
)

// Client is a thin HTTP client for the Stripe REST API
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Stripe API client
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// CreatePaymentIntent creates a payment intent for the given amount in the
// smallest currency unit (paise for INR)
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, metadata map[string]string) (*PaymentIntent, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("currency", c.config.Currency)
	params.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		params.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent PaymentIntent
	if err := c.doRequest(ctx, http.MethodPost, "/payment_intents", params, &intent); err != nil {
		return nil, err
	}

	logger.Info("Payment intent created", map[string]interface{}{
		"intent_id": intent.ID,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
	})

	return &intent, nil
}

// GetPaymentIntent retrieves a payment intent by ID
func (c *Client) GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	if intentID == "" {
		return nil, ErrInvalidRequest
	}

	var intent PaymentIntent
	if err := c.doRequest(ctx, http.MethodGet, "/payment_intents/"+intentID, nil, &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

// CreateRefund refunds a payment intent. A zero amount refunds the full charge.
func (c *Client) CreateRefund(ctx context.Context, intentID string, amount int64) (*Refund, error) {
	if intentID == "" {
		return nil, ErrInvalidRequest
	}

	params := url.Values{}
	params.Set("payment_intent", intentID)
	if amount > 0 {
		params.Set("amount", strconv.FormatInt(amount, 10))
	}

	var refund Refund
	if err := c.doRequest(ctx, http.MethodPost, "/refunds", params, &refund); err != nil {
		return nil, err
	}

	logger.Info("Refund created", map[string]interface{}{
		"refund_id": refund.ID,
		"intent_id": refund.PaymentIntent,
		"amount":    refund.Amount,
	})

	return &refund, nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw webhook
// payload and decodes the event. The header carries a timestamp and one or
// more v1 signatures: "t=1492774577,v1=5257a869e7..."
func (c *Client) ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	if c.config.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe: webhook secret not configured")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return nil, ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(c.config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe: failed to decode event: %w", err)
	}

	return &event, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, result interface{}) error {
	endpoint := c.config.BaseURL + path

	var body io.Reader
	if params != nil && method != http.MethodGet {
		body = strings.NewReader(params.Encode())
	}
	if params != nil && method == http.MethodGet {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Stripe API request failed", err, map[string]interface{}{
			"method": method,
			"path":   path,
		})
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			logger.Error("Stripe API error", nil, map[string]interface{}{
				"status":  resp.StatusCode,
				"type":    apiErr.Error.Type,
				"code":    apiErr.Error.Code,
				"message": apiErr.Error.Message,
			})
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Error.Message)
			case http.StatusPaymentRequired:
				return fmt.Errorf("%w: %s", ErrPaymentFailed, apiErr.Error.Message)
			default:
				return fmt.Errorf("%w: %s", ErrInvalidRequest, apiErr.Error.Message)
			}
		}
		return fmt.Errorf("%w: status %d", ErrInvalidRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
