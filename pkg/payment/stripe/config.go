package stripe

import "errors"

// Config holds the Stripe API credentials and endpoint configuration
type Config struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("stripe secret key is required")
	}
	if c.BaseURL == "" {
		return errors.New("stripe base URL is required")
	}
	if c.Currency == "" {
		return errors.New("stripe currency is required")
	}
	return nil
}
