package stripe

import "errors"

var (
	ErrInvalidRequest   = errors.New("stripe: invalid request")
	ErrUnauthorized     = errors.New("stripe: unauthorized")
	ErrPaymentFailed    = errors.New("stripe: payment failed")
	ErrNetworkError     = errors.New("stripe: network error")
	ErrInvalidSignature = errors.New("stripe: invalid webhook signature")
)
