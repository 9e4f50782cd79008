package models

import (
	"errors"
	"fmt"
)

// GatewayErrorKind classifies gateway failures the trader switches on.
type GatewayErrorKind string

const (
	GatewayNetworkError        GatewayErrorKind = "NETWORK_ERROR"
	GatewayRateLimited         GatewayErrorKind = "RATE_LIMITED"
	GatewayRejected            GatewayErrorKind = "REJECTED"
	GatewayStaleOrder          GatewayErrorKind = "STALE_ORDER"
	GatewayInsufficientBalance GatewayErrorKind = "INSUFFICIENT_BALANCE"
)

// GatewayError is a coded business-rule failure surfaced by the order
// gateway after its internal retries are exhausted.
type GatewayError struct {
	Kind    GatewayErrorKind
	Code    int64
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s (code %d): %s", e.Kind, e.Code, e.Message)
}

// NewGatewayError builds a classified gateway error.
func NewGatewayError(kind GatewayErrorKind, code int64, message string) *GatewayError {
	return &GatewayError{Kind: kind, Code: code, Message: message}
}

// AsGatewayError unwraps err into a GatewayError when possible.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		return gatewayErr, true
	}
	return nil, false
}
