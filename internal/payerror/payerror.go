// Package payerror classifies payment failures into a closed set of kinds.
// Only *Error crosses an HTTP boundary; raw errors stay in the logs.
package payerror

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

type Kind string

const (
	KindNetwork              Kind = "NETWORK_ERROR"
	KindTimeout              Kind = "TIMEOUT_ERROR"
	KindInvalidSignature     Kind = "INVALID_SIGNATURE"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindForbidden            Kind = "FORBIDDEN"
	KindOrderNotFound        Kind = "ORDER_NOT_FOUND"
	KindAmountMismatch       Kind = "AMOUNT_MISMATCH"
	KindInvalidPaymentMethod Kind = "INVALID_PAYMENT_METHOD"
	KindOrderAlreadyPaid     Kind = "ORDER_ALREADY_PAID"
	KindServiceDisabled      Kind = "SERVICE_DISABLED"
	KindConfiguration        Kind = "CONFIGURATION_ERROR"
	KindDatabase             Kind = "DATABASE_ERROR"
	KindAPI                  Kind = "API_ERROR"
	KindRateLimitExceeded    Kind = "RATE_LIMIT_EXCEEDED"
	KindUnknown              Kind = "UNKNOWN_ERROR"
)

type kindInfo struct {
	message     string
	retryable   bool
	status      int
	userMessage string
	hint        string
}

var kinds = map[Kind]kindInfo{
	KindNetwork: {
		message:     "network error while contacting the payment gateway",
		retryable:   true,
		status:      http.StatusServiceUnavailable,
		userMessage: "We could not reach the payment provider. Please try again in a moment.",
		hint:        "Check connectivity to the payment gateway.",
	},
	KindTimeout: {
		message:     "payment gateway request timed out",
		retryable:   true,
		status:      http.StatusGatewayTimeout,
		userMessage: "The payment provider is taking too long to respond. Please try again.",
		hint:        "Retry later or raise ABA_PAYWAY_TIMEOUT.",
	},
	KindInvalidSignature: {
		message:     "payment signature is invalid",
		retryable:   false,
		status:      http.StatusBadRequest,
		userMessage: "The payment notification could not be verified.",
		hint:        "Make sure ABA_PAYWAY_API_KEY matches the merchant profile.",
	},
	KindUnauthorized: {
		message:     "authentication required",
		retryable:   false,
		status:      http.StatusUnauthorized,
		userMessage: "Please sign in to continue.",
		hint:        "Send a valid bearer token.",
	},
	KindForbidden: {
		message:     "access to this order is not allowed",
		retryable:   false,
		status:      http.StatusForbidden,
		userMessage: "You do not have access to this order.",
		hint:        "Only the order owner or an admin can do this.",
	},
	KindOrderNotFound: {
		message:     "order not found",
		retryable:   false,
		status:      http.StatusNotFound,
		userMessage: "We could not find this order.",
		hint:        "Check the order id or merchant reference.",
	},
	KindAmountMismatch: {
		message:     "paid amount does not match the order total",
		retryable:   false,
		status:      http.StatusBadRequest,
		userMessage: "The paid amount does not match your order. Please contact support.",
		hint:        "Compare the gateway transaction with the order total.",
	},
	KindInvalidPaymentMethod: {
		message:     "order is not payable with ABA PayWay",
		retryable:   false,
		status:      http.StatusBadRequest,
		userMessage: "This order does not use ABA PayWay.",
		hint:        "Check the order payment method and merchant reference.",
	},
	KindOrderAlreadyPaid: {
		message:     "order is already paid",
		retryable:   false,
		status:      http.StatusBadRequest,
		userMessage: "This order has already been paid.",
		hint:        "No action needed.",
	},
	KindServiceDisabled: {
		message:     "ABA PayWay is disabled",
		retryable:   false,
		status:      http.StatusServiceUnavailable,
		userMessage: "Online payment is currently unavailable.",
		hint:        "Set ABA_PAYWAY_ENABLED=true.",
	},
	KindConfiguration: {
		message:     "ABA PayWay is not configured",
		retryable:   false,
		status:      http.StatusServiceUnavailable,
		userMessage: "Online payment is currently unavailable.",
		hint:        "Set ABA_PAYWAY_MERCHANT_ID, ABA_PAYWAY_API_KEY and ABA_PAYWAY_BASE_URL.",
	},
	KindDatabase: {
		message:     "database error",
		retryable:   true,
		status:      http.StatusInternalServerError,
		userMessage: "Something went wrong on our side. Please try again.",
		hint:        "Check the order store.",
	},
	KindAPI: {
		message:     "payment gateway returned an error",
		retryable:   true,
		status:      http.StatusBadGateway,
		userMessage: "The payment provider returned an error. Please try again.",
		hint:        "Inspect the gateway response in the logs.",
	},
	KindRateLimitExceeded: {
		message:     "payment gateway rate limit exceeded",
		retryable:   true,
		status:      http.StatusTooManyRequests,
		userMessage: "Too many requests. Please wait a moment and try again.",
		hint:        "Lower POLLER_RATE_PER_SECOND.",
	},
	KindUnknown: {
		message:     "unknown error",
		retryable:   false,
		status:      http.StatusInternalServerError,
		userMessage: "Something went wrong. Please try again later.",
		hint:        "See the logs for the underlying error.",
	},
}

func (k Kind) info() kindInfo {
	if v, ok := kinds[k]; ok {
		return v
	}

	return kinds[KindUnknown]
}

type Error struct {
	Kind       Kind
	Message    string
	Retryable  bool
	HTTPStatus int
	Err        error
}

// New builds an Error with the kind's default message.
func New(kind Kind, err error) *Error {
	info := kind.info()

	return &Error{
		Kind:       kind,
		Message:    info.message,
		Retryable:  info.retryable,
		HTTPStatus: info.status,
		Err:        err,
	}
}

func Newf(kind Kind, format string, args ...any) *Error {
	e := New(kind, nil)
	e.Message = fmt.Sprintf(format, args...)

	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Code() string {
	return string(e.Kind)
}

func (e *Error) UserMessage() string {
	return e.Kind.info().userMessage
}

func (e *Error) RecoveryHint() string {
	return e.Kind.info().hint
}

// ShouldAlert reports whether an operator has to look at err.
func ShouldAlert(err error) bool {
	e := Parse(err)
	if e == nil {
		return false
	}

	switch e.Kind {
	case KindConfiguration, KindServiceDisabled, KindDatabase, KindRateLimitExceeded:
		return true
	}

	return e.HTTPStatus >= http.StatusInternalServerError
}

// Log writes the classified error, at ERROR level when it needs an operator.
func Log(ctx context.Context, msg string, err error) {
	e := Parse(err)
	if e == nil {
		return
	}

	alert := ShouldAlert(e)

	level := slog.LevelWarn
	if alert {
		level = slog.LevelError
	}

	slog.Log(ctx, level, msg,
		"kind", e.Kind,
		"retryable", e.Retryable,
		"alert", alert,
		"error", e.Error(),
	)
}
