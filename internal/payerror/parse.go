package payerror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
)

// StatusError is returned by clients for a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad response status: %d, body: %s", e.StatusCode, e.Body)
}

var sentinels = []struct {
	err  error
	kind Kind
}{
	{entity.ErrNotFound, KindOrderNotFound},
	{entity.ErrAlreadyPaid, KindOrderAlreadyPaid},
	{entity.ErrUnauthenticated, KindUnauthorized},
	{entity.ErrForbidden, KindForbidden},
	{entity.ErrInvalidPaymentMethod, KindInvalidPaymentMethod},
	{entity.ErrMerchantRefMissing, KindInvalidPaymentMethod},
	{entity.ErrAmountMismatch, KindAmountMismatch},
	{entity.ErrServiceDisabled, KindServiceDisabled},
	{entity.ErrNotConfigured, KindConfiguration},
	{entity.ErrInvalidSignature, KindInvalidSignature},
}

// Checked in order; the first match wins.
var substrings = []struct {
	kind    Kind
	needles []string
}{
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{KindRateLimitExceeded, []string{"rate limit", "too many requests"}},
	{KindNetwork, []string{"connection refused", "connection reset", "no such host", "network", "eof"}},
	{KindInvalidSignature, []string{"signature", "hash mismatch"}},
	{KindUnauthorized, []string{"unauthorized", "unauthenticated"}},
	{KindForbidden, []string{"forbidden"}},
	{KindInvalidPaymentMethod, []string{"payment method"}},
	{KindOrderAlreadyPaid, []string{"already paid"}},
	{KindAmountMismatch, []string{"amount mismatch"}},
	{KindOrderNotFound, []string{"not found"}},
	{KindServiceDisabled, []string{"disabled"}},
	{KindConfiguration, []string{"not configured", "configuration"}},
	{KindDatabase, []string{"database", "sql", "mongo", "pgx"}},
	{KindAPI, []string{"bad response status", "status code", "gateway"}},
}

// Parse classifies err. It returns nil for a nil error.
func Parse(err error) *Error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return New(s.kind, err)
		}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return New(kindFromStatus(statusErr.StatusCode), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return New(KindTimeout, err)
		}

		return New(KindNetwork, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return New(KindDatabase, err)
	}

	if mongo.IsTimeout(err) {
		return New(KindTimeout, err)
	}

	var mongoErr mongo.ServerError
	if errors.As(err, &mongoErr) || mongo.IsNetworkError(err) {
		return New(KindDatabase, err)
	}

	msg := strings.ToLower(err.Error())

	for _, s := range substrings {
		for _, needle := range s.needles {
			if strings.Contains(msg, needle) {
				return New(s.kind, err)
			}
		}
	}

	return New(KindUnknown, err)
}

func kindFromStatus(code int) Kind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimitExceeded
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	}

	return KindAPI
}
