package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/clients/payway"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/broker"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/logger"
)

const (
	OutcomePaid      = "paid"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// ApplyCallback applies a gateway pushback to its order at most once.
//
// Pushback notifications usually carry no hash. In that case the only
// defences are resolving the order by its merchant reference and the
// conditional paid-flag write; that is a property of the gateway protocol.
func (s *Service) ApplyCallback(ctx context.Context, p entity.CallbackPayload) (entity.CallbackOutcome, error) {
	if p.TranID == "" {
		return entity.CallbackOutcome{}, fmt.Errorf("%w: tran_id is required", entity.ErrInvalidArgument)
	}

	switch s.provider.VerifyCallback(p) {
	case payway.VerificationInvalid:
		return entity.CallbackOutcome{}, fmt.Errorf("callback %q: %w", p.TranID, entity.ErrInvalidSignature)
	case payway.VerificationNotApplicable:
		slog.InfoContext(ctx, "callback has no hash, verification not applicable", "tran_id", p.TranID)
	default:
		slog.DebugContext(ctx, "callback hash verified", "tran_id", p.TranID)
	}

	order, err := s.resolveOrder(ctx, p.TranID)
	if err != nil {
		return entity.CallbackOutcome{}, err
	}

	ctx = logger.WithOrderID(ctx, order.ID)

	if order.IsPaid {
		slog.InfoContext(ctx, "callback for paid order ignored", "tran_id", p.TranID)
		return entity.CallbackOutcome{OrderID: order.ID, Status: OutcomePaid, AlreadyProcessed: true}, nil
	}

	now := s.now().UTC()
	success := p.SuccessStatus()

	outcome := entity.CallbackOutcome{OrderID: order.ID}

	if success.IsSuccess() {
		// The approval code is opaque; the stored order total is what was paid.
		err = s.repo.MarkOrderPaid(ctx, entity.PaidOrder{
			OrderID: order.ID,
			Amount:  order.TotalPrice,
			PaidAt:  now,
			Result: entity.PaymentResult{
				ID:           p.TranID,
				Status:       entity.PaymentResultCompleted,
				UpdateTime:   now,
				Amount:       order.TotalPrice,
				ApprovalCode: p.APV,
				Provider:     providerName,
			},
		})
		if errors.Is(err, entity.ErrAlreadyPaid) {
			slog.InfoContext(ctx, "order was paid concurrently", "tran_id", p.TranID)
			return entity.CallbackOutcome{OrderID: order.ID, Status: OutcomePaid, AlreadyProcessed: true}, nil
		}

		if err != nil {
			return outcome, fmt.Errorf("mark order %q paid: %w", order.ID, err)
		}

		s.producer.SendOrderPaid(ctx, broker.NewOrderPaidEvent(order.ID, order.TotalPrice, order.Currency,
			string(entity.HistorySourceCallback), now))

		outcome.Status = OutcomePaid
		outcome.Paid = true
	} else {
		result := entity.PaymentResult{
			ID:           p.TranID,
			Status:       entity.PaymentResultFailed,
			UpdateTime:   now,
			Amount:       order.TotalPrice,
			ApprovalCode: p.APV,
			Provider:     providerName,
		}

		outcome.Status = OutcomeFailed

		if p.IsCancelled() {
			result.Status = entity.PaymentResultCancelled
			outcome.Status = OutcomeCancelled
		}

		err = s.repo.SetPaymentResult(ctx, order.ID, result)
		if errors.Is(err, entity.ErrAlreadyPaid) {
			return entity.CallbackOutcome{OrderID: order.ID, Status: OutcomePaid, AlreadyProcessed: true}, nil
		}

		if err != nil {
			return outcome, fmt.Errorf("set order %q payment result: %w", order.ID, err)
		}
	}

	// Written after the payment step so a crash in between never leaves
	// "callback received" on an order whose payment was not applied.
	err = s.repo.RecordProviderStatus(ctx, entity.ProviderStatusUpdate{
		OrderID:          order.ID,
		TransactionID:    p.TranID,
		CallbackReceived: true,
		Entry: entity.StatusHistoryEntry{
			Status:     callbackStatusName(p),
			StatusCode: entity.StatusCodeFromWire(p.Status),
			Timestamp:  now,
			Source:     entity.HistorySourceCallback,
			Details:    fmt.Sprintf("status=%q apv=%q", p.Status, p.APV),
		},
	})
	if err != nil {
		perr := payerror.Parse(err)
		slog.ErrorContext(ctx, "payment applied but callback history not recorded",
			"alert", true,
			"kind", perr.Kind,
			"tran_id", p.TranID,
			"outcome", outcome.Status,
			"error", err.Error(),
		)
	}

	slog.InfoContext(ctx, "callback applied", "tran_id", p.TranID, "outcome", outcome.Status)

	return outcome, nil
}

// resolveOrder looks the order up by merchant reference, then by id when
// the transaction id looks like a document id.
func (s *Service) resolveOrder(ctx context.Context, tranID string) (entity.Order, error) {
	order, err := s.repo.OrderByMerchantRef(ctx, tranID)
	if err == nil {
		return order, nil
	}

	if !errors.Is(err, entity.ErrNotFound) {
		return entity.Order{}, fmt.Errorf("get order by merchant ref %q: %w", tranID, err)
	}

	if !entity.IsObjectID(tranID) {
		return entity.Order{}, fmt.Errorf("order for transaction %q: %w", tranID, entity.ErrNotFound)
	}

	order, err = s.repo.Order(ctx, tranID)
	if err != nil {
		return entity.Order{}, fmt.Errorf("get order %q: %w", tranID, err)
	}

	return order, nil
}

func callbackStatusName(p entity.CallbackPayload) string {
	if p.SuccessStatus().IsSuccess() {
		return entity.StatusName(entity.StatusCodeApproved)
	}

	return entity.StatusName(entity.StatusCodeFromWire(p.Status))
}
