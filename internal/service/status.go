package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/broker"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/logger"
)

// CheckStatus queries the gateway for an order of the current user.
// Admins may check any order.
func (s *Service) CheckStatus(ctx context.Context, orderID string) (entity.StatusCheckResult, error) {
	user, err := entity.UserFromCtx(ctx)
	if err != nil {
		return entity.StatusCheckResult{}, err
	}

	order, err := s.repo.Order(ctx, orderID)
	if err != nil {
		return entity.StatusCheckResult{}, fmt.Errorf("get order %q: %w", orderID, err)
	}

	if !user.CanAccessOrder(order) {
		return entity.StatusCheckResult{}, fmt.Errorf("%w: user %s cannot access order %q", entity.ErrForbidden, user.ID, order.ID)
	}

	return s.reconcileChecked(ctx, order, entity.HistorySourceAPICheck)
}

// Reconcile is the operator variant of CheckStatus. It skips ownership checks
// and records its history entries as manual.
func (s *Service) Reconcile(ctx context.Context, orderID string) (entity.StatusCheckResult, error) {
	order, err := s.repo.Order(ctx, orderID)
	if err != nil {
		return entity.StatusCheckResult{}, fmt.Errorf("get order %q: %w", orderID, err)
	}

	return s.reconcileChecked(ctx, order, entity.HistorySourceManual)
}

// PollPendingPayments checks orders whose callback is overdue.
func (s *Service) PollPendingPayments(ctx context.Context) error {
	if !s.provider.Enabled() {
		slog.DebugContext(ctx, "payway disabled, poll skipped")
		return nil
	}

	now := s.now().UTC()

	orders, err := s.repo.OrdersAwaitingPayment(ctx, entity.PendingFilter{
		PaymentMethod: entity.PaymentMethodABAPayWay,
		CreatedAfter:  now.Add(-s.poller.MaxAge),
		CreatedBefore: now.Add(-s.poller.CallbackWindow),
		Limit:         pollBatchLimit,
	})
	if err != nil {
		return fmt.Errorf("get orders awaiting payment: %w", err)
	}

	var (
		errs []error
		paid int
	)

	for _, order := range orders {
		err = s.limiter.Wait(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("wait rate limiter: %w", err))
			break
		}

		res, err := s.reconcile(logger.WithOrderID(ctx, order.ID), order, entity.HistorySourceAPICheck)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile order %q: %w", order.ID, err))
			continue
		}

		if res.IsPaid && !order.IsPaid {
			paid++
		}
	}

	slog.InfoContext(ctx, "pending payments polled", "orders", len(orders), "paid", paid, "failed", len(errs))

	return errors.Join(errs...)
}

func (s *Service) reconcileChecked(ctx context.Context, order entity.Order, source entity.HistorySource) (entity.StatusCheckResult, error) {
	if order.PaymentMethod != entity.PaymentMethodABAPayWay {
		return entity.StatusCheckResult{}, fmt.Errorf("%w: order %q uses %q", entity.ErrInvalidPaymentMethod, order.ID, order.PaymentMethod)
	}

	if order.ABA.MerchantRefNo == "" {
		return entity.StatusCheckResult{}, fmt.Errorf("order %q: %w", order.ID, entity.ErrMerchantRefMissing)
	}

	if !s.provider.Enabled() {
		return entity.StatusCheckResult{}, entity.ErrServiceDisabled
	}

	return s.reconcile(logger.WithOrderID(ctx, order.ID), order, source)
}

// reconcile fetches the gateway status and marks the order paid only when the
// gateway approved it and the amounts agree within a cent.
func (s *Service) reconcile(ctx context.Context, order entity.Order, source entity.HistorySource) (entity.StatusCheckResult, error) {
	ref := order.ABA.MerchantRefNo

	var status entity.TransactionStatus

	err := payerror.WithRetry(ctx, func(ctx context.Context) error {
		var err error

		status, err = s.provider.CheckTransaction(ctx, ref)

		return err
	},
		payerror.WithMaxRetries(s.poller.MaxRetries),
		payerror.WithBaseDelay(s.poller.BaseDelay),
		payerror.WithOnRetry(func(attempt int, delay time.Duration, err *payerror.Error) {
			slog.WarnContext(ctx, "check transaction failed, retrying",
				"attempt", attempt, "delay", delay, "kind", err.Kind, "error", err.Error())
		}),
	)
	if err != nil {
		s.recordFailedCheck(ctx, order.ID, ref, source, err)
		return entity.StatusCheckResult{}, fmt.Errorf("check transaction %q: %w", ref, err)
	}

	now := s.now().UTC()
	isPaid := order.IsPaid
	details := status.Description

	if status.IsApproved() && !order.IsPaid {
		if entity.AmountWithinCent(status.Amount, order.TotalPrice) {
			err = s.repo.MarkOrderPaid(ctx, entity.PaidOrder{
				OrderID: order.ID,
				Amount:  order.TotalPrice,
				PaidAt:  now,
				Result: entity.PaymentResult{
					ID:         ref,
					Status:     entity.PaymentResultCompleted,
					UpdateTime: now,
					Amount:     status.Amount,
					Provider:   providerName,
				},
			})

			switch {
			case errors.Is(err, entity.ErrAlreadyPaid):
				slog.InfoContext(ctx, "order was paid concurrently", "tran_id", ref)
			case err != nil:
				return entity.StatusCheckResult{}, fmt.Errorf("mark order %q paid: %w", order.ID, err)
			default:
				s.producer.SendOrderPaid(ctx, broker.NewOrderPaidEvent(order.ID, order.TotalPrice, order.Currency, string(source), now))
				slog.InfoContext(ctx, "order marked paid after status check", "tran_id", ref, "source", source)
			}

			isPaid = true
		} else {
			details = fmt.Sprintf("%s: gateway reported %s, order total %s",
				entity.ErrAmountMismatch, status.Amount.StringFixed(2), order.TotalPrice.StringFixed(2))

			slog.WarnContext(ctx, "status check amount mismatch, order not marked paid",
				"tran_id", ref, "gateway_amount", status.Amount, "order_total", order.TotalPrice)
		}
	}

	err = s.repo.RecordProviderStatus(ctx, entity.ProviderStatusUpdate{
		OrderID:       order.ID,
		TransactionID: ref,
		CheckedAt:     &now,
		Entry: entity.StatusHistoryEntry{
			Status:     entity.StatusName(status.Status),
			StatusCode: status.Status,
			Timestamp:  now,
			Source:     source,
			Details:    details,
		},
	})
	if err != nil {
		return entity.StatusCheckResult{}, fmt.Errorf("record order %q status: %w", order.ID, err)
	}

	return entity.StatusCheckResult{
		OrderID:       order.ID,
		TransactionID: ref,
		Status:        status.Status,
		StatusString:  entity.StatusName(status.Status),
		Amount:        status.Amount,
		Currency:      status.Currency,
		IsPaid:        isPaid,
		LastChecked:   now,
		Description:   details,
	}, nil
}

// recordFailedCheck keeps the history complete when the gateway could not
// answer. A failure to write it is logged; the check error wins.
func (s *Service) recordFailedCheck(ctx context.Context, orderID, ref string, source entity.HistorySource, checkErr error) {
	now := s.now().UTC()
	perr := payerror.Parse(checkErr)

	err := s.repo.RecordProviderStatus(ctx, entity.ProviderStatusUpdate{
		OrderID:       orderID,
		TransactionID: ref,
		CheckedAt:     &now,
		HistoryOnly:   true,
		Entry: entity.StatusHistoryEntry{
			Status:     entity.StatusCheckFailed,
			StatusCode: entity.StatusCodeUnparseable,
			Timestamp:  now,
			Source:     source,
			Details:    fmt.Sprintf("%s: %s", perr.Code(), perr.Message),
		},
	})
	if err != nil {
		payerror.Log(ctx, "record failed status check", err)
	}
}
