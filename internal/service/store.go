package service

import (
	"context"
	"errors"
	"time"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
)

// storeRepository marks every failure of the order store as a database error,
// so a dropped connection or a query timeout is never reported as a gateway
// problem. Domain sentinels pass through unchanged.
type storeRepository struct {
	repo Repository
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrAlreadyPaid) {
		return err
	}

	var perr *payerror.Error
	if errors.As(err, &perr) {
		return err
	}

	return payerror.New(payerror.KindDatabase, err)
}

func (r storeRepository) Order(ctx context.Context, id string) (entity.Order, error) {
	o, err := r.repo.Order(ctx, id)
	return o, storeErr(err)
}

func (r storeRepository) OrderByMerchantRef(ctx context.Context, merchantRefNo string) (entity.Order, error) {
	o, err := r.repo.OrderByMerchantRef(ctx, merchantRefNo)
	return o, storeErr(err)
}

func (r storeRepository) SetMerchantRefNo(ctx context.Context, orderID, ref string, updatedAt time.Time) (string, error) {
	stored, err := r.repo.SetMerchantRefNo(ctx, orderID, ref, updatedAt)
	return stored, storeErr(err)
}

func (r storeRepository) MarkOrderPaid(ctx context.Context, paid entity.PaidOrder) error {
	return storeErr(r.repo.MarkOrderPaid(ctx, paid))
}

func (r storeRepository) SetPaymentResult(ctx context.Context, orderID string, result entity.PaymentResult) error {
	return storeErr(r.repo.SetPaymentResult(ctx, orderID, result))
}

func (r storeRepository) RecordProviderStatus(ctx context.Context, update entity.ProviderStatusUpdate) error {
	return storeErr(r.repo.RecordProviderStatus(ctx, update))
}

func (r storeRepository) OrdersAwaitingPayment(ctx context.Context, filter entity.PendingFilter) ([]entity.Order, error) {
	orders, err := r.repo.OrdersAwaitingPayment(ctx, filter)
	return orders, storeErr(err)
}
