package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
)

// CreatePayment returns the signed purchase form for an order of the current user.
// It is the only place a merchant reference is created; once stored, the
// reference is reused for every later request.
func (s *Service) CreatePayment(ctx context.Context, orderID string) (entity.PaymentParams, error) {
	user, err := entity.UserFromCtx(ctx)
	if err != nil {
		return entity.PaymentParams{}, err
	}

	order, err := s.repo.Order(ctx, orderID)
	if err != nil {
		return entity.PaymentParams{}, fmt.Errorf("get order %q: %w", orderID, err)
	}

	if !user.CanAccessOrder(order) {
		return entity.PaymentParams{}, fmt.Errorf("%w: user %s cannot access order %q", entity.ErrForbidden, user.ID, order.ID)
	}

	if order.PaymentMethod != entity.PaymentMethodABAPayWay {
		return entity.PaymentParams{}, fmt.Errorf("%w: order %q uses %q", entity.ErrInvalidPaymentMethod, order.ID, order.PaymentMethod)
	}

	if order.IsPaid {
		return entity.PaymentParams{}, fmt.Errorf("order %q: %w", order.ID, entity.ErrAlreadyPaid)
	}

	req := entity.PaymentRequest{
		OrderID:       order.ID,
		Amount:        order.TotalPrice,
		Currency:      order.Currency,
		Items:         order.Items,
		Customer:      order.Customer,
		MerchantRefNo: order.ABA.MerchantRefNo,
	}

	params, err := s.provider.PaymentParams(ctx, req)
	if err != nil {
		return entity.PaymentParams{}, fmt.Errorf("build payment params for order %q: %w", order.ID, err)
	}

	if !params.MerchantRefGenerated {
		return params, nil
	}

	stored, err := s.repo.SetMerchantRefNo(ctx, order.ID, params.MerchantRefNo, s.now().UTC())
	if err != nil {
		return entity.PaymentParams{}, fmt.Errorf("store merchant ref for order %q: %w", order.ID, err)
	}

	if stored == params.MerchantRefNo {
		return params, nil
	}

	// Another request stored a reference first; sign with that one.
	slog.InfoContext(ctx, "merchant reference already stored", "order_id", order.ID, "merchant_ref_no", stored)

	req.MerchantRefNo = stored

	params, err = s.provider.PaymentParams(ctx, req)
	if err != nil {
		return entity.PaymentParams{}, fmt.Errorf("build payment params for order %q: %w", order.ID, err)
	}

	return params, nil
}
