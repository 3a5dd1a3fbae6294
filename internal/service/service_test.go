package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/clients/payway"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/mocks"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/service"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/broker"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/config"
)

const (
	orderID = "65f1a2b3c4d5e6f708192a3b"
	ref     = "ORD-08192a3b-q5h1c0"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type deps struct {
	repo     *mocks.MockRepository
	producer *mocks.MockProducer
	provider *mocks.MockPaymentProvider
	svc      *service.Service
}

func newDeps(t *testing.T) deps {
	t.Helper()

	ctrl := gomock.NewController(t)

	d := deps{
		repo:     mocks.NewMockRepository(ctrl),
		producer: mocks.NewMockProducer(ctrl),
		provider: mocks.NewMockPaymentProvider(ctrl),
	}

	d.svc = service.New(d.repo, d.producer, d.provider, config.Poller{
		CallbackWindow: 10 * time.Minute,
		MaxAge:         24 * time.Hour,
		MaxRetries:     3,
		BaseDelay:      time.Millisecond,
	}, service.WithClock(func() time.Time { return now }))

	return d
}

func unpaidOrder(owner uuid.UUID) entity.Order {
	return entity.Order{
		ID:            orderID,
		UserID:        owner,
		TotalPrice:    decimal.RequireFromString("25.50"),
		Currency:      "USD",
		PaymentMethod: entity.PaymentMethodABAPayWay,
		ABA:           entity.ABAPayment{MerchantRefNo: ref},
		CreatedAt:     now.Add(-time.Hour),
	}
}

func TestService_ApplyCallback_Success(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"0", "00"} {
		t.Run("status="+status, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			order := unpaidOrder(uuid.Must(uuid.NewV4()))

			payload := entity.CallbackPayload{TranID: ref, Status: status, APV: "AB12-not-a-number"}

			d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
			d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).Return(order, nil)

			gomock.InOrder(
				d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, paid entity.PaidOrder) error {
						require.Equal(t, orderID, paid.OrderID)
						require.True(t, order.TotalPrice.Equal(paid.Amount))
						require.True(t, order.TotalPrice.Equal(paid.Result.Amount))
						require.Equal(t, "AB12-not-a-number", paid.Result.ApprovalCode)
						require.Equal(t, entity.PaymentResultCompleted, paid.Result.Status)
						require.Equal(t, now, paid.PaidAt)

						return nil
					}),
				d.producer.EXPECT().SendOrderPaid(gomock.Any(), gomock.Any()).
					Do(func(_ context.Context, e broker.OrderPaidEvent) {
						require.Equal(t, orderID, e.OrderID)
						require.Equal(t, "callback", e.Source)
						require.True(t, order.TotalPrice.Equal(e.Amount))
					}),
				d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u entity.ProviderStatusUpdate) error {
						require.Equal(t, orderID, u.OrderID)
						require.Equal(t, ref, u.TransactionID)
						require.True(t, u.CallbackReceived)
						require.Nil(t, u.CheckedAt)
						require.Equal(t, entity.HistorySourceCallback, u.Entry.Source)
						require.Equal(t, "APPROVED", u.Entry.Status)
						require.Equal(t, 0, u.Entry.StatusCode)

						return nil
					}),
			)

			outcome, err := d.svc.ApplyCallback(context.Background(), payload)
			require.NoError(t, err)
			require.Equal(t, entity.CallbackOutcome{OrderID: orderID, Status: service.OutcomePaid, Paid: true}, outcome)
		})
	}
}

func TestService_ApplyCallback_AlreadyPaid(t *testing.T) {
	t.Parallel()

	d := newDeps(t)

	order := unpaidOrder(uuid.Must(uuid.NewV4()))
	paidAt := now.Add(-time.Minute)
	order.IsPaid = true
	order.PaidAt = &paidAt

	payload := entity.CallbackPayload{TranID: ref, Status: "0", APV: "123456"}

	d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable).Times(2)
	d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).Return(order, nil).Times(2)

	for range 2 {
		outcome, err := d.svc.ApplyCallback(context.Background(), payload)
		require.NoError(t, err)
		require.True(t, outcome.AlreadyProcessed)
		require.False(t, outcome.Paid)
	}
}

func TestService_ApplyCallback_LostRace(t *testing.T) {
	t.Parallel()

	d := newDeps(t)

	payload := entity.CallbackPayload{TranID: ref, Status: "00"}

	d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
	d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).Return(unpaidOrder(uuid.Nil), nil)
	d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).Return(entity.ErrAlreadyPaid)

	outcome, err := d.svc.ApplyCallback(context.Background(), payload)
	require.NoError(t, err)
	require.True(t, outcome.AlreadyProcessed)
}

func TestService_ApplyCallback_MarkPaidFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "connection reset",
			err:     errors.New("write tcp 10.0.0.2:5432: connection reset by peer"),
			wantMsg: "connection reset by peer",
		},
		{
			name:    "net timeout",
			err:     &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded},
			wantMsg: "i/o timeout",
		},
		{
			name:    "context deadline",
			err:     context.DeadlineExceeded,
			wantMsg: "context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)

			payload := entity.CallbackPayload{TranID: ref, Status: "0"}

			d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
			d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).Return(unpaidOrder(uuid.Nil), nil)
			d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).Return(tt.err)

			_, err := d.svc.ApplyCallback(context.Background(), payload)
			require.ErrorIs(t, err, tt.err)
			require.ErrorContains(t, err, tt.wantMsg)

			perr := payerror.Parse(err)
			require.Equal(t, payerror.KindDatabase, perr.Kind)
			require.Equal(t, http.StatusInternalServerError, perr.HTTPStatus)
		})
	}
}

func TestService_ApplyCallback_LookupFailsAsDatabase(t *testing.T) {
	t.Parallel()

	d := newDeps(t)

	payload := entity.CallbackPayload{TranID: ref, Status: "0"}

	d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
	d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).
		Return(entity.Order{}, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

	_, err := d.svc.ApplyCallback(context.Background(), payload)
	require.Equal(t, payerror.KindDatabase, payerror.Parse(err).Kind)
}

// Not parallel: swaps the default logger.
func TestService_ApplyCallback_HistoryFailureAlerts(t *testing.T) {
	var buf bytes.Buffer

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	d := newDeps(t)

	payload := entity.CallbackPayload{TranID: ref, Status: "0"}

	d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
	d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).Return(unpaidOrder(uuid.Nil), nil)
	d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).Return(nil)
	d.producer.EXPECT().SendOrderPaid(gomock.Any(), gomock.Any())
	d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).Return(errors.New("write tcp: broken pipe"))

	outcome, err := d.svc.ApplyCallback(context.Background(), payload)
	require.NoError(t, err)
	require.True(t, outcome.Paid)

	var entry map[string]any

	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))

		if m["msg"] == "payment applied but callback history not recorded" {
			entry = m
		}
	}

	require.NotNil(t, entry)
	require.Equal(t, "ERROR", entry["level"])
	require.Equal(t, true, entry["alert"])
	require.Equal(t, string(payerror.KindDatabase), entry["kind"])
	require.Equal(t, ref, entry["tran_id"])
}

func TestService_ApplyCallback_Failure(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		status     string
		wantResult entity.PaymentResultStatus
		wantOut    string
		wantName   string
		wantCode   int
	}{
		{status: "3", wantResult: entity.PaymentResultFailed, wantOut: service.OutcomeFailed, wantName: "DECLINED", wantCode: 3},
		{status: "7", wantResult: entity.PaymentResultCancelled, wantOut: service.OutcomeCancelled, wantName: "CANCELLED", wantCode: 7},
		{status: "-1", wantResult: entity.PaymentResultFailed, wantOut: service.OutcomeFailed, wantName: "UNKNOWN", wantCode: -1},
		{status: "", wantResult: entity.PaymentResultFailed, wantOut: service.OutcomeFailed, wantName: "UNKNOWN", wantCode: -1},
	} {
		t.Run("status="+tt.status, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)

			payload := entity.CallbackPayload{TranID: ref, Status: tt.status, APV: "x"}

			d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationValid)
			d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).Return(unpaidOrder(uuid.Nil), nil)

			gomock.InOrder(
				d.repo.EXPECT().SetPaymentResult(gomock.Any(), orderID, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, r entity.PaymentResult) error {
						require.Equal(t, tt.wantResult, r.Status)
						return nil
					}),
				d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u entity.ProviderStatusUpdate) error {
						require.Equal(t, tt.wantName, u.Entry.Status)
						require.Equal(t, tt.wantCode, u.Entry.StatusCode)
						require.True(t, u.CallbackReceived)

						return nil
					}),
			)

			outcome, err := d.svc.ApplyCallback(context.Background(), payload)
			require.NoError(t, err)
			require.Equal(t, tt.wantOut, outcome.Status)
			require.False(t, outcome.Paid)
		})
	}
}

func TestService_ApplyCallback_InvalidSignature(t *testing.T) {
	t.Parallel()

	d := newDeps(t)

	payload := entity.CallbackPayload{TranID: ref, Status: "0", Hash: "forged"}
	d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationInvalid)

	_, err := d.svc.ApplyCallback(context.Background(), payload)
	require.ErrorIs(t, err, entity.ErrInvalidSignature)
}

func TestService_ApplyCallback_ResolveOrder(t *testing.T) {
	t.Parallel()

	t.Run("falls back to order id", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		order := unpaidOrder(uuid.Nil)
		order.ABA.MerchantRefNo = ""
		payload := entity.CallbackPayload{TranID: orderID, Status: "1"}

		d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
		d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), orderID).Return(entity.Order{}, entity.ErrNotFound)
		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(order, nil)
		d.repo.EXPECT().SetPaymentResult(gomock.Any(), orderID, gomock.Any()).Return(nil)
		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).Return(nil)

		outcome, err := d.svc.ApplyCallback(context.Background(), payload)
		require.NoError(t, err)
		require.Equal(t, orderID, outcome.OrderID)
	})

	t.Run("unknown reference", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		payload := entity.CallbackPayload{TranID: "ORD-unknown", Status: "0"}

		d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
		d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), "ORD-unknown").Return(entity.Order{}, entity.ErrNotFound)

		_, err := d.svc.ApplyCallback(context.Background(), payload)
		require.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("record status failure does not fail callback", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		payload := entity.CallbackPayload{TranID: ref, Status: "0"}

		d.provider.EXPECT().VerifyCallback(payload).Return(payway.VerificationNotApplicable)
		d.repo.EXPECT().OrderByMerchantRef(gomock.Any(), ref).Return(unpaidOrder(uuid.Nil), nil)
		d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).Return(nil)
		d.producer.EXPECT().SendOrderPaid(gomock.Any(), gomock.Any())
		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).Return(errors.New("database unavailable"))

		outcome, err := d.svc.ApplyCallback(context.Background(), payload)
		require.NoError(t, err)
		require.True(t, outcome.Paid)
	})
}

func TestService_ApplyCallback_MissingTranID(t *testing.T) {
	t.Parallel()

	d := newDeps(t)

	_, err := d.svc.ApplyCallback(context.Background(), entity.CallbackPayload{Status: "0"})
	require.ErrorIs(t, err, entity.ErrInvalidArgument)
}

func TestService_CheckStatus_Guards(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())
	ownerCtx := entity.CtxWithUser(context.Background(), entity.User{ID: owner, Role: entity.RoleUser})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		_, err := newDeps(t).svc.CheckStatus(context.Background(), orderID)
		require.ErrorIs(t, err, entity.ErrUnauthenticated)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(entity.Order{}, entity.ErrNotFound)

		_, err := d.svc.CheckStatus(ownerCtx, orderID)
		require.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("other user", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(uuid.Must(uuid.NewV4())), nil)

		_, err := d.svc.CheckStatus(ownerCtx, orderID)
		require.ErrorIs(t, err, entity.ErrForbidden)
	})

	t.Run("other payment method", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		order := unpaidOrder(owner)
		order.PaymentMethod = "cash_on_delivery"
		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(order, nil)

		_, err := d.svc.CheckStatus(ownerCtx, orderID)
		require.ErrorIs(t, err, entity.ErrInvalidPaymentMethod)
	})

	t.Run("no merchant reference", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		order := unpaidOrder(owner)
		order.ABA.MerchantRefNo = ""
		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(order, nil)

		_, err := d.svc.CheckStatus(ownerCtx, orderID)
		require.ErrorIs(t, err, entity.ErrMerchantRefMissing)
		require.Equal(t, payerror.KindInvalidPaymentMethod, payerror.Parse(err).Kind)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().Enabled().Return(false)

		_, err := d.svc.CheckStatus(ownerCtx, orderID)
		require.ErrorIs(t, err, entity.ErrServiceDisabled)
	})
}

func TestService_CheckStatus_AmountGate(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())

	for _, tt := range []struct {
		name       string
		amount     string
		wantPaid   bool
		wantDetail string
	}{
		{name: "exact", amount: "25.50", wantPaid: true},
		{name: "one cent over", amount: "25.51", wantPaid: true},
		{name: "one cent under", amount: "25.49", wantPaid: true},
		{name: "two cents over", amount: "25.52", wantDetail: "amount mismatch: gateway reported 25.52, order total 25.50"},
		{name: "zero", amount: "0", wantDetail: "amount mismatch: gateway reported 0.00, order total 25.50"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

			d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
			d.provider.EXPECT().Enabled().Return(true)
			d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).Return(entity.TransactionStatus{
				Status:      entity.StatusCodeApproved,
				Amount:      decimal.RequireFromString(tt.amount),
				Currency:    "USD",
				Description: "approved",
			}, nil)

			if tt.wantPaid {
				d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, paid entity.PaidOrder) error {
						require.True(t, decimal.RequireFromString("25.50").Equal(paid.Amount))
						return nil
					})
				d.producer.EXPECT().SendOrderPaid(gomock.Any(), gomock.Any())
			}

			d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, u entity.ProviderStatusUpdate) error {
					require.Equal(t, entity.HistorySourceAPICheck, u.Entry.Source)
					require.Equal(t, "APPROVED", u.Entry.Status)
					require.False(t, u.CallbackReceived)
					require.NotNil(t, u.CheckedAt)
					require.Equal(t, now, *u.CheckedAt)

					if tt.wantDetail != "" {
						require.Equal(t, tt.wantDetail, u.Entry.Details)
					} else {
						require.Equal(t, "approved", u.Entry.Details)
					}

					return nil
				})

			res, err := d.svc.CheckStatus(ctx, orderID)
			require.NoError(t, err)
			require.Equal(t, tt.wantPaid, res.IsPaid)
			require.Equal(t, ref, res.TransactionID)
			require.Equal(t, "APPROVED", res.StatusString)
			require.Equal(t, now, res.LastChecked)
		})
	}
}

func TestService_CheckStatus_AdminOnPaidOrder(t *testing.T) {
	t.Parallel()

	d := newDeps(t)
	ctx := entity.CtxWithUser(context.Background(), entity.User{ID: uuid.Must(uuid.NewV4()), Role: entity.RoleAdmin})

	order := unpaidOrder(uuid.Must(uuid.NewV4()))
	order.IsPaid = true

	d.repo.EXPECT().Order(gomock.Any(), orderID).Return(order, nil)
	d.provider.EXPECT().Enabled().Return(true)
	d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).
		Return(entity.TransactionStatus{Status: entity.StatusCodeApproved, Amount: order.TotalPrice}, nil)
	d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).Return(nil)

	res, err := d.svc.CheckStatus(ctx, orderID)
	require.NoError(t, err)
	require.True(t, res.IsPaid)
}

func TestService_CheckStatus_Retries(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())

	t.Run("retryable error then success", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().Enabled().Return(true)

		gomock.InOrder(
			d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).
				Return(entity.TransactionStatus{}, payerror.New(payerror.KindNetwork, nil)).Times(2),
			d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).
				Return(entity.TransactionStatus{Status: entity.StatusCodePending}, nil),
		)

		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).Return(nil)

		res, err := d.svc.CheckStatus(ctx, orderID)
		require.NoError(t, err)
		require.False(t, res.IsPaid)
		require.Equal(t, "PENDING", res.StatusString)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().Enabled().Return(true)
		d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).
			Return(entity.TransactionStatus{}, payerror.New(payerror.KindTimeout, nil)).Times(3)
		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u entity.ProviderStatusUpdate) error {
				require.Equal(t, orderID, u.OrderID)
				require.Equal(t, ref, u.TransactionID)
				require.NotNil(t, u.CheckedAt)
				require.Equal(t, now, *u.CheckedAt)
				require.False(t, u.CallbackReceived)
				require.True(t, u.HistoryOnly)
				require.Equal(t, entity.StatusCheckFailed, u.Entry.Status)
				require.Equal(t, entity.HistorySourceAPICheck, u.Entry.Source)
				require.Contains(t, u.Entry.Details, "TIMEOUT_ERROR")

				return nil
			})

		_, err := d.svc.CheckStatus(ctx, orderID)
		require.Equal(t, payerror.KindTimeout, payerror.Parse(err).Kind)
	})

	t.Run("configuration error is not retried", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().Enabled().Return(true)
		d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).Return(entity.TransactionStatus{}, entity.ErrNotConfigured)
		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u entity.ProviderStatusUpdate) error {
				require.Contains(t, u.Entry.Details, "CONFIGURATION_ERROR")
				return nil
			})

		_, err := d.svc.CheckStatus(ctx, orderID)
		require.ErrorIs(t, err, entity.ErrNotConfigured)
	})

	t.Run("failed check history write does not mask the gateway error", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().Enabled().Return(true)
		d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).Return(entity.TransactionStatus{}, entity.ErrInvalidSignature)
		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).Return(errors.New("database unavailable"))

		_, err := d.svc.CheckStatus(ctx, orderID)
		require.ErrorIs(t, err, entity.ErrInvalidSignature)
	})
}

func TestService_CheckStatus_StoreErrors(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())

	t.Run("order lookup", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(entity.Order{}, context.DeadlineExceeded)

		_, err := d.svc.CheckStatus(ctx, orderID)

		perr := payerror.Parse(err)
		require.Equal(t, payerror.KindDatabase, perr.Kind)
		require.Equal(t, http.StatusInternalServerError, perr.HTTPStatus)
	})

	t.Run("history write", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().Enabled().Return(true)
		d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).
			Return(entity.TransactionStatus{Status: entity.StatusCodePending}, nil)
		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
			Return(errors.New("read tcp 10.0.0.2:5432: connection reset by peer"))

		_, err := d.svc.CheckStatus(ctx, orderID)
		require.Equal(t, payerror.KindDatabase, payerror.Parse(err).Kind)
	})
}

func TestService_Reconcile_Manual(t *testing.T) {
	t.Parallel()

	d := newDeps(t)

	d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(uuid.Nil), nil)
	d.provider.EXPECT().Enabled().Return(true)
	d.provider.EXPECT().CheckTransaction(gomock.Any(), ref).
		Return(entity.TransactionStatus{Status: entity.StatusCodeApproved, Amount: decimal.RequireFromString("25.5")}, nil)
	d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).Return(nil)
	d.producer.EXPECT().SendOrderPaid(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, e broker.OrderPaidEvent) {
			require.Equal(t, "manual", e.Source)
		})
	d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u entity.ProviderStatusUpdate) error {
			require.Equal(t, entity.HistorySourceManual, u.Entry.Source)
			return nil
		})

	res, err := d.svc.Reconcile(context.Background(), orderID)
	require.NoError(t, err)
	require.True(t, res.IsPaid)
}

func TestService_PollPendingPayments(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.provider.EXPECT().Enabled().Return(false)

		require.NoError(t, d.svc.PollPendingPayments(context.Background()))
	})

	t.Run("sweeps overdue orders", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		paid := unpaidOrder(uuid.Nil)
		pending := unpaidOrder(uuid.Nil)
		pending.ID = "65f1a2b3c4d5e6f708192a3c"
		pending.ABA.MerchantRefNo = "ORD-08192a3c-q5h1c1"
		failing := unpaidOrder(uuid.Nil)
		failing.ID = "65f1a2b3c4d5e6f708192a3d"
		failing.ABA.MerchantRefNo = "ORD-08192a3d-q5h1c2"

		d.provider.EXPECT().Enabled().Return(true)
		d.repo.EXPECT().OrdersAwaitingPayment(gomock.Any(), entity.PendingFilter{
			PaymentMethod: entity.PaymentMethodABAPayWay,
			CreatedAfter:  now.Add(-24 * time.Hour),
			CreatedBefore: now.Add(-10 * time.Minute),
			Limit:         100,
		}).Return([]entity.Order{paid, pending, failing}, nil)

		d.provider.EXPECT().CheckTransaction(gomock.Any(), paid.ABA.MerchantRefNo).
			Return(entity.TransactionStatus{Status: entity.StatusCodeApproved, Amount: paid.TotalPrice}, nil)
		d.repo.EXPECT().MarkOrderPaid(gomock.Any(), gomock.Any()).Return(nil)
		d.producer.EXPECT().SendOrderPaid(gomock.Any(), gomock.Any())

		d.provider.EXPECT().CheckTransaction(gomock.Any(), pending.ABA.MerchantRefNo).
			Return(entity.TransactionStatus{Status: entity.StatusCodePending}, nil)

		d.provider.EXPECT().CheckTransaction(gomock.Any(), failing.ABA.MerchantRefNo).
			Return(entity.TransactionStatus{}, entity.ErrInvalidSignature)

		d.repo.EXPECT().RecordProviderStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u entity.ProviderStatusUpdate) error {
				require.Equal(t, entity.HistorySourceAPICheck, u.Entry.Source)

				if u.OrderID == failing.ID {
					require.Equal(t, entity.StatusCheckFailed, u.Entry.Status)
					require.Contains(t, u.Entry.Details, "INVALID_SIGNATURE")
				}

				return nil
			}).Times(3)

		err := d.svc.PollPendingPayments(context.Background())
		require.ErrorIs(t, err, entity.ErrInvalidSignature)
		require.True(t, strings.Contains(err.Error(), failing.ID))
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.provider.EXPECT().Enabled().Return(true)
		d.repo.EXPECT().OrdersAwaitingPayment(gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: connection refused"))

		err := d.svc.PollPendingPayments(context.Background())
		require.Equal(t, payerror.KindDatabase, payerror.Parse(err).Kind)
	})
}

func TestService_CreatePayment(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())
	ctx := entity.CtxWithUser(context.Background(), entity.User{ID: owner})

	t.Run("generates and stores reference", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		order := unpaidOrder(owner)
		order.ABA.MerchantRefNo = ""

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(order, nil)
		d.provider.EXPECT().PaymentParams(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req entity.PaymentRequest) (entity.PaymentParams, error) {
				require.Empty(t, req.MerchantRefNo)
				require.True(t, order.TotalPrice.Equal(req.Amount))

				return entity.PaymentParams{MerchantRefNo: ref, MerchantRefGenerated: true}, nil
			})
		d.repo.EXPECT().SetMerchantRefNo(gomock.Any(), orderID, ref, now).Return(ref, nil)

		params, err := d.svc.CreatePayment(ctx, orderID)
		require.NoError(t, err)
		require.Equal(t, ref, params.MerchantRefNo)
	})

	t.Run("reuses stored reference", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().PaymentParams(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req entity.PaymentRequest) (entity.PaymentParams, error) {
				require.Equal(t, ref, req.MerchantRefNo)
				return entity.PaymentParams{MerchantRefNo: req.MerchantRefNo}, nil
			})

		params, err := d.svc.CreatePayment(ctx, orderID)
		require.NoError(t, err)
		require.Equal(t, ref, params.MerchantRefNo)
	})

	t.Run("lost race uses the stored reference", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		order := unpaidOrder(owner)
		order.ABA.MerchantRefNo = ""

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(order, nil)

		gomock.InOrder(
			d.provider.EXPECT().PaymentParams(gomock.Any(), gomock.Any()).
				Return(entity.PaymentParams{MerchantRefNo: "ORD-08192a3b-zzzzzz", MerchantRefGenerated: true}, nil),
			d.repo.EXPECT().SetMerchantRefNo(gomock.Any(), orderID, "ORD-08192a3b-zzzzzz", now).Return(ref, nil),
			d.provider.EXPECT().PaymentParams(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req entity.PaymentRequest) (entity.PaymentParams, error) {
					require.Equal(t, ref, req.MerchantRefNo)
					return entity.PaymentParams{MerchantRefNo: ref}, nil
				}),
		)

		params, err := d.svc.CreatePayment(ctx, orderID)
		require.NoError(t, err)
		require.Equal(t, ref, params.MerchantRefNo)
	})

	t.Run("paid order", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		order := unpaidOrder(owner)
		order.IsPaid = true
		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(order, nil)

		_, err := d.svc.CreatePayment(ctx, orderID)
		require.ErrorIs(t, err, entity.ErrAlreadyPaid)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		d.repo.EXPECT().Order(gomock.Any(), orderID).Return(unpaidOrder(owner), nil)
		d.provider.EXPECT().PaymentParams(gomock.Any(), gomock.Any()).Return(entity.PaymentParams{}, entity.ErrNotConfigured)

		_, err := d.svc.CreatePayment(ctx, orderID)
		require.ErrorIs(t, err, entity.ErrNotConfigured)
	})
}
