package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/clients/payway"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/broker"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/config"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=service.go -destination=../mocks/service.go -package=mocks

// Repository persists the payment side of orders. MarkOrderPaid and
// SetPaymentResult are conditional on the order being unpaid and return
// entity.ErrAlreadyPaid when that condition no longer holds.
type Repository interface {
	Order(ctx context.Context, id string) (entity.Order, error)
	OrderByMerchantRef(ctx context.Context, merchantRefNo string) (entity.Order, error)
	// SetMerchantRefNo stores ref only if the order has none yet and returns the stored value.
	SetMerchantRefNo(ctx context.Context, orderID, ref string, updatedAt time.Time) (string, error)
	MarkOrderPaid(ctx context.Context, paid entity.PaidOrder) error
	SetPaymentResult(ctx context.Context, orderID string, result entity.PaymentResult) error
	RecordProviderStatus(ctx context.Context, update entity.ProviderStatusUpdate) error
	OrdersAwaitingPayment(ctx context.Context, filter entity.PendingFilter) ([]entity.Order, error)
}

type Producer interface {
	SendOrderPaid(ctx context.Context, event broker.OrderPaidEvent)
}

type PaymentProvider interface {
	Enabled() bool
	PaymentParams(ctx context.Context, req entity.PaymentRequest) (entity.PaymentParams, error)
	CheckTransaction(ctx context.Context, tranID string) (entity.TransactionStatus, error)
	VerifyCallback(p entity.CallbackPayload) payway.Verification
}

const (
	providerName   = "aba_payway"
	pollBatchLimit = 100
)

type Service struct {
	repo     Repository
	producer Producer
	provider PaymentProvider
	poller   config.Poller
	limiter  *rate.Limiter
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(repo Repository, producer Producer, provider PaymentProvider, poller config.Poller, opts ...Option) *Service {
	limit := rate.Inf
	if poller.RatePerSecond > 0 {
		limit = rate.Limit(poller.RatePerSecond)
	}

	s := &Service{
		repo:     storeRepository{repo: repo},
		producer: producer,
		provider: provider,
		poller:   poller,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}
