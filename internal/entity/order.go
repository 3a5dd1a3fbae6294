package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const PaymentMethodABAPayWay = "aba_payway"

// Order is owned by the storefront. Only the payment fields are written here.
type Order struct {
	ID            string
	UserID        uuid.UUID
	TotalPrice    decimal.Decimal
	Currency      string
	PaymentMethod string
	IsPaid        bool
	PaidAt        *time.Time
	PaymentResult *PaymentResult
	Items         []OrderItem
	Customer      CustomerInfo
	ABA           ABAPayment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// ABAPayment tracks what the gateway last told us about an order.
type ABAPayment struct {
	MerchantRefNo    string
	TransactionID    string
	Status           string
	StatusCode       int
	LastCheckedAt    *time.Time
	CallbackReceived bool
	StatusHistory    []StatusHistoryEntry
}

type HistorySource string

const (
	HistorySourceCallback HistorySource = "callback"
	HistorySourceAPICheck HistorySource = "api_check"
	HistorySourceManual   HistorySource = "manual"
)

func (s HistorySource) IsValid() bool {
	switch s {
	case HistorySourceCallback, HistorySourceAPICheck, HistorySourceManual:
		return true
	}

	return false
}

// StatusHistoryEntry is append-only.
type StatusHistoryEntry struct {
	Status     string        `json:"status"`
	StatusCode int           `json:"statusCode"`
	Timestamp  time.Time     `json:"timestamp"`
	Source     HistorySource `json:"source"`
	Details    string        `json:"details"`
}

type PaymentResultStatus string

const (
	PaymentResultCompleted PaymentResultStatus = "completed"
	PaymentResultFailed    PaymentResultStatus = "failed"
	PaymentResultCancelled PaymentResultStatus = "cancelled"
)

type PaymentResult struct {
	ID           string              `json:"id"`
	Status       PaymentResultStatus `json:"status"`
	UpdateTime   time.Time           `json:"updateTime"`
	Amount       decimal.Decimal     `json:"amount"`
	ApprovalCode string              `json:"approvalCode,omitempty"`
	Provider     string              `json:"provider"`
}

// PaidOrder is what MarkOrderPaid persists when the paid flag flips.
type PaidOrder struct {
	OrderID string
	Amount  decimal.Decimal
	PaidAt  time.Time
	Result  PaymentResult
}

// ProviderStatusUpdate refreshes the denormalized gateway fields and appends one history entry.
type ProviderStatusUpdate struct {
	OrderID          string
	TransactionID    string
	CallbackReceived bool
	CheckedAt        *time.Time
	// HistoryOnly appends Entry without replacing the last gateway status.
	HistoryOnly      bool
	Entry            StatusHistoryEntry
}

// PendingFilter selects orders that are still waiting for a callback.
type PendingFilter struct {
	PaymentMethod string
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Limit         uint64
}

var cent = decimal.New(1, -2)

// AmountWithinCent reports whether two amounts differ by at most 0.01.
func AmountWithinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(cent)
}

// IsObjectID reports whether s is a 24 character hex document id.
func IsObjectID(s string) bool {
	return primitive.IsValidObjectID(s)
}
