package broker

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// OrderPaidEvent is published once per order, after the paid flag flipped.
type OrderPaidEvent struct {
	EventID  uuid.UUID       `json:"eventId"`
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
	PaidAt   time.Time       `json:"paidAt"`
}

func NewOrderPaidEvent(orderID string, amount decimal.Decimal, currency, source string, paidAt time.Time) OrderPaidEvent {
	return OrderPaidEvent{
		EventID:  uuid.Must(uuid.NewV4()),
		OrderID:  orderID,
		Amount:   amount,
		Currency: currency,
		Source:   source,
		PaidAt:   paidAt.UTC(),
	}
}

func (e OrderPaidEvent) marshal() ([]byte, error) {
	return json.Marshal(e)
}
