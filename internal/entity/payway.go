package entity

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// SuccessStatus is the tagged form of the gateway's success codes.
// The gateway reports success as either "0" or "00"; nothing else is success.
type SuccessStatus uint8

const (
	NotSuccess SuccessStatus = iota
	SuccessZero
	SuccessDoubleZero
)

var successWire = map[string]SuccessStatus{
	"0":  SuccessZero,
	"00": SuccessDoubleZero,
}

// ParseSuccessStatus compares the raw wire string, never its numeric value.
func ParseSuccessStatus(raw string) SuccessStatus {
	return successWire[raw]
}

func (s SuccessStatus) IsSuccess() bool {
	return s != NotSuccess
}

func (s SuccessStatus) Wire() string {
	switch s {
	case SuccessZero:
		return "0"
	case SuccessDoubleZero:
		return "00"
	}

	return ""
}

// Gateway transaction status codes.
const (
	StatusCodeApproved    = 0
	StatusCodeCreated     = 1
	StatusCodePending     = 2
	StatusCodeDeclined    = 3
	StatusCodeRefunded    = 4
	StatusCodeWrongHash   = 5
	StatusCodeCancelled   = 7
	StatusCodeOtherError  = 11
	StatusCodeUnparseable = -1
)

// StatusCheckFailed is the history status of a check the gateway did not answer.
const StatusCheckFailed = "CHECK_FAILED"

var statusNames = map[int]string{
	StatusCodeApproved:   "APPROVED",
	StatusCodeCreated:    "CREATED",
	StatusCodePending:    "PENDING",
	StatusCodeDeclined:   "DECLINED",
	StatusCodeRefunded:   "REFUNDED",
	StatusCodeWrongHash:  "WRONG_HASH",
	StatusCodeCancelled:  "CANCELLED",
	StatusCodeOtherError: "OTHER_ERROR",
}

func StatusName(code int) string {
	if name, ok := statusNames[code]; ok {
		return name
	}

	return "UNKNOWN"
}

// StatusCodeFromWire converts a callback status string to a history status code.
func StatusCodeFromWire(raw string) int {
	code, err := strconv.Atoi(raw)
	if err != nil {
		return StatusCodeUnparseable
	}

	return code
}

// CallbackPayload is the gateway pushback after the body was decoded.
// Hash is empty in pushback mode.
type CallbackPayload struct {
	TranID string
	Status string
	APV    string
	Hash   string
	Fields map[string]string
}

func (p CallbackPayload) SuccessStatus() SuccessStatus {
	return ParseSuccessStatus(p.Status)
}

// IsCancelled tells cancellation apart from other failures.
func (p CallbackPayload) IsCancelled() bool {
	return StatusCodeFromWire(p.Status) == StatusCodeCancelled
}

// CallbackOutcome is what ApplyCallback reports back to the gateway.
type CallbackOutcome struct {
	OrderID          string
	Status           string
	AlreadyProcessed bool
	Paid             bool
}

type PaymentRequest struct {
	OrderID            string
	Amount             decimal.Decimal
	Currency           string
	Items              []OrderItem
	Customer           CustomerInfo
	ReturnURL          string
	CancelURL          string
	ContinueSuccessURL string
	MerchantRefNo      string
}

// PaymentParams is the signed field set posted to the hosted payment page.
type PaymentParams struct {
	Action               string            `json:"action"`
	Fields               map[string]string `json:"fields"`
	Hash                 string            `json:"hash"`
	MerchantRefNo        string            `json:"merchantRefNo"`
	MerchantRefGenerated bool              `json:"-"`
}

// TransactionStatus is the gateway answer to a status check.
type TransactionStatus struct {
	Status      int
	Amount      decimal.Decimal
	Currency    string
	PaymentDate string
	Description string
}

func (s TransactionStatus) IsApproved() bool {
	return s.Status == StatusCodeApproved
}

// StatusCheckResult is returned to the user or operator after a status check.
type StatusCheckResult struct {
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	Status        int             `json:"status"`
	StatusString  string          `json:"statusString"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	IsPaid        bool            `json:"isPaid"`
	LastChecked   time.Time       `json:"lastChecked"`
	Description   string          `json:"description,omitempty"`
}
