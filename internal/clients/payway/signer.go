package payway

import (
	"strings"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/security"
)

// PaymentFields are the purchase fields covered by the hash. Empty fields
// still take part in the hash as empty strings.
type PaymentFields struct {
	ReqTime            string
	MerchantID         string
	TranID             string
	Amount             string
	Items              string
	Shipping           string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Type               string
	PaymentOption      string
	ReturnURL          string
	CancelURL          string
	ContinueSuccessURL string
	ReturnDeeplink     string
	Currency           string
	CustomFields       string
	ReturnParams       string
	Payout             string
	Lifetime           string
	AdditionalParams   string
	GooglePayToken     string
	SkipSuccessPage    string
}

type field struct {
	name  string
	value string
}

// ordered lists the fields in gateway hash order.
func (f PaymentFields) ordered() []field {
	return []field{
		{"req_time", f.ReqTime},
		{"merchant_id", f.MerchantID},
		{"tran_id", f.TranID},
		{"amount", f.Amount},
		{"items", f.Items},
		{"shipping", f.Shipping},
		{"firstname", f.FirstName},
		{"lastname", f.LastName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"type", f.Type},
		{"payment_option", f.PaymentOption},
		{"return_url", f.ReturnURL},
		{"cancel_url", f.CancelURL},
		{"continue_success_url", f.ContinueSuccessURL},
		{"return_deeplink", f.ReturnDeeplink},
		{"currency", f.Currency},
		{"custom_fields", f.CustomFields},
		{"return_params", f.ReturnParams},
		{"payout", f.Payout},
		{"lifetime", f.Lifetime},
		{"additional_params", f.AdditionalParams},
		{"google_pay_token", f.GooglePayToken},
		{"skip_success_page", f.SkipSuccessPage},
	}
}

// Map returns the form fields to post, without the hash.
func (f PaymentFields) Map() map[string]string {
	fields := f.ordered()

	m := make(map[string]string, len(fields))
	for _, v := range fields {
		m[v.name] = v.value
	}

	return m
}

type Verification uint8

const (
	// VerificationNotApplicable means the callback carried no hash (pushback mode).
	VerificationNotApplicable Verification = iota
	VerificationValid
	VerificationInvalid
)

func (v Verification) String() string {
	switch v {
	case VerificationValid:
		return "valid"
	case VerificationInvalid:
		return "invalid"
	}

	return "not_applicable"
}

// Signer hashes the three gateway operations. Each uses its own field order
// and the same merchant secret.
type Signer struct {
	merchantID string
	secret     string
}

func NewSigner(merchantID, secret string) Signer {
	return Signer{
		merchantID: merchantID,
		secret:     secret,
	}
}

// Hash signs a purchase request.
func (s Signer) Hash(f PaymentFields) string {
	var b strings.Builder

	for _, v := range f.ordered() {
		b.WriteString(v.value)
	}

	return security.SignHMACSHA512(s.secret, b.String())
}

// CallbackHash signs tran_id + status + apv + merchant_id.
func (s Signer) CallbackHash(p entity.CallbackPayload) string {
	return security.SignHMACSHA512(s.secret, p.TranID+p.Status+p.APV+s.merchantID)
}

func (s Signer) VerifyCallback(p entity.CallbackPayload) Verification {
	if p.Hash == "" {
		return VerificationNotApplicable
	}

	if security.EqualSignatures(s.CallbackHash(p), p.Hash) {
		return VerificationValid
	}

	return VerificationInvalid
}

// StatusCheckHash signs tran_id + merchant_id.
func (s Signer) StatusCheckHash(tranID string) string {
	return security.SignHMACSHA512(s.secret, tranID+s.merchantID)
}
