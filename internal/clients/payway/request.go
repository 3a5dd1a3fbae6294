package payway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
)

const (
	reqTimeLayout       = "20060102150405"
	transactionPurchase = "purchase"
)

type itemWire struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
}

type customFieldsWire struct {
	MerchantRefNo string `json:"merchantRefNo"`
	OrderID       string `json:"orderId"`
}

// PaymentParams builds the signed purchase form for the hosted payment page.
// req.MerchantRefNo is reused when set; otherwise a new reference is generated
// and the caller must persist it.
func (c *Client) PaymentParams(ctx context.Context, req entity.PaymentRequest) (entity.PaymentParams, error) {
	s := c.Settings()
	if !s.Configured() {
		return entity.PaymentParams{}, entity.ErrNotConfigured
	}

	now := c.now().UTC()

	ref := req.MerchantRefNo
	generated := ref == ""

	if generated {
		ref = GenerateMerchantRefNo(req.OrderID, now)
		slog.InfoContext(ctx, "merchant reference generated", "merchant_ref_no", ref)
	} else {
		slog.InfoContext(ctx, "merchant reference reused", "merchant_ref_no", ref)
	}

	items, err := encodeItems(req.Items)
	if err != nil {
		return entity.PaymentParams{}, fmt.Errorf("encode items: %w", err)
	}

	custom, err := encodeJSON(customFieldsWire{MerchantRefNo: ref, OrderID: req.OrderID})
	if err != nil {
		return entity.PaymentParams{}, fmt.Errorf("encode custom fields: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.Currency
	}

	fields := PaymentFields{
		ReqTime:            now.Format(reqTimeLayout),
		MerchantID:         s.MerchantID,
		TranID:             ref,
		Amount:             req.Amount.StringFixed(2),
		Items:              items,
		FirstName:          req.Customer.FirstName,
		LastName:           req.Customer.LastName,
		Email:              req.Customer.Email,
		Phone:              req.Customer.Phone,
		Type:               transactionPurchase,
		ReturnURL:          base64.StdEncoding.EncodeToString([]byte(orDefault(req.ReturnURL, s.ReturnURL))),
		CancelURL:          orDefault(req.CancelURL, s.CancelURL),
		ContinueSuccessURL: orDefault(req.ContinueSuccessURL, s.ContinueSuccessURL),
		Currency:           currency,
		CustomFields:       custom,
		ReturnParams:       req.OrderID,
		Lifetime:           strconv.Itoa(s.LifetimeMinutes),
	}

	return entity.PaymentParams{
		Action:               s.BaseURL + purchasePath,
		Fields:               fields.Map(),
		Hash:                 c.signer(s).Hash(fields),
		MerchantRefNo:        ref,
		MerchantRefGenerated: generated,
	}, nil
}

func encodeItems(items []entity.OrderItem) (string, error) {
	wire := make([]itemWire, 0, len(items))

	for _, v := range items {
		wire = append(wire, itemWire{
			Name:     v.Name,
			Quantity: v.Quantity,
			Price:    json.Number(v.Price.StringFixed(2)),
		})
	}

	return encodeJSON(wire)
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}

	return def
}
