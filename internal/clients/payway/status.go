package payway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
)

type checkTransactionRequest struct {
	TranID     string `json:"tran_id"`
	MerchantID string `json:"merchant_id"`
	Hash       string `json:"hash"`
}

type checkTransactionResponse struct {
	Status      int             `json:"status"`
	Amount      json.RawMessage `json:"amount"`
	Currency    string          `json:"currency"`
	PaymentDate string          `json:"payment_date"`
	Description string          `json:"description"`
}

// CheckTransaction asks the gateway for the current state of tranID.
// Errors are classified: non-2xx is KindAPI, timeouts are KindTimeout and
// other transport failures are KindNetwork.
func (c *Client) CheckTransaction(ctx context.Context, tranID string) (entity.TransactionStatus, error) {
	s, err := c.ready()
	if err != nil {
		return entity.TransactionStatus{}, err
	}

	body, err := json.Marshal(checkTransactionRequest{
		TranID:     tranID,
		MerchantID: s.MerchantID,
		Hash:       c.signer(s).StatusCheckHash(tranID),
	})
	if err != nil {
		return entity.TransactionStatus{}, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+checkTransactionPath, bytes.NewReader(body))
	if err != nil {
		return entity.TransactionStatus{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return entity.TransactionStatus{}, classifyTransportErr(err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.TransactionStatus{}, classifyTransportErr(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return entity.TransactionStatus{}, payerror.Parse(&payerror.StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		})
	}

	var data checkTransactionResponse

	err = json.Unmarshal(respBody, &data)
	if err != nil {
		return entity.TransactionStatus{}, payerror.New(payerror.KindAPI, fmt.Errorf("decode response: %w", err))
	}

	amount, err := parseAmount(data.Amount)
	if err != nil {
		return entity.TransactionStatus{}, payerror.New(payerror.KindAPI, fmt.Errorf("parse amount: %w", err))
	}

	return entity.TransactionStatus{
		Status:      data.Status,
		Amount:      amount,
		Currency:    data.Currency,
		PaymentDate: data.PaymentDate,
		Description: data.Description,
	}, nil
}

func classifyTransportErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return payerror.New(payerror.KindTimeout, err)
	}

	return payerror.New(payerror.KindNetwork, err)
}

// parseAmount accepts the amount as a JSON number or a quoted string.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}

	return decimal.NewFromString(s)
}
