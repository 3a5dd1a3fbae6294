package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
)

// @title ABA PayWay API
// @version 1.0
// @description Payment creation, gateway callbacks and status checks for ABA PayWay orders
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

//go:generate go run go.uber.org/mock/mockgen@latest -source=handler.go -destination=../mocks/api.go -package=mocks

type Service interface {
	ApplyCallback(ctx context.Context, p entity.CallbackPayload) (entity.CallbackOutcome, error)
	CheckStatus(ctx context.Context, orderID string) (entity.StatusCheckResult, error)
	CreatePayment(ctx context.Context, orderID string) (entity.PaymentParams, error)
}

type Handler struct {
	s Service
}

func NewHandler(s Service) *Handler {
	return &Handler{
		s: s,
	}
}

type CallbackResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// PaymentCallback applies a gateway pushback
// @Summary Payment callback
// @Description Called by ABA PayWay when a payment completes. Accepts JSON, URL-encoded or multipart bodies.
// @Tags payway
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Success 200 {object} CallbackResponse
// @Failure 400 {object} ErrorResponse "Invalid signature"
// @Failure 404 {object} ErrorResponse "Order not found"
// @Failure 500 {object} ErrorResponse "Payment could not be applied"
// @Router /payway/payment-callback [post]
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, mode := ParseCallback(r)

	slog.InfoContext(ctx, "payment callback received",
		"parse_mode", mode,
		"tran_id", p.TranID,
		"status", p.Status,
		"has_hash", p.Hash != "",
	)

	// 200 so the gateway does not keep retrying a request that can never succeed.
	if p.TranID == "" {
		SendJSON(ctx, w, http.StatusOK, ErrorResponse{Error: "tran_id is required"})
		return
	}

	outcome, err := h.s.ApplyCallback(ctx, p)
	if err != nil {
		perr := payerror.Parse(err)
		payerror.Log(ctx, "apply payment callback", err)

		resp := ErrorResponse{
			Error:     perr.Message,
			Code:      perr.Code(),
			Retryable: perr.Retryable,
		}

		if perr.HTTPStatus >= http.StatusInternalServerError {
			resp.Description = err.Error()
		}

		SendJSON(ctx, w, perr.HTTPStatus, resp)

		return
	}

	msg := "Payment processed"
	if outcome.AlreadyProcessed {
		msg = "Payment already processed"
	}

	SendJSON(ctx, w, http.StatusOK, CallbackResponse{
		Message: msg,
		OrderID: outcome.OrderID,
		Status:  outcome.Status,
	})
}

type OrderRequest struct {
	OrderID string `json:"orderId"`
}

type CheckStatusResponse struct {
	Success       bool      `json:"success"`
	OrderID       string    `json:"orderId"`
	TransactionID string    `json:"transactionId"`
	Status        int       `json:"status"`
	StatusString  string    `json:"statusString"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	IsPaid        bool      `json:"isPaid"`
	LastChecked   time.Time `json:"lastChecked"`
	Description   string    `json:"description,omitempty"`
}

// CheckStatus asks the gateway for the order's transaction status
// @Summary Check payment status
// @Description Queries ABA PayWay and reconciles the order. Only the owner or an admin may call it.
// @Tags payway
// @Accept json
// @Produce json
// @Param OrderRequest body OrderRequest true "Order to check"
// @Success 200 {object} CheckStatusResponse
// @Failure 400 {object} ErrorResponse "Invalid payment method"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Order not found"
// @Failure 503 {object} ErrorResponse "Service disabled or gateway unreachable"
// @Router /payway/check-status [post]
// @Security BearerAuth
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeOrderRequest(w, r)
	if !ok {
		return
	}

	res, err := h.s.CheckStatus(ctx, req.OrderID)
	if err != nil {
		SendPayErr(ctx, w, "check payment status", err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, CheckStatusResponse{
		Success:       true,
		OrderID:       res.OrderID,
		TransactionID: res.TransactionID,
		Status:        res.Status,
		StatusString:  res.StatusString,
		Amount:        res.Amount.StringFixed(2),
		Currency:      res.Currency,
		IsPaid:        res.IsPaid,
		LastChecked:   res.LastChecked,
		Description:   res.Description,
	})
}

type CreatePaymentResponse struct {
	Action        string            `json:"action"`
	Fields        map[string]string `json:"fields"`
	MerchantRefNo string            `json:"merchantRefNo"`
}

// CreatePayment builds the signed hosted-checkout form
// @Summary Create payment
// @Description Returns the form action and signed fields the browser posts to ABA PayWay.
// @Tags payway
// @Accept json
// @Produce json
// @Param OrderRequest body OrderRequest true "Order to pay"
// @Success 200 {object} CreatePaymentResponse
// @Failure 400 {object} ErrorResponse "Order already paid or invalid payment method"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Order not found"
// @Failure 503 {object} ErrorResponse "Gateway disabled or not configured"
// @Router /payway/payments [post]
// @Security BearerAuth
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeOrderRequest(w, r)
	if !ok {
		return
	}

	params, err := h.s.CreatePayment(ctx, req.OrderID)
	if err != nil {
		SendPayErr(ctx, w, "create payment", err)
		return
	}

	fields := make(map[string]string, len(params.Fields)+1)
	for k, v := range params.Fields {
		fields[k] = v
	}

	fields["hash"] = params.Hash

	SendJSON(ctx, w, http.StatusOK, CreatePaymentResponse{
		Action:        params.Action,
		Fields:        fields,
		MerchantRefNo: params.MerchantRefNo,
	})
}

func decodeOrderRequest(w http.ResponseWriter, r *http.Request) (OrderRequest, bool) {
	ctx := r.Context()

	var req OrderRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, "Invalid JSON")
		return req, false
	}

	if req.OrderID == "" {
		SendJSONErr(ctx, w, http.StatusBadRequest, nil, "orderId is required")
		return req, false
	}

	return req, true
}

// HealthHandler - returns service health status.
// @Summary Health check
// @Description Health check
// @Tags health
// @Accept text/plain
// @Produce text/plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, err := w.Write([]byte("OK\n"))
	if err != nil {
		slog.ErrorContext(ctx, "write health response", "error", err)
	}
}
