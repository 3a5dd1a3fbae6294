package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
)

type ErrorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code,omitempty"`
	Retryable   bool   `json:"retryable"`
	Description string `json:"description,omitempty"`
}

func SendJSONErr(ctx context.Context, w http.ResponseWriter, code int, originErr error, msgToSend string) {
	resp := ErrorResponse{Error: msgToSend}

	if originErr != nil {
		slog.ErrorContext(ctx, "api error", "error", originErr.Error(), "status", code)
	} else {
		slog.ErrorContext(ctx, "api error", "error", msgToSend, "status", code)
	}

	SendJSON(ctx, w, code, resp)
}

// SendPayErr classifies err and writes only its public shape.
func SendPayErr(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	perr := payerror.Parse(err)
	payerror.Log(ctx, msg, err)

	SendJSON(ctx, w, perr.HTTPStatus, ErrorResponse{
		Error:     perr.UserMessage(),
		Code:      perr.Code(),
		Retryable: perr.Retryable,
	})
}

func SendJSON(ctx context.Context, w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.ErrorContext(ctx, "encode response", "error", err)
	}
}
