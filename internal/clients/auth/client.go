package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/transport"
)

const (
	requestTimeout = 3 * time.Second
	retryWaitMin   = 100 * time.Millisecond
	retryWaitMax   = time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient retries only transport failures and 5xx answers from the auth service.
func NewClient(baseURL string, retries int) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = retryWaitMin
	retryClient.RetryWaitMax = retryWaitMax
	retryClient.HTTPClient.Timeout = requestTimeout
	retryClient.HTTPClient.Transport = transport.NewLoggingRoundTripper(http.DefaultTransport)
	retryClient.Logger = nil

	return &Client{
		baseURL: baseURL,
		http:    retryClient.StandardClient(),
	}
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// User resolves the session behind token. An unknown or expired token yields ErrUnauthenticated.
func (c *Client) User(ctx context.Context, token string) (entity.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/internal/user", nil)
	if err != nil {
		return entity.User{}, unavailable(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return entity.User{}, unavailable(fmt.Errorf("do request: %w", err))
	}

	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return entity.User{}, entity.ErrUnauthenticated
	default:
		body, _ := io.ReadAll(resp.Body)
		return entity.User{}, unavailable(fmt.Errorf("unexpected status code: %d\nbody: %s", resp.StatusCode, body))
	}

	var data UserResponse

	err = json.NewDecoder(resp.Body).Decode(&data)
	if err != nil {
		return entity.User{}, unavailable(fmt.Errorf("decode response: %w", err))
	}

	if data.ID == uuid.Nil {
		return entity.User{}, entity.ErrUnauthenticated
	}

	return entity.User{
		ID:        data.ID,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
		Role:      data.Role,
	}, nil
}

// unavailable keeps auth service outages out of the gateway error kinds.
func unavailable(err error) error {
	return payerror.New(payerror.KindUnknown, fmt.Errorf("auth service: %w", err))
}
