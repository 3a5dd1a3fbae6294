package payway

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/config"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/transport"
)

const (
	purchasePath         = "/api/payment-gateway/v1/payments/purchase"
	checkTransactionPath = "/api/payment-gateway/v1/payments/check-transaction"
	defaultTimeout       = 10 * time.Second
)

// Client talks to ABA PayWay. Settings are held as an immutable snapshot
// that Reload swaps, so in-flight calls keep the settings they started with.
type Client struct {
	settings atomic.Pointer[config.PayWay]
	http     *http.Client
	now      func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

func NewClient(cfg config.PayWay, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Transport: transport.NewLoggingRoundTripper(http.DefaultTransport),
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reload(cfg)

	return c
}

// Reload replaces the merchant settings used by subsequent calls.
func (c *Client) Reload(cfg config.PayWay) {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c.settings.Store(&cfg)
}

func (c *Client) Settings() config.PayWay {
	return *c.settings.Load()
}

func (c *Client) Enabled() bool {
	return c.Settings().Enabled
}

// ready returns the current settings or why they cannot be used.
func (c *Client) ready() (config.PayWay, error) {
	s := c.Settings()

	if !s.Enabled {
		return s, entity.ErrServiceDisabled
	}

	if !s.Configured() {
		return s, entity.ErrNotConfigured
	}

	return s, nil
}

func (c *Client) signer(s config.PayWay) Signer {
	return NewSigner(s.MerchantID, s.APIKey)
}

// VerifyCallback checks a callback hash with the current merchant secret.
func (c *Client) VerifyCallback(p entity.CallbackPayload) Verification {
	return c.signer(c.Settings()).VerifyCallback(p)
}
