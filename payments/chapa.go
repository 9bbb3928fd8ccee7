package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	models "github.com/phillip/event-easy-go/models"
)

// Chapa talks to the Chapa hosted-checkout API. Every call carries the static secret key.
type Chapa struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewChapa(baseURL, secretKey string, timeout time.Duration) *Chapa {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Chapa{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type initializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	TxRef       string `json:"tx_ref"`
	ReturnURL   string `json:"return_url"`
	CallbackURL string `json:"callback_url"`
}

type envelope struct {
	Message interface{}     `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

func (c *Chapa) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (models.CheckoutSession, error) {
	body := initializeRequest{
		Amount:      strconv.FormatFloat(req.Amount, 'f', 2, 64),
		Currency:    req.Currency,
		Email:       req.Payer.Email,
		FirstName:   req.Payer.FirstName,
		LastName:    req.Payer.LastName,
		TxRef:       req.TxRef,
		ReturnURL:   req.ReturnURL,
		CallbackURL: req.CallbackURL,
	}

	var data struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/transaction/initialize", body, &data); err != nil {
		return models.CheckoutSession{}, err
	}
	if data.CheckoutURL == "" {
		return models.CheckoutSession{}, fmt.Errorf("chapa: empty checkout url: %w", models.ErrUpstream)
	}
	return models.CheckoutSession{CheckoutURL: data.CheckoutURL, TxRef: req.TxRef}, nil
}

// TransactionStatus asks the provider for the authoritative state of txRef.
func (c *Chapa) TransactionStatus(ctx context.Context, txRef string) (models.PaymentStatus, error) {
	var data struct {
		Status string `json:"status"`
		TxRef  string `json:"tx_ref"`
	}
	path := "/v1/transaction/verify/" + url.PathEscape(txRef)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return models.PaymentNotSuccess, err
	}
	if strings.EqualFold(data.Status, "success") {
		return models.PaymentSuccess, nil
	}
	return models.PaymentNotSuccess, nil
}

func (c *Chapa) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("chapa: encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("chapa: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chapa %s %s: %w: %v", method, path, models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("chapa: read response: %w: %v", models.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chapa %s %s returned %s: %w", method, path, resp.Status, models.ErrUpstream)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("chapa: decode response: %w: %v", models.ErrUpstream, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("chapa: response has no data (%v): %w", env.Message, models.ErrUpstream)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("chapa: decode data: %w: %v", models.ErrUpstream, err)
	}
	return nil
}
