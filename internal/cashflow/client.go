// Package cashflow talks to the remote cash-flow backend and caches its state
// for the UI.
package cashflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cashlens/internal/common"
	"cashlens/internal/model"

	"github.com/shopspring/decimal"
)

// Config configures the cash-flow client.
type Config struct {
	// BaseURL is the API root; endpoints live under {BaseURL}/cashflow.
	BaseURL string
	Timeout time.Duration
}

// Client implements service.CashFlowAPI over the backend's REST endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a cash-flow client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL + "/cashflow",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type balancePayload struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
}

type denominationPayload struct {
	Value    decimal.Decimal `json:"value"`
	ID       int64           `json:"id"`
	Quantity int             `json:"quantity"`
}

type movementPayload struct {
	Type   string          `json:"type"`
	Origin string          `json:"origin"`
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	ID     int64           `json:"id"`
}

type mutationPayload struct {
	Message    string          `json:"message"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// movementDateLayouts covers the timestamp shapes the backend has emitted:
// RFC 3339 and bare ISO timestamps with or without fractional seconds.
var movementDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (p movementPayload) toModel() (model.Movement, error) {
	var date time.Time
	var err error
	for _, layout := range movementDateLayouts {
		date, err = time.Parse(layout, p.Date)
		if err == nil {
			break
		}
	}
	if err != nil {
		return model.Movement{}, fmt.Errorf("%w: movement date %q", common.ErrMalformedResponse, p.Date)
	}

	return model.Movement{
		ID:     p.ID,
		Amount: p.Amount,
		Type:   model.MovementType(p.Type),
		Origin: model.MovementOrigin(p.Origin),
		Date:   date,
	}, nil
}

// Balance fetches the cash box total.
func (c *Client) Balance(ctx context.Context) (model.Balance, error) {
	var payload balancePayload
	if err := c.get(ctx, "/balance", &payload); err != nil {
		return model.Balance{}, err
	}
	return model.Balance{Total: payload.TotalBalance}, nil
}

// Denominations fetches the banknote breakdown.
func (c *Client) Denominations(ctx context.Context) ([]model.Denomination, error) {
	var payload []denominationPayload
	if err := c.get(ctx, "/denominations", &payload); err != nil {
		return nil, err
	}

	denominations := make([]model.Denomination, 0, len(payload))
	for _, d := range payload {
		denominations = append(denominations, model.Denomination{
			ID:       d.ID,
			Value:    d.Value,
			Quantity: d.Quantity,
		})
	}
	return denominations, nil
}

// Movements fetches the movement history, newest first.
func (c *Client) Movements(ctx context.Context) ([]model.Movement, error) {
	var payload []movementPayload
	if err := c.get(ctx, "/movements", &payload); err != nil {
		return nil, err
	}

	movements := make([]model.Movement, 0, len(payload))
	for _, p := range payload {
		movement, err := p.toModel()
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	return movements, nil
}

// AddMovement records a manual income or expense. The returned balance is the
// server's echo, never a locally computed value.
func (c *Client) AddMovement(ctx context.Context, amount decimal.Decimal, t model.MovementType) (model.Balance, error) {
	body := struct {
		Amount json.Number `json:"amount"`
		Type   string      `json:"type"`
	}{
		Amount: json.Number(amount.String()),
		Type:   string(t),
	}

	var payload mutationPayload
	if err := c.send(ctx, http.MethodPost, "/movement", body, &payload); err != nil {
		return model.Balance{}, err
	}
	return model.Balance{Total: payload.NewBalance}, nil
}

// EditMovement replaces the amount of an existing movement.
func (c *Client) EditMovement(ctx context.Context, id int64, amount decimal.Decimal) (model.Movement, error) {
	body := struct {
		Amount json.Number `json:"amount"`
	}{
		Amount: json.Number(amount.String()),
	}

	var payload movementPayload
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/movements/%d", id), body, &payload); err != nil {
		return model.Movement{}, err
	}
	return payload.toModel()
}

// AddFromScan credits the cash box with a scanned banknote. The server also
// increments the matching denomination's quantity.
func (c *Client) AddFromScan(ctx context.Context, value decimal.Decimal) (model.Balance, error) {
	body := struct {
		Amount json.Number `json:"amount"`
	}{
		Amount: json.Number(value.String()),
	}

	var payload mutationPayload
	if err := c.send(ctx, http.MethodPost, "/add_from_scan", body, &payload); err != nil {
		return model.Balance{}, err
	}
	return model.Balance{Total: payload.NewBalance}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &common.ServerError{
			Status: resp.StatusCode,
			Body:   serverMessage(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return nil
}

// serverMessage pulls the backend's error text out of its JSON error wrapper,
// falling back to the raw body.
func serverMessage(body []byte) string {
	var wrapper struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error != "" {
		return wrapper.Error
	}
	return string(bytes.TrimSpace(body))
}
