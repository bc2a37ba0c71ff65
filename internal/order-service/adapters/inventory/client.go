// Package inventory is the HTTP implementation of the
// StockReservationClient port: the bulk availability pre-check and the
// all-or-nothing bulk reduction, with typed error mapping at the
// boundary.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelar-dev/bookstore-orders/internal/order-service/domain"
	"github.com/avelar-dev/bookstore-orders/internal/pkg/httpmeta"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a reservation client for the inventory service at
// baseURL. Each call is bounded by timeout; a timeout is the same as
// any other transport fault: domain.ErrInventoryUnavailable.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(&httpmeta.Transport{}),
		},
	}
}

type bulkRequest struct {
	Items map[string]int `json:"items"`
}

type checkResponse struct {
	Availability map[string]bool `json:"availability"`
}

type reduceError struct {
	Error       string  `json:"error"`
	Message     string  `json:"message"`
	Unavailable []int64 `json:"unavailable"`
}

// CheckAvailability returns per-book availability for the requested
// quantities. The caller verifies coverage; this adapter only decodes.
func (c *Client) CheckAvailability(ctx context.Context, quantities map[int64]int) (map[int64]bool, error) {
	resp, err := c.post(ctx, "/inventory/check", quantities, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(resp)
	}

	var decoded checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed availability response: %v", domain.ErrInventoryUnavailable, err)
	}

	availability := make(map[int64]bool, len(decoded.Availability))
	for key, ok := range decoded.Availability {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad book id %q in availability response", domain.ErrInventoryUnavailable, key)
		}
		availability[id] = ok
	}
	return availability, nil
}

// Reduce decrements stock for every requested book. The inventory side
// guarantees all-or-nothing; on shortage the 409 body names the short
// ids and nothing was decremented.
func (c *Client) Reduce(ctx context.Context, reservationRef string, quantities map[int64]int) error {
	resp, err := c.post(ctx, "/inventory/reduce", quantities, reservationRef)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.mapError(resp)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, quantities map[int64]int, reservationRef string) (*http.Response, error) {
	items := make(map[string]int, len(quantities))
	for id, qty := range quantities {
		items[strconv.FormatInt(id, 10)] = qty
	}

	body, err := json.Marshal(bulkRequest{Items: items})
	if err != nil {
		return nil, fmt.Errorf("inventory: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("inventory: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if reservationRef != "" {
		req.Header.Set(httpmeta.HeaderReservationRef, reservationRef)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInventoryUnavailable, err)
	}
	return resp, nil
}

// mapError turns a non-200 inventory response into the domain taxonomy.
// 409 carries the shortage list; 400 is a validation-style issue; any
// other status degrades to the generic unavailable kind.
func (c *Client) mapError(resp *http.Response) error {
	var body reduceError
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	message := body.Message
	if decodeErr != nil || message == "" {
		message = fmt.Sprintf("service communication failure (status %d)", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		if len(body.Unavailable) > 0 {
			return &domain.InsufficientStockError{BookIDs: body.Unavailable}
		}
		return fmt.Errorf("%w: %s", domain.ErrInventoryUnavailable, message)
	case http.StatusBadRequest:
		return &domain.ValidationError{Msg: message}
	default:
		return fmt.Errorf("%w: %s", domain.ErrInventoryUnavailable, message)
	}
}
