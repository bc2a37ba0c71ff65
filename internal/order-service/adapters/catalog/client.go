// Package catalog is the HTTP implementation of the PriceQuoteClient
// port. All transport and status decoding into the domain error
// taxonomy happens here, at the boundary, not at call sites.
package catalog

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

// NewClient builds a quote client for the catalog service at baseURL.
// The timeout bounds each call; a timeout is reported as
// domain.ErrCatalogUnavailable like any other transport fault.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(&httpmeta.Transport{}),
		},
	}
}

type quoteRequest struct {
	BookIDs []int64 `json:"bookIds"`
}

type quoteResponse struct {
	// JSON object keys are strings; ids are parsed back to int64.
	Prices map[string]float64 `json:"prices"`
}

// Quote resolves unit prices for every requested book id.
func (c *Client) Quote(ctx context.Context, bookIDs []int64) (map[int64]float64, error) {
	body, err := json.Marshal(quoteRequest{BookIDs: bookIDs})
	if err != nil {
		return nil, fmt.Errorf("catalog: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/catalog/prices", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &domain.ValidationError{Msg: decodeMessage(resp)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &domain.PriceNotFoundError{BookIDs: bookIDs}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrCatalogUnavailable, decodeMessage(resp))
	}

	var decoded quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed price response: %v", domain.ErrCatalogUnavailable, err)
	}

	prices := make(map[int64]float64, len(decoded.Prices))
	for key, price := range decoded.Prices {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad book id %q in price response", domain.ErrCatalogUnavailable, key)
		}
		prices[id] = price
	}

	// The contract requires coverage of every requested id; a partial
	// map means some books do not exist in the catalog.
	var missing []int64
	for _, id := range bookIDs {
		if _, ok := prices[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.PriceNotFoundError{BookIDs: missing}
	}

	return prices, nil
}

// decodeMessage extracts the `message` field from a downstream error
// body. Any other shape degrades to a generic description; the HTTP
// status alone drives classification.
func decodeMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("service communication failure (status %d)", resp.StatusCode)
}
