// Package catalog talks to the remote product service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/drstein77/productpruner/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	ErrMalformedResponse = errors.New("malformed products response")
	ErrEmptyProductID    = errors.New("empty product id")
)

// StatusError reports an HTTP status the caller did not expect.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, e.Reason)
}

type Log interface {
	Debug(string, ...zap.Field)
	Sugar() *zap.SugaredLogger
}

type Client struct {
	client *resty.Client
	log    Log
}

// NewClient creates a client for baseURL. A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration, log Log) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10), noDeleteRedirect()).
		SetLogger(log.Sugar())
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}

	return &Client{
		client: rc,
		log:    log,
	}
}

// ListProducts fetches GET /products and returns products in service order.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/products")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, newStatusError(resp)
	}

	var products []models.Product
	if err := json.Unmarshal(resp.Body(), &products); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	// A JSON null decodes into a nil slice without error.
	if products == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedResponse)
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: product at index %d has no id", ErrMalformedResponse, i)
		}
	}

	c.log.Debug("Fetched products", zap.Int("count", len(products)))
	return products, nil
}

// DeleteProduct issues DELETE /products/{id}. It returns the response status
// code, and a *StatusError when that code is neither 200 nor 204.
func (c *Client) DeleteProduct(ctx context.Context, id models.ProductID) (int, error) {
	if id == "" {
		return 0, ErrEmptyProductID
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		Delete("/products/{id}")
	if err != nil {
		return 0, fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		c.log.Debug("Product deleted", zap.String("id", id.String()), zap.Int("status", resp.StatusCode()))
		return resp.StatusCode(), nil
	}

	return resp.StatusCode(), newStatusError(resp)
}

// noDeleteRedirect stops at a redirect answering a DELETE. net/http would
// replay it as a GET, and a 200 from that GET must not count as a deletion.
func noDeleteRedirect() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(_ *http.Request, via []*http.Request) error {
		if len(via) > 0 && via[0].Method == http.MethodDelete {
			return http.ErrUseLastResponse
		}
		return nil
	})
}

func newStatusError(resp *resty.Response) *StatusError {
	code := resp.StatusCode()
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status(), strconv.Itoa(code)))
	if reason == "" {
		reason = http.StatusText(code)
	}
	return &StatusError{Code: code, Reason: reason}
}
