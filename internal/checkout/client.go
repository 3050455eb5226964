package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/foodieexpress/storefront/pkg/errors"
	"github.com/foodieexpress/storefront/pkg/httpclient"
)

const orderBackend = "order-backend"

// CircuitOpenFallback replaces the breaker's raw ErrCircuitOpen with a
// structured error carrying a retry hint.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("order backend is temporarily unavailable, please retry shortly")
}

// OrderClient talks to the backend's order endpoints.
type OrderClient struct {
	http    httpclient.HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewOrderClient creates a client for the order backend at baseURL.
func NewOrderClient(doer httpclient.HTTPDoer, baseURL string, logger *slog.Logger) *OrderClient {
	return &OrderClient{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// CreateOrder submits an order on behalf of the bearer token's owner.
func (c *OrderClient) CreateOrder(ctx context.Context, token string, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	setAuth(httpReq, token)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, c.transportError(ctx, "create order", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, orderBackend)
	}

	var created backendOrder
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	order := created.toOrder()
	c.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
	)

	return &order, nil
}

// ListUserOrders returns every order placed by userID.
func (c *OrderClient) ListUserOrders(ctx context.Context, token, userID string) ([]Order, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/orders/user/"+url.PathEscape(userID), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create list orders request: %w", err)
	}
	setAuth(httpReq, token)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, c.transportError(ctx, "list orders", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, orderBackend)
	}

	var raw []backendOrder
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}

	orders := make([]Order, len(raw))
	for i, b := range raw {
		orders[i] = b.toOrder()
	}
	return orders, nil
}

// transportError keeps structured errors (such as the breaker fallback) and
// turns anything else into a 503.
func (c *OrderClient) transportError(ctx context.Context, op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	c.logger.ErrorContext(ctx, "order backend call failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return apperrors.ServiceUnavailable("order backend is unavailable")
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
