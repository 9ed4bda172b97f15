//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/cafe-pos-server/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type orderPayload struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Total     string `json:"total"`
}

type ingredientPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Stock    string `json:"stock"`
	LowStock bool   `json:"lowStock"`
}

type shortagePayload struct {
	IngredientID int64  `json:"ingredientId"`
	Name         string `json:"name"`
	Required     string `json:"required"`
	Available    string `json:"available"`
}

type problemDetail struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Extensions struct {
		Shortages []shortagePayload `json:"shortages"`
	} `json:"extensions"`
}

type apiError struct {
	status  int
	problem problemDetail
}

func (e apiError) Error() string {
	msg := e.problem.Title
	if msg == "" {
		msg = "api error"
	}
	if e.problem.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.problem.Detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func TestRegisterContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	problemContentType := matchers.S("application/problem+json")
	orderMatcher := func(status string) matchers.Map {
		return matchers.Map{
			"id":        matchers.Like(pacttest.ExistingOrderID),
			"reference": matchers.Term("ORD-20240612-000001", `^ORD-\d{8}-\d{6}$`),
			"status":    matchers.S(status),
			"total":     matchers.Like(pacttest.LattePrice),
		}
	}

	pact.AddInteraction().
		Given(pacttest.StateMenuStocked).
		UponReceiving("a cart submitted from the register").
		WithRequest("POST", "/api/order", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Idempotency-Key", matchers.Like(pacttest.ExampleIdempotencyID))
			b.JSONBody(pacttest.ExampleCartPayload())
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher("PENDING"))
		})

	pact.AddInteraction().
		Given(pacttest.StatePendingOrder).
		UponReceiving("a payment for a pending order").
		WithRequest("POST", "/api/order/pay", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{
				"orderId": pacttest.ExistingOrderID,
				"loyalty": map[string]any{"phone": pacttest.LoyaltyPhone},
			})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(orderMatcher("PAID"))
		})

	pact.AddInteraction().
		Given(pacttest.StateShortOrder).
		UponReceiving("a payment that the stock cannot cover").
		WithRequest("POST", "/api/order/pay", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(map[string]any{"orderId": pacttest.ExistingOrderID})
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", problemContentType)
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/insufficient-stock"),
				"title":  matchers.S("Insufficient Stock"),
				"status": matchers.Like(http.StatusConflict),
				"extensions": matchers.Map{
					"shortages": matchers.ArrayMinLike(map[string]any{
						"ingredientId": pacttest.CoffeeID,
						"name":         "Coffee",
						"required":     pacttest.CoffeePerLatte,
						"available":    pacttest.CoffeeStockShort,
					}, 1),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a request for an unknown order").
		WithRequest("GET", fmt.Sprintf("/api/order/%d", pacttest.MissingOrderID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", problemContentType)
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateLowStockAlert).
		UponReceiving("a request for ingredients to reorder").
		WithRequest("GET", "/api/ingredients/low-stock").
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.ArrayMinLike(map[string]any{
				"id":       pacttest.CoffeeID,
				"name":     "Coffee",
				"stock":    pacttest.CoffeeReorderAt,
				"lowStock": true,
			}, 1))
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newRegisterClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		created, err := client.CreateOrder(ctx, pacttest.ExampleIdempotencyID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if created.Status != "PENDING" {
			return fmt.Errorf("expected PENDING order, got %+v", created)
		}

		paid, err := client.PayOrder(ctx, pacttest.ExistingOrderID, pacttest.LoyaltyPhone)
		if err != nil {
			return fmt.Errorf("pay order: %w", err)
		}
		if paid.Status != "PAID" {
			return fmt.Errorf("expected PAID order, got %+v", paid)
		}

		var apiErr apiError
		if _, err := client.PayOrder(ctx, pacttest.ExistingOrderID, ""); !errors.As(err, &apiErr) || apiErr.status != http.StatusConflict {
			return fmt.Errorf("expected 409 for short stock, got %v", err)
		}
		if len(apiErr.problem.Extensions.Shortages) == 0 {
			return fmt.Errorf("expected shortages in the problem body")
		}

		if _, err := client.GetOrder(ctx, pacttest.MissingOrderID); !errors.As(err, &apiErr) || apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404 for order %d, got %v", pacttest.MissingOrderID, err)
		}

		low, err := client.LowStock(ctx)
		if err != nil {
			return fmt.Errorf("low stock: %w", err)
		}
		if len(low) == 0 || !low[0].LowStock {
			return fmt.Errorf("expected a low-stock ingredient, got %+v", low)
		}
		return nil
	})
	require.NoError(t, err)
}

type registerClient struct {
	baseURL    string
	httpClient *http.Client
}

func newRegisterClient(config pactconsumer.MockServerConfig) *registerClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &registerClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *registerClient) CreateOrder(ctx context.Context, idempotencyKey string) (*orderPayload, error) {
	var out orderPayload
	err := c.do(ctx, http.MethodPost, "/api/order", pacttest.ExampleCartPayload(), &out, "Idempotency-Key", idempotencyKey)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *registerClient) PayOrder(ctx context.Context, orderID int64, phone string) (*orderPayload, error) {
	body := map[string]any{"orderId": orderID}
	if phone != "" {
		body["loyalty"] = map[string]any{"phone": phone}
	}
	var out orderPayload
	if err := c.do(ctx, http.MethodPost, "/api/order/pay", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *registerClient) GetOrder(ctx context.Context, orderID int64) (*orderPayload, error) {
	var out orderPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/order/%d", orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *registerClient) LowStock(ctx context.Context) ([]ingredientPayload, error) {
	var out []ingredientPayload
	if err := c.do(ctx, http.MethodGet, "/api/ingredients/low-stock", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registerClient) do(ctx context.Context, method, path string, body, out any, headers ...string) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{status: status, problem: problem}
}
