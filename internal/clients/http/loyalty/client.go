package loyalty

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when the loyalty service does not know the customer.
var ErrNotFound = errors.New("loyalty customer not found")

// StatusError carries a non-success response from the loyalty service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("loyalty API error (%d): %s", e.StatusCode, e.Message)
}

// Is matches ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client wraps the raw loyalty API with typed helpers.
type Client struct {
	api *rawClient
}

// NewLoyaltyClient instantiates the loyalty client with sane defaults.
func NewLoyaltyClient(baseURL string, httpClient *http.Client, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("loyalty base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	api, err := newRawClient(baseURL, append([]ClientOption{WithHTTPClient(httpClient)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("build loyalty client: %w", err)
	}
	return &Client{api: api}, nil
}

// AddPoints awards points for a paid order.
func (c *Client) AddPoints(ctx context.Context, body AddPointsRequest) (*AddPointsResponse, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("loyalty client not configured")
	}
	if strings.TrimSpace(body.OrderRef) == "" || strings.TrimSpace(body.Phone) == "" {
		return nil, errors.New("loyalty orderRef and phone are required")
	}
	resp, err := c.api.AddPoints(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("call loyalty API: %w", err)
	}
	var out AddPointsResponse
	if err := handle(resp, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalance returns the points balance for a phone number.
func (c *Client) GetBalance(ctx context.Context, phone string) (*Balance, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("loyalty client not configured")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errors.New("loyalty phone is required")
	}
	resp, err := c.api.GetBalance(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("call loyalty API: %w", err)
	}
	var out Balance
	if err := handle(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out.Phone == "" {
		out.Phone = phone
	}
	return &out, nil
}

// RedeemReward spends points on a reward. A business refusal is reported through
// RedeemResponse.Success, not as an error.
func (c *Client) RedeemReward(ctx context.Context, body RedeemRequest) (*RedeemResponse, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("loyalty client not configured")
	}
	resp, err := c.api.RedeemReward(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("call loyalty API: %w", err)
	}
	var out RedeemResponse
	if err := handle(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func handle(resp *http.Response, out any, accepted ...int) error {
	if resp == nil {
		return errors.New("loyalty API returned an empty response")
	}
	for _, code := range accepted {
		if resp.StatusCode == code {
			if err := decodeBody(resp, out); err != nil {
				return fmt.Errorf("decode loyalty response: %w", err)
			}
			return nil
		}
	}
	var body Error
	_ = decodeBody(resp, &body)
	return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(&body, resp.Status)}
}

func errorMessage(body *Error, fallback string) string {
	if body == nil {
		return fallback
	}
	if body.Message != nil {
		if msg := strings.TrimSpace(*body.Message); msg != "" {
			return msg
		}
	}
	if body.Code != nil {
		if msg := strings.TrimSpace(*body.Code); msg != "" {
			return msg
		}
	}
	return fallback
}
