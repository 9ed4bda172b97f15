package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// PointsItem is one sold line reported with an award.
type PointsItem struct {
	MenuItemId int64   `json:"menuItemId"`
	SizeId     *int64  `json:"sizeId,omitempty"`
	Quantity   int32   `json:"quantity"`
	Price      float64 `json:"price"`
}

// AddPointsRequest is the body of POST /points.
type AddPointsRequest struct {
	OrderRef    string       `json:"orderRef"`
	Phone       string       `json:"phone"`
	TotalAmount float64      `json:"totalAmount"`
	Items       []PointsItem `json:"items"`
}

// AddPointsResponse acknowledges an award.
type AddPointsResponse struct {
	PointsAwarded *int64 `json:"pointsAwarded,omitempty"`
	TotalPoints   *int64 `json:"totalPoints,omitempty"`
}

// Balance is the body of GET /customers/{phone}/balance.
type Balance struct {
	Phone  string `json:"phone"`
	Points int64  `json:"points"`
}

// RedeemRequest is the body of POST /rewards/redeem.
type RedeemRequest struct {
	Phone    string `json:"phone"`
	RewardId string `json:"rewardId"`
	OrderRef string `json:"orderRef"`
}

// RedeemResponse reports the outcome of a redemption.
type RedeemResponse struct {
	Success         bool    `json:"success"`
	RemainingPoints int64   `json:"remainingPoints"`
	Message         *string `json:"message,omitempty"`
}

// Error is the loyalty service error envelope.
type Error struct {
	Code    *string `json:"code,omitempty"`
	Message *string `json:"message,omitempty"`
}

// HttpRequestDoer performs HTTP requests.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn can mutate a request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// rawClient issues loyalty API calls and returns raw responses.
type rawClient struct {
	Server         string
	Client         HttpRequestDoer
	RequestEditors []RequestEditorFn
}

// ClientOption configures the raw client.
type ClientOption func(*rawClient) error

// WithHTTPClient overrides the request doer.
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *rawClient) error {
		c.Client = doer
		return nil
	}
}

// WithRequestEditorFn appends a request editor, e.g. for auth headers.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *rawClient) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

func newRawClient(server string, opts ...ClientOption) (*rawClient, error) {
	c := &rawClient{Server: server}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(c.Server, "/") {
		c.Server += "/"
	}
	if c.Client == nil {
		c.Client = &http.Client{}
	}
	return c, nil
}

func (c *rawClient) AddPoints(ctx context.Context, body AddPointsRequest) (*http.Response, error) {
	req, err := NewAddPointsRequest(c.Server, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *rawClient) GetBalance(ctx context.Context, phone string) (*http.Response, error) {
	req, err := NewGetBalanceRequest(c.Server, phone)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *rawClient) RedeemReward(ctx context.Context, body RedeemRequest) (*http.Response, error) {
	req, err := NewRedeemRewardRequest(c.Server, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *rawClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	for _, edit := range c.RequestEditors {
		if err := edit(ctx, req); err != nil {
			return nil, err
		}
	}
	return c.Client.Do(req)
}

// NewAddPointsRequest builds POST /points.
func NewAddPointsRequest(server string, body AddPointsRequest) (*http.Request, error) {
	return newJSONRequest(server, "/points", body)
}

// NewGetBalanceRequest builds GET /customers/{phone}/balance.
func NewGetBalanceRequest(server string, phone string) (*http.Request, error) {
	pathParam0, err := runtime.StyleParamWithLocation("simple", false, "phone", runtime.ParamLocationPath, phone)
	if err != nil {
		return nil, err
	}
	queryURL, err := resolve(server, fmt.Sprintf("/customers/%s/balance", pathParam0))
	if err != nil {
		return nil, err
	}
	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// NewRedeemRewardRequest builds POST /rewards/redeem.
func NewRedeemRewardRequest(server string, body RedeemRequest) (*http.Request, error) {
	return newJSONRequest(server, "/rewards/redeem", body)
}

func newJSONRequest(server, path string, body any) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	queryURL, err := resolve(server, path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, queryURL.String(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	return req, nil
}

func resolve(server, path string) (*url.URL, error) {
	serverURL, err := url.Parse(server)
	if err != nil {
		return nil, err
	}
	if path[0] == '/' {
		path = "." + path
	}
	return serverURL.Parse(path)
}

func decodeBody(resp *http.Response, out any) error {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
