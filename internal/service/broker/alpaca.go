package broker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/pkg/http"
)

const defaultTradingURL = "https://paper-api.alpaca.markets"

// Client submits orders through the Alpaca trading REST API. The
// default endpoint is the paper-trading environment; live trading
// requires an explicit base URL override.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the trading API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient injects a preconfigured HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds an Alpaca broker client. Credentials are required.
func New(apiKey, apiSecret string, opts ...Option) (drepo.Broker, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("%w: alpaca api key and secret are required", models.ErrConfiguration)
	}
	c := &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   defaultTradingURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.NewClient(http.WithTimeout(15 * time.Second))
	}
	return c, nil
}

type orderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

type orderResponse struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Qty            string    `json:"qty"`
	Side           string    `json:"side"`
	FilledAvgPrice *string   `json:"filled_avg_price"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Status         string    `json:"status"`
}

// SubmitOrder places a market day order and returns the brokerage
// confirmation. A non-2xx answer or a rejected order status surfaces as
// a collaborator error.
func (c *Client) SubmitOrder(ctx context.Context, symbol string, quantity int, side models.TradeAction) (*models.OrderConfirmation, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	var resp orderResponse
	err := c.http.SendAndParse(ctx, &http.RequestOptions{
		Method: http.MethodPost,
		URL:    c.baseURL + "/v2/orders",
		Headers: map[string]string{
			"APCA-API-KEY-ID":     c.apiKey,
			"APCA-API-SECRET-KEY": c.apiSecret,
		},
		Body: orderRequest{
			Symbol:      symbol,
			Qty:         strconv.Itoa(quantity),
			Side:        strings.ToLower(string(side)),
			Type:        "market",
			TimeInForce: "day",
		},
	}, &resp)
	if err != nil {
		return nil, models.CollaboratorError("alpaca broker", err)
	}
	if resp.Status == "rejected" {
		return nil, models.CollaboratorError("alpaca broker",
			fmt.Errorf("order %s rejected", resp.ID))
	}

	var filled float64
	if resp.FilledAvgPrice != nil {
		filled, _ = strconv.ParseFloat(*resp.FilledAvgPrice, 64)
	}

	return &models.OrderConfirmation{
		OrderID:     resp.ID,
		Symbol:      resp.Symbol,
		Quantity:    quantity,
		Side:        side,
		FilledPrice: filled,
		SubmittedAt: resp.SubmittedAt,
	}, nil
}
