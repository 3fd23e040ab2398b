// Package roblox is the client for the storefront's Roblox proxy routes
// (user-info, get-user-places, robux-pricing, check-gamepass).
package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"rbxstore-api/internal/model"
)

var (
	// ErrNotFound is an upstream answer of success:false.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable covers network failures, 5xx, unparseable bodies and an open breaker.
	ErrUnavailable = errors.New("upstream unavailable")
)

// ResponseError is returned by every Client call that fails.
type ResponseError struct {
	Op      string
	Message string
	Err     error
}

func (e *ResponseError) Error() string {
	return "roblox " + e.Op + ": " + e.Message
}

func (e *ResponseError) Unwrap() error { return e.Err }

// Config holds client settings.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Client calls the storefront API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// NewClient creates a client with a traced transport and a circuit breaker.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("roblox")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	maxFailures := cfg.BreakerMaxFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "storefront",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
		logger:  logger,
	}
}

type userInfoResponse struct {
	Success     bool    `json:"success"`
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Avatar      *string `json:"avatar"`
	Message     string  `json:"message"`
}

// LookupUser resolves a username.
func (c *Client) LookupUser(ctx context.Context, username string) (model.UserIdentity, error) {
	const op = "user-info"
	var resp userInfoResponse
	if err := c.get(ctx, op, "/api/user-info", url.Values{"username": {username}}, &resp); err != nil {
		return model.UserIdentity{}, err
	}
	if !resp.Success {
		return model.UserIdentity{}, notFound(op, resp.Message, "User not found")
	}
	return model.UserIdentity{
		ID:          resp.ID,
		Username:    resp.Username,
		DisplayName: resp.DisplayName,
		AvatarURL:   resp.Avatar,
	}, nil
}

type placesResponse struct {
	Success bool          `json:"success"`
	Data    []model.Place `json:"data"`
	Message string        `json:"message"`
}

// UserPlaces lists the places owned by userID.
func (c *Client) UserPlaces(ctx context.Context, userID int64) ([]model.Place, error) {
	const op = "get-user-places"
	var resp placesResponse
	q := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	if err := c.get(ctx, op, "/api/get-user-places", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, notFound(op, resp.Message, "No places found")
	}
	if resp.Data == nil {
		return []model.Place{}, nil
	}
	return resp.Data, nil
}

type pricingResponse struct {
	Success bool               `json:"success"`
	Data    *model.PricingRate `json:"data"`
	Message string             `json:"message"`
}

// RobuxPricing fetches the current price of 100 Robux.
func (c *Client) RobuxPricing(ctx context.Context) (*model.PricingRate, error) {
	const op = "robux-pricing"
	var resp pricingResponse
	if err := c.get(ctx, op, "/api/robux-pricing", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, notFound(op, resp.Message, "Pricing unavailable")
	}
	if !resp.Data.PricePerHundred.IsPositive() {
		return nil, &ResponseError{Op: op, Message: "non-positive price per hundred", Err: ErrUnavailable}
	}
	return resp.Data, nil
}

// GamepassCheck is the answer of check-gamepass. Success false is a normal
// outcome: Message explains it and AllGamepasses lists what does exist.
type GamepassCheck struct {
	Success       bool             `json:"success"`
	Gamepass      *model.Gamepass  `json:"gamepass,omitempty"`
	Message       string           `json:"message,omitempty"`
	AllGamepasses []model.Gamepass `json:"allGamepasses,omitempty"`
}

// CheckGamepass asks whether universeID has a gamepass priced expectedRobux.
func (c *Client) CheckGamepass(ctx context.Context, universeID, expectedRobux int64) (GamepassCheck, error) {
	const op = "check-gamepass"
	var resp GamepassCheck
	q := url.Values{
		"universeId":    {strconv.FormatInt(universeID, 10)},
		"expectedRobux": {strconv.FormatInt(expectedRobux, 10)},
	}
	if err := c.get(ctx, op, "/api/check-gamepass", q, &resp); err != nil {
		return GamepassCheck{}, err
	}
	if resp.Success && resp.Gamepass == nil {
		return GamepassCheck{}, &ResponseError{Op: op, Message: "success without gamepass", Err: ErrUnavailable}
	}
	return resp, nil
}

// get performs one GET through the breaker and decodes the JSON body into out.
// Non-5xx statuses are decoded so success:false bodies reach the caller.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return data, nil
	})
	if err != nil {
		c.logger.Debug("request failed", zap.String("op", op), zap.Error(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &ResponseError{Op: op, Message: err.Error(), Err: errors.Join(ErrUnavailable, err)}
		}
		return &ResponseError{Op: op, Message: err.Error(), Err: ErrUnavailable}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ResponseError{Op: op, Message: "invalid response body", Err: ErrUnavailable}
	}
	return nil
}

func notFound(op, message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return &ResponseError{Op: op, Message: message, Err: ErrNotFound}
}
