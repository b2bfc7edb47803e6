// Package client talks to an unoroom server over HTTP and websockets.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/unoroom/internal/deck"
	"github.com/lox/unoroom/internal/game"
	"github.com/lox/unoroom/internal/server"
)

// DefaultPollInterval is how often Follow polls when websockets are unavailable.
const DefaultPollInterval = 1500 * time.Millisecond

// APIError is a failed API call. When the server reported a rule violation
// errors.Is matches the corresponding game sentinel.
type APIError struct {
	Status  int
	Code    game.Code
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	if e.Code == "" {
		return nil
	}
	return &game.Error{Code: e.Code, Message: e.Message}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "client").Logger()
	}
}

// WithClock sets the clock used for polling.
func WithClock(clock quartz.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithPollInterval sets the polling cadence used by Follow.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// Client is an API client for one server.
type Client struct {
	baseURL      *url.URL
	http         *http.Client
	logger       zerolog.Logger
	clock        quartz.Clock
	pollInterval time.Duration
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:      u,
		http:         &http.Client{Timeout: 10 * time.Second},
		logger:       zerolog.Nop(),
		clock:        quartz.NewReal(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateRoom creates a room hosted by name.
func (c *Client) CreateRoom(ctx context.Context, name string) (server.JoinResponse, error) {
	var resp server.JoinResponse
	err := c.do(ctx, http.MethodPost, "/api/rooms", server.NameRequest{Name: name}, &resp)
	return resp, err
}

// Join joins roomID as name.
func (c *Client) Join(ctx context.Context, roomID, name string) (server.JoinResponse, error) {
	var resp server.JoinResponse
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "join"), server.NameRequest{Name: name}, &resp)
	return resp, err
}

// Start starts the game. Only the host may start.
func (c *Client) Start(ctx context.Context, roomID, playerID string) error {
	return c.do(ctx, http.MethodPost, roomPath(roomID, "start"), server.PlayerRequest{PlayerID: playerID}, nil)
}

// Play plays cardID. color is required for wild cards.
func (c *Client) Play(ctx context.Context, roomID, playerID, cardID string, color deck.Color) error {
	req := server.PlayRequest{PlayerID: playerID, CardID: cardID, ChosenColor: color}
	return c.do(ctx, http.MethodPost, roomPath(roomID, "play"), req, nil)
}

// Draw draws one card, or the pending penalty.
func (c *Client) Draw(ctx context.Context, roomID, playerID string) error {
	return c.do(ctx, http.MethodPost, roomPath(roomID, "draw"), server.PlayerRequest{PlayerID: playerID}, nil)
}

// DeclareUno calls UNO.
func (c *Client) DeclareUno(ctx context.Context, roomID, playerID string) error {
	return c.do(ctx, http.MethodPost, roomPath(roomID, "uno"), server.PlayerRequest{PlayerID: playerID}, nil)
}

// State fetches the room as seen by playerID.
func (c *Client) State(ctx context.Context, roomID, playerID string) (*game.PublicState, error) {
	var state game.PublicState
	path := roomPath(roomID, "state") + "?playerId=" + url.QueryEscape(playerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// WaitHealthy polls /health until it returns 200 OK or ctx is cancelled.
func (c *Client) WaitHealthy(ctx context.Context) error {
	ticker := c.clock.NewTicker(100*time.Millisecond, "health")
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/health"), nil)
		if err != nil {
			return err
		}
		if resp, err := c.http.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func roomPath(roomID, action string) string {
	return "/api/rooms/" + url.PathEscape(roomID) + "/" + action
}

func (c *Client) url(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", resp.Header.Get("X-Request-ID")).
		Msg("API call")

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Error string    `json:"error"`
		Code  game.Code `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}

// IsNotFound reports whether err means the room does not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
