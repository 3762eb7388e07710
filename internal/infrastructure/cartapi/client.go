package cartapi

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

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

const (
	peerCartAPI     = "cart_api"
	componentClient = "cartapi_client"
	headerRequestID = "X-Request-ID"
	defaultTimeout  = 5 * time.Second
)

// Client talks to the cart store's REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string

	log          observability.Logger
	tracer       observability.Tracer
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a client rooted at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, tel observability.Observability, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("cartapi: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("cartapi: base url %q must be absolute", baseURL)
	}
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	c := &Client{
		baseURL:      u,
		http:         &http.Client{Timeout: defaultTimeout},
		userAgent:    "minishop-storefront",
		log:          tel.Logger().With(observability.F("component", componentClient)),
		tracer:       tel.Tracer(),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) GetInventory(ctx context.Context) ([]inventory.Item, error) {
	var items []inventory.Item
	if err := c.do(ctx, "get_inventory", http.MethodGet, "/inventory", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []inventory.Item{}
	}
	return items, nil
}

func (c *Client) GetCart(ctx context.Context) ([]cart.Line, error) {
	var lines []cart.Line
	if err := c.do(ctx, "get_cart", http.MethodGet, "/cart", nil, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	return lines, nil
}

type addToCartRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Amount  int    `json:"amount"`
}

// AddToCart persists a new line built from item. The amount is sent as is.
func (c *Client) AddToCart(ctx context.Context, item inventory.Item, amount int) (cart.Line, error) {
	var line cart.Line
	body := addToCartRequest{ID: item.ID, Content: item.Content, Amount: amount}
	err := c.do(ctx, "add_to_cart", http.MethodPost, "/cart", body, &line)
	return line, err
}

type updateCartRequest struct {
	Amount int `json:"amount"`
}

func (c *Client) UpdateCart(ctx context.Context, id string, amount int) (cart.Line, error) {
	var line cart.Line
	err := c.do(ctx, "update_cart", http.MethodPatch, "/cart/"+url.PathEscape(id), updateCartRequest{Amount: amount}, &line)
	return line, err
}

// DeleteFromCart removes the line and returns its deleted representation.
func (c *Client) DeleteFromCart(ctx context.Context, id string) (cart.Line, error) {
	var line cart.Line
	err := c.do(ctx, "delete_from_cart", http.MethodDelete, "/cart/"+url.PathEscape(id), nil, &line)
	return line, err
}

// Checkout reads the persisted cart and deletes every line concurrently.
// Any failed delete fails the whole call; lines already deleted stay deleted.
func (c *Client) Checkout(ctx context.Context) ([]cart.Line, error) {
	lines, err := c.GetCart(ctx)
	if err != nil {
		return nil, err
	}

	deleted := make([]cart.Line, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range lines {
		g.Go(func() error {
			d, err := c.DeleteFromCart(gctx, l.ID)
			if err != nil {
				return err
			}
			deleted[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deleted, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	target := c.baseURL.String() + path
	endpoint := method + " " + endpointTemplate(path)

	ctx, span := c.tracer.Start(ctx, "cartapi."+op,
		attribute.String("http.method", method),
		attribute.String("peer.service", peerCartAPI),
		attribute.String("http.url", target),
	)
	start := time.Now()
	status := 0
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, op)
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()

		latency := time.Since(start).Seconds()
		c.extCounter.Add(1,
			observability.L("peer", peerCartAPI),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		c.extHistogram.Observe(latency,
			observability.L("peer", peerCartAPI),
			observability.L("endpoint", endpoint),
		)

		fields := []observability.Field{
			observability.F("op", op),
			observability.F("endpoint", endpoint),
			observability.F("status", status),
			observability.F("outcome", outcome),
			observability.F("latency_seconds", latency),
		}
		logger := logctx.FromOr(ctx, c.log)
		if err != nil {
			logger.Warn("external_call_done", append(fields, observability.F("error", err))...)
			return
		}
		logger.Debug("external_call_done", fields...)
	}()

	var body io.Reader
	if in != nil {
		buf, mErr := json.Marshal(in)
		if mErr != nil {
			return &TransportError{Op: op, Method: method, URL: target, Err: fmt.Errorf("encode request: %w", mErr)}
		}
		body = bytes.NewReader(buf)
	}

	req, rErr := http.NewRequestWithContext(ctx, method, target, body)
	if rErr != nil {
		return &TransportError{Op: op, Method: method, URL: target, Err: rErr}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set(headerRequestID, uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, dErr := c.http.Do(req)
	if dErr != nil {
		return &TransportError{Op: op, Method: method, URL: target, Err: dErr}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{Op: op, Method: method, URL: target, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil && !errors.Is(decErr, io.EOF) {
		return &TransportError{Op: op, Method: method, URL: target, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decErr)}
	}
	return nil
}

// endpointTemplate keeps metric labels low-cardinality by hiding line ids.
func endpointTemplate(path string) string {
	if strings.HasPrefix(path, "/cart/") {
		return "/cart/{id}"
	}
	return path
}
