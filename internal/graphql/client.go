// Package graphql implements the storefront GraphQL transport over HTTP.
package graphql

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/storefront"
)

var _ storefront.Fetcher = (*Client)(nil)

// Config configures the storefront API endpoint.
type Config struct {
	// Endpoint is the full GraphQL URL, e.g. https://store.example.com/graphql.
	Endpoint string
	// Token is sent as a bearer token when non-empty.
	Token string
	// Timeout bounds a single HTTP attempt. Defaults to 10s.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt. Negative
	// disables retries; zero selects the default.
	MaxRetries int
}

// Client sends GraphQL documents to the storefront API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewClient returns a Client for cfg. When httpClient is nil a client with an
// OpenTelemetry-instrumented transport is created.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("storefront endpoint is empty")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}

	return &Client{
		endpoint:   endpoint,
		token:      cfg.Token,
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  retryBaseDelay,
		maxDelay:   retryMaxDelay,
	}, nil
}

// Fetch executes req, retrying throttled and transient failures.
func (c *Client) Fetch(ctx context.Context, req storefront.Request) (*storefront.Response, error) {
	body := encodeRequest(req)
	bo := newBackOff(c.baseDelay, c.maxDelay)

	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		if attempt >= c.maxRetries || !isRetryable(err) {
			return nil, err
		}

		delay := bo.NextBackOff()
		zctx.From(ctx).Warn("Retrying storefront request",
			zap.String("operation", req.OperationName),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, errors.Wrap(err, "wait for retry")
		}
	}
}

// Ping checks that the endpoint answers GraphQL requests.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, encodeRequest(storefront.Request{
		OperationName: "ping",
		Query:         "query ping { __typename }",
	}))
	return err
}

func (c *Client) do(ctx context.Context, body []byte) (*storefront.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(resp, raw)
	}
	return decodeResponse(raw)
}

// encodeRequest builds the POST body. The operation name is kept out of the
// body since custom documents may name their operation differently.
func encodeRequest(req storefront.Request) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("query", func(e *jx.Encoder) {
			e.Str(strings.TrimSpace(req.Query))
		})
		if req.Variables != nil {
			e.Field("variables", req.Variables.Encode)
		}
	})
	return e.Bytes()
}

func decodeResponse(raw []byte) (*storefront.Response, error) {
	var (
		out    storefront.Response
		gqlErr ResponseError
	)
	d := jx.DecodeBytes(raw)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "data":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Raw()
			if err != nil {
				return err
			}
			out.Data = append(jx.Raw(nil), v...)
			return nil
		case "errors":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				var e Error
				if err := e.Decode(d); err != nil {
					return err
				}
				gqlErr.Errors = append(gqlErr.Errors, e)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if len(gqlErr.Errors) > 0 {
		return nil, &gqlErr
	}
	return &out, nil
}
