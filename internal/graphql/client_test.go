package graphql

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/storefront/internal/storefront"
)

type pathVariables struct {
	Path string
}

func (v pathVariables) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("path", func(e *jx.Encoder) { e.Str(v.Path) })
	})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Endpoint: srv.URL, Token: "secret"}, srv.Client())
	require.NoError(t, err)
	c.baseDelay = time.Millisecond
	c.maxDelay = 5 * time.Millisecond
	return c
}

func TestNewClient_EmptyEndpoint(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	require.Error(t, err)
}

func TestNewClient_AddsScheme(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "store.example.com/graphql"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://store.example.com/graphql", c.endpoint)
	assert.Equal(t, defaultMaxRetries, c.maxRetries)
}

func TestFetch_SendsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"query":"query q { site { id } }","variables":{"path":"/a/"}}`, string(body))

		_, _ = w.Write([]byte(`{"data":{"site":{"id":"1"}}}`))
	})

	resp, err := c.Fetch(context.Background(), storefront.Request{
		OperationName: "q",
		Query:         "  query q { site { id } }\n",
		Variables:     pathVariables{Path: "/a/"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"site":{"id":"1"}}`, string(resp.Data))
}

func TestFetch_NullData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	})

	resp, err := c.Fetch(context.Background(), storefront.Request{Query: "{ x }"})
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
}

func TestFetch_GraphQLErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"boom","path":["site","route",0],"extensions":{"code":"INTERNAL"}}]}`))
	})

	_, err := c.Fetch(context.Background(), storefront.Request{Query: "{ x }"})

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Len(t, respErr.Errors, 1)
	assert.Equal(t, "boom", respErr.Errors[0].Message)
	assert.Equal(t, []string{"site", "route", "0"}, respErr.Errors[0].Path)
	assert.Equal(t, "INTERNAL", respErr.Errors[0].Code)
	assert.Contains(t, err.Error(), "boom (path: site.route.0)")
}

func TestFetch_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	resp, err := c.Fetch(context.Background(), storefront.Request{Query: "{ x }"})
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RetriesThrottled(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	_, err := c.Fetch(context.Background(), storefront.Request{Query: "{ x }"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Fetch(context.Background(), storefront.Request{Query: "{ x }"})

	var httpErr *HTTPStatusError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, int32(defaultMaxRetries+1), calls.Load())
}

func TestFetch_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid token"))
	})

	_, err := c.Fetch(context.Background(), storefront.Request{Query: "{ x }"})

	var httpErr *HTTPStatusError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "invalid token", httpErr.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.baseDelay = time.Hour
	c.maxDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, storefront.Request{Query: "{ x }"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"query":"query ping { __typename }"}`, string(body))
		_, _ = w.Write([]byte(`{"data":{"__typename":"Query"}}`))
	})

	require.NoError(t, c.Ping(context.Background()))
}

func TestBackOff(t *testing.T) {
	bo := newBackOff(retryBaseDelay, retryMaxDelay)

	var got []time.Duration
	for range 7 {
		got = append(got, bo.NextBackOff())
	}
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, got)
}

func TestInstrument_PassesThrough(t *testing.T) {
	wantErr := errors.New("upstream down")
	next := storefront.FetcherFunc(func(_ context.Context, req storefront.Request) (*storefront.Response, error) {
		if req.OperationName == "fail" {
			return nil, wantErr
		}
		return &storefront.Response{Data: jx.Raw(`{}`)}, nil
	})

	f, err := Instrument(next, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	resp, err := f.Fetch(context.Background(), storefront.Request{OperationName: "ok"})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(resp.Data))

	_, err = f.Fetch(context.Background(), storefront.Request{OperationName: "fail"})
	require.ErrorIs(t, err, wantErr)
}
