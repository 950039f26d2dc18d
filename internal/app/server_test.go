package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/graphql"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/pkg/health"
)

const upstreamProduct = `{"data":{"site":{"route":{"node":{
	"__typename":"Product",
	"entityId":77,
	"name":"Red Shirt",
	"path":"/red-shirt/",
	"description":"Cotton",
	"prices":{"price":{"value":"19.90","currencyCode":"USD"}},
	"localeMeta":{"edges":[
		{"node":{"key":"name","value":"Rotes Hemd"}},
		{"node":{"key":"description","value":"Baumwolle"}}
	]}
}}}}}`

// fakeUpstream serves /red-shirt/ and answers ping queries. Every other
// path resolves to nothing.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var query, path string
		err = jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
			switch string(key) {
			case "query":
				s, err := d.Str()
				query = s
				return err
			case "variables":
				return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					if string(key) != "path" {
						return d.Skip()
					}
					s, err := d.Str()
					path = s
					return err
				})
			default:
				return d.Skip()
			}
		})
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(query, "__typename }"):
			_, _ = io.WriteString(w, `{"data":{"__typename":"Query"}}`)
		case path == "/red-shirt/":
			_, _ = io.WriteString(w, upstreamProduct)
		default:
			_, _ = io.WriteString(w, `{"data":{"site":{"route":{"node":null}}}}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	upstream := fakeUpstream(t)
	client, err := graphql.NewClient(graphql.Config{
		Endpoint: upstream.URL,
		Token:    "test-token",
		Timeout:  time.Second,
	}, upstream.Client())
	require.NoError(t, err)

	fetcher, err := graphql.Instrument(client, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	cfg := &Config{
		Locales:   []string{"en", "de"},
		Upstream:  UpstreamConfig{Timeout: time.Second},
		RateLimit: RateLimitConfig{RPS: 100, Burst: 100},
	}
	sf := &storefront.Config{Fetcher: fetcher, ApplyLocale: true}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("storefront", time.Second, health.PingCheck(client))
	healthSvc.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(newServer(ctx, zap.NewNop(), cfg, sf, healthSvc,
		tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider()).Handler)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, header http.Header) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Product(t *testing.T) {
	srv := newTestServer(t)

	t.Run("by slug", func(t *testing.T) {
		resp, body := get(t, srv, "/api/product?slug=red-shirt", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		assert.JSONEq(t, `{
			"entityId": 77,
			"name": "Red Shirt",
			"path": "/red-shirt/",
			"description": "Cotton",
			"prices": {"price": {"value": 19.9, "currencyCode": "USD"}},
			"images": [],
			"variants": [],
			"options": [],
			"localeMeta": [
				{"key": "name", "value": "Rotes Hemd"},
				{"key": "description", "value": "Baumwolle"}
			]
		}`, body)
	})

	t.Run("localized via accept-language", func(t *testing.T) {
		resp, body := get(t, srv, "/api/product?path=/red-shirt/", http.Header{"Accept-Language": {"de-DE"}})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "de", resp.Header.Get("Content-Language"))
		assert.Contains(t, body, `"name":"Rotes Hemd"`)
		assert.Contains(t, body, `"description":"Baumwolle"`)
		assert.NotContains(t, body, "localeMeta")
	})

	t.Run("not found", func(t *testing.T) {
		resp, body := get(t, srv, "/api/product?slug=missing", nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"code":404,"message":"product not found"}`, body)
	})

	t.Run("bad request", func(t *testing.T) {
		resp, _ := get(t, srv, "/api/product", nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_Probes(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv, "/livez", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = get(t, srv, "/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}
