package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(context.Context) error { return nil }
}

func failingCheck(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type probeBody struct {
	Status string
	Checks map[string]string
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) probeBody {
	t.Helper()

	var body probeBody
	err := jx.DecodeBytes(w.Body.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			s, err := d.Str()
			body.Status = s
			return err
		case "checks":
			body.Checks = map[string]string{}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				s, err := d.Str()
				body.Checks[string(key)] = s
				return err
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	return body
}

func probe(h *Health, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func runN(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

func TestLiveEndpoint(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		w := probe(New(), "/livez")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "ok", decodeBody(t, w).Status)
	})

	t.Run("failing past threshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("goroutines", time.Second, failingCheck("too many"))
		runN(h.checks[0], 3)

		w := probe(h, "/livez")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, map[string]string{"goroutines": "too many"}, body.Checks)
	})

	t.Run("failing below threshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("flaky", time.Second, failingCheck("temporary"))
		runN(h.checks[0], 2)

		assert.Equal(t, http.StatusOK, probe(h, "/livez").Code)
	})

	t.Run("readiness failures ignored", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("storefront", time.Second, failingCheck("down"))
		runN(h.checks[0], 3)

		assert.Equal(t, http.StatusOK, probe(h, "/livez").Code)
	})
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready and passing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("storefront", time.Second, passingCheck())
		h.SetReady(true)

		w := probe(h, "/readyz")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", decodeBody(t, w).Status)
	})

	t.Run("gate closed", func(t *testing.T) {
		h := New()

		w := probe(h, "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, decodeBody(t, w).Checks, "_readiness")
	})

	t.Run("one of several failing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("storefront", time.Second, passingCheck())
		h.AddReadinessCheck("cache", time.Second, failingCheck("cold"))
		h.SetReady(true)
		runN(h.checks[1], 3)

		w := probe(h, "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body.Checks, "cache")
		assert.NotContains(t, body.Checks, "storefront")
	})
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("storefront", time.Second, passingCheck())

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestAdd_Defaults(t *testing.T) {
	h := New()
	h.Add(Check{Name: "x", Func: passingCheck()})

	c := h.checks[0]
	assert.Equal(t, time.Second, c.Timeout)
	assert.Equal(t, 3, c.FailureThreshold)
	assert.Equal(t, 1, c.SuccessThreshold)
	assert.Equal(t, Liveness, c.Kind)
}

func TestCheck_Recovery(t *testing.T) {
	failing := true
	h := New()
	h.Add(Check{
		Name:             "flaky",
		SuccessThreshold: 2,
		Func: func(context.Context) error {
			if failing {
				return errors.New("down")
			}
			return nil
		},
	})
	c := h.checks[0]

	assert.Nil(t, c.err())
	runN(c, 3)
	assert.False(t, c.healthy.Load())
	assert.EqualError(t, c.err(), "down")

	failing = false
	runN(c, 1)
	assert.False(t, c.healthy.Load())
	runN(c, 1)
	assert.True(t, c.healthy.Load())
	assert.NoError(t, c.err())
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddReadinessCheck("storefront", time.Second, failingCheck("down"))
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)
	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, failingCheck("err"))
	h.AddReadinessCheck("ready", time.Second, passingCheck())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				probe(h, "/livez")
				probe(h, "/readyz")
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(fakePinger{})(context.Background()))

	err := PingCheck(fakePinger{err: errors.New("refused")})(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit 0")
}
