package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powerplant/config"
	"github.com/kilianp07/powerplant/core/factory"
)

const payload = `{"load": 300, "fuels": {"gas(euro/MWh)": 10, "kerosine(euro/MWh)": 50, "co2(euro/ton)": 0, "wind(%)": 0},
  "powerplants": [{"name": "gas1", "type": "gasfired", "efficiency": 0.5, "pmin": 0, "pmax": 500}]}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Metrics.Expose = true
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) *Service {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc, err := NewWithRegistry(cfg, reg, reg)
	require.NoError(t, err)
	return svc
}

func TestService_Routes(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/productionplan", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"name":"gas1","p":300.0}]`, string(body))

	resp, err = http.Get(srv.URL + "/productionplan")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `productionplan_requests_total{status="200"} 1`)
}

func TestService_MetricsHidden(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Expose = false
	svc := newTestService(t, cfg)
	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestService_UnknownSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "missing"}}
	reg := prometheus.NewRegistry()
	_, err := NewWithRegistry(cfg, reg, reg)
	assert.ErrorContains(t, err, "metrics sink")
}

func TestService_ServeAndShutdown(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
