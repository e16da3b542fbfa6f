package productionplan

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powerplant/core/dispatch"
	coremetrics "github.com/kilianp07/powerplant/core/metrics"
	"github.com/kilianp07/powerplant/core/model"
)

const referencePayload = `{
  "load": 910,
  "fuels": {"gas(euro/MWh)": 13.4, "kerosine(euro/MWh)": 50.8, "co2(euro/ton)": 20, "wind(%)": 60},
  "powerplants": [
    {"name": "gasfiredbig1", "type": "gasfired", "efficiency": 0.53, "pmin": 100, "pmax": 460},
    {"name": "gasfiredbig2", "type": "gasfired", "efficiency": 0.53, "pmin": 100, "pmax": 460},
    {"name": "gasfiredsomewhatsmaller", "type": "gasfired", "efficiency": 0.37, "pmin": 40, "pmax": 210},
    {"name": "tj1", "type": "turbojet", "efficiency": 0.3, "pmin": 0, "pmax": 16},
    {"name": "windpark1", "type": "windturbine", "efficiency": 1, "pmin": 0, "pmax": 150},
    {"name": "windpark2", "type": "windturbine", "efficiency": 1, "pmin": 0, "pmax": 36}
  ]
}`

const infeasiblePayload = `{"load": 1000, "fuels": {"gas(euro/MWh)": 10, "kerosine(euro/MWh)": 50, "co2(euro/ton)": 0, "wind(%)": 0},
  "powerplants": [{"name": "gas1", "type": "gasfired", "efficiency": 0.5, "pmin": 0, "pmax": 500}]}`

type memSink struct {
	mu     sync.Mutex
	events []coremetrics.PlanEvent
}

func (m *memSink) RecordPlan(ev coremetrics.PlanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(float64, model.Fuels, []model.Powerplant) (dispatch.Plan, error) {
	return dispatch.Plan{}, errors.New("solver exploded")
}

func newTestHandler(t *testing.T, opts Options) (*Handler, *memSink) {
	t.Helper()
	sink := &memSink{}
	h := NewHandlerWithRegistry(dispatch.NewMeritOrderDispatcher(), sink, nil, opts, prometheus.NewRegistry())
	h.newID = func() string { return "plan-1" }
	return h, sink
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/productionplan", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_ReferencePayload(t *testing.T) {
	h, sink := newTestHandler(t, Options{})
	rr := post(h, referencePayload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "plan-1", rr.Header().Get("X-Plan-ID"))
	assert.Equal(t, "true", rr.Header().Get("X-Plan-Feasible"))
	assert.Contains(t, rr.Body.String(), `{"name":"windpark1","p":90.0}`)
	assert.Contains(t, rr.Body.String(), `{"name":"tj1","p":0.0}`)

	var out []struct {
		Name string  `json:"name"`
		P    float64 `json:"p"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 6)
	var total float64
	for _, a := range out {
		total += a.P
	}
	assert.InDelta(t, 910, total, 1e-6)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, coremetrics.OutcomeOK, ev.Outcome)
	assert.Equal(t, "plan-1", ev.PlanID)
	assert.True(t, ev.HasGap)
	assert.InDelta(t, 0, ev.CostGap, 1e-3)
	assert.InDelta(t, 111.6, ev.ByType[model.PlantWindTurbine], 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("200")))
}

func TestHandler_ClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"malformed", `{"load":`, http.StatusBadRequest, "invalid JSON"},
		{"missing all", `{}`, http.StatusBadRequest, "load, fuels, powerplants"},
		{"missing fuels", `{"load": 10, "powerplants": []}`, http.StatusBadRequest, "missing required field: fuels"},
		{"missing fuel and plant keys", `{"load": 100, "fuels": {"gas(euro/MWh)": 10},
		  "powerplants": [{"name": "w", "type": "windturbine", "pmax": 200}, {"name": "g", "type": "gasfired", "efficiency": 0.5, "pmin": 0}]}`,
			http.StatusBadRequest,
			"missing required field: fuels.kerosine(euro/MWh), fuels.co2(euro/ton), fuels.wind(%), powerplants[1].pmax"},
		{"missing thermal efficiency", `{"load": 10, "fuels": {"gas(euro/MWh)": 10, "kerosine(euro/MWh)": 50, "co2(euro/ton)": 0, "wind(%)": 0}, "powerplants": [{"name": "g", "type": "gasfired", "pmin": 0, "pmax": 10}]}`, http.StatusBadRequest, "powerplants[0].efficiency"},
		{"unknown type", `{"load": 10, "fuels": {"gas(euro/MWh)": 10, "kerosine(euro/MWh)": 50, "co2(euro/ton)": 0, "wind(%)": 0}, "powerplants": [{"name": "n1", "type": "nuclear", "pmax": 10}]}`, http.StatusBadRequest, `plant n1: unknown plant type "nuclear"`},
		{"invalid bounds", `{"load": 10, "fuels": {"gas(euro/MWh)": 10, "kerosine(euro/MWh)": 50, "co2(euro/ton)": 0, "wind(%)": 0}, "powerplants": [{"name": "g", "type": "gasfired", "efficiency": 0.5, "pmin": 20, "pmax": 10}]}`, http.StatusBadRequest, "invalid input"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, sink := newTestHandler(t, Options{})
			rr := post(h, tc.body)
			require.Equal(t, tc.status, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tc.msg)
			require.Len(t, sink.events, 1)
			assert.Equal(t, coremetrics.OutcomeRejected, sink.events[0].Outcome)
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, Options{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/productionplan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestHandler_BodyTooLarge(t *testing.T) {
	h, _ := newTestHandler(t, Options{MaxBodyBytes: 16})
	rr := post(h, referencePayload)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHandler_InfeasiblePartialPlan(t *testing.T) {
	h, sink := newTestHandler(t, Options{})
	rr := post(h, infeasiblePayload)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "false", rr.Header().Get("X-Plan-Feasible"))
	assert.Equal(t, "500.0", rr.Header().Get("X-Plan-Shortfall-MW"))
	assert.JSONEq(t, `[{"name":"gas1","p":500.0}]`, rr.Body.String())
	require.Len(t, sink.events, 1)
	assert.Equal(t, coremetrics.OutcomeInfeasible, sink.events[0].Outcome)
	assert.False(t, sink.events[0].HasGap)
}

func TestHandler_InfeasibleRejected(t *testing.T) {
	h, _ := newTestHandler(t, Options{RejectInfeasible: true})
	rr := post(h, infeasiblePayload)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"shortfall":500.0`)
	assert.Contains(t, rr.Body.String(), `"plan":[{"name":"gas1","p":500.0}]`)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("422")))
}

func TestHandler_WindSurplus(t *testing.T) {
	h, sink := newTestHandler(t, Options{})
	body := `{"load": 100, "fuels": {"gas(euro/MWh)": 10, "kerosine(euro/MWh)": 50, "co2(euro/ton)": 0, "wind(%)": 100},
	  "powerplants": [{"name": "w", "type": "windturbine", "pmax": 150}, {"name": "g", "type": "gasfired", "efficiency": 0.5, "pmin": 0, "pmax": 100}]}`
	rr := post(h, body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"name":"w","p":150.0},{"name":"g","p":0.0}]`, rr.Body.String())
	require.Len(t, sink.events, 1)
	assert.Equal(t, coremetrics.OutcomeSurplus, sink.events[0].Outcome)
	assert.InDelta(t, 50, sink.events[0].Surplus, 1e-9)
}

func TestHandler_DispatcherFailure(t *testing.T) {
	sink := &memSink{}
	h := NewHandlerWithRegistry(failingDispatcher{}, sink, nil, Options{}, prometheus.NewRegistry())
	rr := post(h, referencePayload)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "exploded")
	assert.Empty(t, sink.events)
}

func TestPower_MarshalJSON(t *testing.T) {
	b, err := json.Marshal([]Power{90, 21.6, 0})
	require.NoError(t, err)
	assert.Equal(t, `[90.0,21.6,0.0]`, string(b))
}
