package productionplan

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/powerplant/core/dispatch"
	coremetrics "github.com/kilianp07/powerplant/core/metrics"
	"github.com/kilianp07/powerplant/core/model"
	"github.com/kilianp07/powerplant/infra/logger"
)

// Options tunes the HTTP boundary.
type Options struct {
	// RejectInfeasible answers 422 instead of a partial plan.
	RejectInfeasible bool
	// MaxBodyBytes limits the request body size. Zero disables the limit.
	MaxBodyBytes int64
}

// Handler serves POST /productionplan.
type Handler struct {
	dispatcher dispatch.Dispatcher
	sink       coremetrics.MetricsSink
	log        logger.Logger
	opts       Options
	requests   *prometheus.CounterVec
	now        func() time.Time
	newID      func() string
}

// NewHandler creates a handler registering its metrics on the default
// Prometheus registerer.
func NewHandler(d dispatch.Dispatcher, sink coremetrics.MetricsSink, log logger.Logger, opts Options) *Handler {
	return NewHandlerWithRegistry(d, sink, log, opts, prometheus.DefaultRegisterer)
}

// NewHandlerWithRegistry creates a handler and registers metrics on the
// provided registerer. If reg is nil the default registerer is used.
func NewHandlerWithRegistry(d dispatch.Dispatcher, sink coremetrics.MetricsSink, log logger.Logger, opts Options, reg prometheus.Registerer) *Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "productionplan_requests_total",
		Help: "Total production plan requests by HTTP status",
	}, []string{"status"})
	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				requests = exist
			} else {
				log.Errorf("existing collector for productionplan_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &Handler{
		dispatcher: d,
		sink:       sink,
		log:        log,
		opts:       opts,
		requests:   requests,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body := r.Body
	if h.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}
	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.reject(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	load, fuels, plants, err := req.ToModel()
	if err != nil {
		h.reject(w, http.StatusBadRequest, err.Error())
		return
	}

	start := h.now()
	plan, err := h.dispatcher.Dispatch(load, fuels, plants)
	elapsed := h.now().Sub(start)

	var infeasible *dispatch.InfeasibleError
	switch {
	case err == nil:
	case errors.As(err, &infeasible):
	case errors.Is(err, dispatch.ErrInvalidInput), errors.Is(err, dispatch.ErrUnknownPlantType):
		h.reject(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.log.Errorf("dispatch: %v", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	plan.ID = h.newID()
	h.observe(plan, fuels, plants, elapsed, infeasible != nil)
	w.Header().Set("X-Plan-ID", plan.ID)
	w.Header().Set("X-Plan-Feasible", strconv.FormatBool(infeasible == nil))

	if infeasible != nil {
		w.Header().Set("X-Plan-Shortfall-MW", strconv.FormatFloat(infeasible.Shortfall, 'f', 1, 64))
		if h.opts.RejectInfeasible {
			shortfall := Power(infeasible.Shortfall)
			h.write(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:     infeasible.Error(),
				Shortfall: &shortfall,
				Plan:      FromPlan(plan),
			})
			return
		}
	}
	h.write(w, http.StatusOK, FromPlan(plan))
}

// observe records the plan on the metrics sink. The relaxed optimum is only
// computed for plans that cover the load.
func (h *Handler) observe(plan dispatch.Plan, fuels model.Fuels, plants []model.Powerplant, elapsed time.Duration, infeasible bool) {
	ev := coremetrics.PlanEvent{
		PlanID:    plan.ID,
		Outcome:   coremetrics.OutcomeOK,
		Load:      plan.Load,
		Total:     plan.Total(),
		Cost:      plan.Cost,
		Shortfall: plan.Shortfall,
		Surplus:   plan.Surplus,
		ByType:    plan.ByType(),
		Duration:  elapsed,
		Time:      h.now(),
	}
	switch {
	case infeasible:
		ev.Outcome = coremetrics.OutcomeInfeasible
	case plan.Surplus > 0:
		ev.Outcome = coremetrics.OutcomeSurplus
	}
	if !infeasible {
		if bound, err := dispatch.RelaxedCost(plan.Load, fuels, plants); err != nil {
			h.log.Debugf("plan %s: relaxed cost: %v", plan.ID, err)
		} else {
			ev.CostGap = plan.Cost - bound
			ev.HasGap = true
		}
	}
	if err := h.sink.RecordPlan(ev); err != nil {
		h.log.Warnf("plan %s: record metrics: %v", plan.ID, err)
	}
}

// reject answers a client error and counts it as a rejected plan.
func (h *Handler) reject(w http.ResponseWriter, status int, msg string) {
	if err := h.sink.RecordPlan(coremetrics.PlanEvent{Outcome: coremetrics.OutcomeRejected, Time: h.now()}); err != nil {
		h.log.Warnf("record metrics: %v", err)
	}
	h.log.Debugf("rejected production plan request: %s", msg)
	h.fail(w, status, msg)
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg string) {
	h.write(w, status, ErrorResponse{Error: msg})
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	h.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("write response: %v", err)
	}
}
