package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks geocoding and solver activity in Prometheus collectors.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	lookups         *prometheus.CounterVec
	lookupLatency   prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	persistFailures prometheus.Counter
	solves          *prometheus.CounterVec
	solveDuration   prometheus.Histogram
	trips           *prometheus.CounterVec
}

// NewRecorder registers dispatch metrics on reg. If reg is nil the default
// registerer is used. Collectors that are already registered are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{}
	var err error

	if r.lookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_lookups_total",
		Help: "External geocode lookup attempts by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if r.lookupLatency, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geocode_lookup_duration_seconds",
		Help:    "Latency of a single external geocode attempt",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if r.cacheLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_cache_lookups_total",
		Help: "Address cache lookups by result",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if r.fallbacks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocode_fallbacks_total",
		Help: "Approximated coordinates handed out instead of a confirmed match",
	}, []string{"reason"})); err != nil {
		return nil, err
	}
	if r.persistFailures, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocode_cache_persist_failures_total",
		Help: "Cache writes that failed and were ignored",
	})); err != nil {
		return nil, err
	}
	if r.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_solves_total",
		Help: "Dispatch solves by final status",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if r.solveDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_solve_duration_seconds",
		Help:    "End-to-end duration of a dispatch solve",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})); err != nil {
		return nil, err
	}
	if r.trips, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_trips_total",
		Help: "Trips produced by vehicle type",
	}, []string{"vehicle"})); err != nil {
		return nil, err
	}

	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *Recorder) LookupAttempt(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.lookups.WithLabelValues(outcome).Inc()
	r.lookupLatency.Observe(d.Seconds())
}

func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	r.cacheLookups.WithLabelValues("miss").Inc()
}

func (r *Recorder) Fallback(reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(reason).Inc()
}

func (r *Recorder) PersistFailure() {
	if r == nil {
		return
	}
	r.persistFailures.Inc()
}

func (r *Recorder) Solve(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.solves.WithLabelValues(status).Inc()
	r.solveDuration.Observe(d.Seconds())
}

func (r *Recorder) Trip(vehicleType string) {
	if r == nil {
		return
	}
	r.trips.WithLabelValues(vehicleType).Inc()
}
