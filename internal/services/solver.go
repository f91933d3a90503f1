package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/metrics"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
)

var (
	ErrSolveCanceled = errors.New("dispatch solve canceled")
	ErrSolverBusy    = errors.New("dispatch solver busy")
	ErrNoOrders      = errors.New("dispatch: no orders to solve")
)

// Resolver positions one address.
type Resolver interface {
	Resolve(ctx context.Context, address string, depot domain.Coordinates) domain.GeoResult
}

type Progress struct {
	Step    domain.Step
	Percent float64
}

type ProgressFunc func(Progress)

type SolveRequest struct {
	Orders   []domain.Order
	Depot    domain.Depot
	Fleet    domain.Fleet
	MaxStops int
	Route    RouteParams
	// Progress is called outside the solver's lock and may call Cancel.
	Progress ProgressFunc
}

// Status is a snapshot of the solver's state.
type Status struct {
	Step       domain.Step `json:"step"`
	Percent    float64     `json:"percent"`
	Running    bool        `json:"running"`
	LastPlanID string      `json:"lastPlanId,omitempty"`
}

// Solver runs the dispatch pipeline: geocode every order one at a time,
// sweep by angle, pack into trips, sequence and price them, summarize.
// It runs one solve at a time.
type Solver struct {
	resolver Resolver
	events   obs.EventSink
	metrics  *metrics.Recorder
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string

	run sync.Mutex

	mu      sync.Mutex
	step    domain.Step
	percent float64
	cancel  context.CancelFunc
	last    *domain.Plan
}

type SolverOption func(*Solver)

func WithSolverEvents(sink obs.EventSink) SolverOption {
	return func(s *Solver) { s.events = sink }
}

func WithSolverMetrics(m *metrics.Recorder) SolverOption {
	return func(s *Solver) { s.metrics = m }
}

func WithSolverLogger(log zerolog.Logger) SolverOption {
	return func(s *Solver) { s.log = log }
}

func WithSolverClock(now func() time.Time) SolverOption {
	return func(s *Solver) { s.now = now }
}

func NewSolver(resolver Resolver, opts ...SolverOption) *Solver {
	s := &Solver{
		resolver: resolver,
		events:   obs.NopSink{},
		log:      zerolog.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
		step:     domain.StepIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve runs the pipeline for req. If ctx is canceled or Cancel is called,
// the solve stops before the next order is geocoded, nothing is produced,
// and the solver returns to IDLE with ErrSolveCanceled.
func (s *Solver) Solve(ctx context.Context, req SolveRequest) (_ domain.Plan, err error) {
	if !s.run.TryLock() {
		return domain.Plan{}, ErrSolverBusy
	}
	defer s.run.Unlock()

	defer obs.Time(ctx, s.log, "solver.Solve")(&err)

	if len(req.Orders) == 0 {
		return domain.Plan{}, ErrNoOrders
	}
	if req.Fleet.Len() == 0 {
		return domain.Plan{}, domain.ErrEmptyFleet
	}
	if req.MaxStops < 1 {
		return domain.Plan{}, domain.ErrInvalidMaxStops
	}
	if req.Route.AverageSpeedKmh <= 0 {
		return domain.Plan{}, fmt.Errorf("solve: average speed must be positive, got %v", req.Route.AverageSpeedKmh)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := s.now()
	s.mu.Lock()
	s.cancel = cancel
	s.last = nil
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	s.advance(req.Progress, domain.StepGeocoding, 5)
	s.emit(obs.Event{Level: obs.LevelInfo, Module: obs.ModuleCore, Message: "solve started",
		Details: map[string]any{"orders": len(req.Orders), "depot": req.Depot.ID}})

	depot := req.Depot.Point()
	n := len(req.Orders)
	geocoded := make([]domain.Order, 0, n)

	for i, o := range req.Orders {
		if ctx.Err() != nil {
			return domain.Plan{}, s.abort(started, len(geocoded), n)
		}
		res := s.resolver.Resolve(ctx, o.Address, depot)
		geocoded = append(geocoded, o.WithGeocode(res, depot))
		s.advance(req.Progress, domain.StepGeocoding, 5+float64(i)/float64(n)*35)
	}
	if ctx.Err() != nil {
		return domain.Plan{}, s.abort(started, len(geocoded), n)
	}

	s.advance(req.Progress, domain.StepOptimizing, 40)
	sweepStart := s.now()

	loads, err := PackTrips(SortByAngle(geocoded), req.Fleet, req.MaxStops)
	if err != nil {
		s.reset()
		s.metrics.Solve("failed", s.now().Sub(started))
		return domain.Plan{}, fmt.Errorf("solve: pack trips: %w", err)
	}
	s.advance(req.Progress, domain.StepOptimizing, 70)

	trips := make([]domain.Trip, 0, len(loads))
	for i, l := range loads {
		t := SequenceTrip(TripID(i), l, req.Depot, req.Route)
		trips = append(trips, t)
		s.metrics.Trip(t.Vehicle.Type)
	}
	s.advance(req.Progress, domain.StepOptimizing, 95)

	plan := domain.Plan{
		ID:        s.newID(),
		CreatedAt: s.now(),
		Depot:     req.Depot,
		Trips:     trips,
		Summary:   Summarize(geocoded, trips),
	}

	s.emit(obs.Event{Level: obs.LevelAlgo, Module: obs.ModuleCore, Message: "trips built",
		Details: map[string]any{
			"trips":      len(trips),
			"risk":       len(plan.Summary.RiskOrders),
			"overloaded": len(plan.Summary.OverloadedTrips),
		}}.Cost(s.now().Sub(sweepStart)))

	s.mu.Lock()
	s.last = &plan
	s.mu.Unlock()
	s.advance(req.Progress, domain.StepCompleted, 100)
	s.metrics.Solve("completed", s.now().Sub(started))

	return plan, nil
}

// Cancel asks the running solve to stop. It reports whether a solve was running.
func (s *Solver) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *Solver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Step: s.step, Percent: s.percent, Running: s.cancel != nil}
	if s.last != nil {
		st.LastPlanID = s.last.ID
	}
	return st
}

// LastPlan returns the most recent completed plan.
func (s *Solver) LastPlan() (domain.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.Plan{}, false
	}
	return *s.last, true
}

func (s *Solver) abort(started time.Time, done, total int) error {
	s.reset()
	s.metrics.Solve("canceled", s.now().Sub(started))
	s.emit(obs.Event{Level: obs.LevelWarn, Module: obs.ModuleCore, Message: "solve canceled",
		Details: map[string]any{"geocoded": done, "orders": total}})
	return ErrSolveCanceled
}

func (s *Solver) reset() {
	s.mu.Lock()
	s.step = domain.StepIdle
	s.percent = 0
	s.mu.Unlock()
}

func (s *Solver) advance(fn ProgressFunc, step domain.Step, percent float64) {
	s.mu.Lock()
	s.step = step
	s.percent = percent
	s.mu.Unlock()

	if fn != nil {
		fn(Progress{Step: step, Percent: percent})
	}
}

func (s *Solver) emit(ev obs.Event) {
	s.events.Emit(ev)
}
