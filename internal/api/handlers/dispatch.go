package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/repositories"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/api/dto"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/config"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/services"
)

const maxBodyBytes = 8 << 20

type DispatchHandler struct {
	Solver *services.Solver
	Config *config.Config
	Now    func() time.Time
}

// Solve runs one dispatch solve for the posted batch. Settings missing from
// the request fall back to configuration.
func (h *DispatchHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req dto.DispatchRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	svcReq, err := h.buildRequest(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Solver.Solve(r.Context(), svcReq)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrSolverBusy):
		writeError(w, r, http.StatusConflict, "a dispatch solve is already running")
		return
	case errors.Is(err, services.ErrSolveCanceled):
		writeError(w, r, http.StatusConflict, "dispatch solve canceled")
		return
	case errors.Is(err, services.ErrNoOrders), errors.Is(err, domain.ErrEmptyFleet), errors.Is(err, domain.ErrInvalidMaxStops):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("dispatch solve failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPlanResponse(plan))
}

func (h *DispatchHandler) buildRequest(req dto.DispatchRequest) (services.SolveRequest, error) {
	orders, err := repositories.ParseOrders(req.Orders)
	if err != nil {
		return services.SolveRequest{}, err
	}
	if len(orders) == 0 {
		return services.SolveRequest{}, errors.New("orders are required")
	}

	cfg := *h.Config
	dispatch := cfg.Dispatch
	if req.MaxStops != 0 {
		if req.MaxStops < 0 {
			return services.SolveRequest{}, domain.ErrInvalidMaxStops
		}
		dispatch.MaxStops = req.MaxStops
	}
	if s := strings.TrimSpace(req.StartTime); s != "" {
		dispatch.StartTime = s
	}
	if s := strings.TrimSpace(req.Deadline); s != "" {
		dispatch.Deadline = s
	}

	day := h.now()
	if req.Date != "" {
		d, err := time.ParseInLocation(time.DateOnly, req.Date, day.Location())
		if err != nil {
			return services.SolveRequest{}, fmt.Errorf("date must be YYYY-MM-DD")
		}
		day = d
	}
	route, err := dispatch.Route(day)
	if err != nil {
		return services.SolveRequest{}, err
	}

	fleetCfg := cfg.Fleet
	if len(req.Fleet) > 0 {
		fleetCfg = req.Fleet
	}
	fleet, err := domain.NewFleet(fleetCfg)
	if err != nil {
		return services.SolveRequest{}, err
	}

	depot := cfg.PrimaryDepot()
	if req.DepotID != "" {
		found := false
		for _, d := range cfg.Depots {
			if d.ID == req.DepotID {
				depot, found = d.Depot(), true
				break
			}
		}
		if !found {
			return services.SolveRequest{}, fmt.Errorf("unknown depot %q", req.DepotID)
		}
	}

	return services.SolveRequest{
		Orders:   orders,
		Depot:    depot,
		Fleet:    fleet,
		MaxStops: dispatch.MaxStops,
		Route:    route,
	}, nil
}

func (h *DispatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, h.Solver.Status())
}

func (h *DispatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.CancelResponse{Canceled: h.Solver.Cancel()})
}

func (h *DispatchHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
