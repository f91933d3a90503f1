package handlers

import (
	"net/http"
	"strconv"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
)

type LogsHandler struct {
	Journal *obs.Journal
}

// List returns the most recent dispatch events, oldest first.
// ?limit=N caps the count.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"events": h.Journal.Recent(limit)})
}
