package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"example.com/bc-solver/internal/store"
)

type Summarizer interface {
	Summary(ctx context.Context) (store.Summary, error)
}

type StatsHandler struct {
	Results Summarizer
	Log     *slog.Logger
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	sum, err := h.Results.Summary(r.Context())
	if err != nil {
		if h.Log != nil {
			h.Log.Error("load stats", "err", err)
		}
		WriteError(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	WriteJSON(w, http.StatusOK, sum)
}
