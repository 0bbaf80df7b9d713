package http

import (
	"context"
	"net/http"
	"strconv"

	syncx "github.com/venturelens/venturelens/internal/sync"
)

type EventLister interface {
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

type eventOut struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	Data      string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// GET /events?after=&limit=  submission log, oldest first (reconciliation of orphaned decks)
func EventsHandler(events EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after int64
		if v := r.URL.Query().Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "bad after")
				return
			}
			after = n
		}
		limit, ok := intParam(r.URL.Query().Get("limit"))
		if !ok {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		evs, err := events.Since(r.Context(), after, limit)
		if err != nil {
			writeStoreError(w, "events", err)
			return
		}
		out := make([]eventOut, 0, len(evs))
		for _, e := range evs {
			out = append(out, eventOut{Seq: e.Seq, Type: e.Type, Key: e.Key, Data: e.DataJSON, CreatedAt: e.CreatedAt})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
