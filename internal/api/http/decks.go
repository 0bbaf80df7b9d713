package http

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/venturelens/venturelens/internal/auth/middleware"
	"github.com/venturelens/venturelens/internal/rbac"
	"github.com/venturelens/venturelens/internal/storage"
)

// MountDecks serves stored pitch decks to investors and to the founder who
// uploaded them.
func MountDecks(r chi.Router, bs storage.BlobStore) {
	// GET /decks/*   -> the blob at whatever follows /decks/
	r.With(rbac.RequireOwnerOr("deck:download", ownsDeck)).Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := deckKey(r)
		rc, err := bs.Get(key)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad key")
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="`+path.Base(key)+`"`)
		_, _ = io.Copy(w, rc)
	})
}

func deckKey(r *http.Request) string {
	return strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
}

// ownsDeck holds when the key lives under the caller's founder id.
func ownsDeck(r *http.Request) bool {
	sub := authmw.SubjectFromContext(r.Context())
	return sub != "" && strings.HasPrefix(deckKey(r), sub+"/")
}
