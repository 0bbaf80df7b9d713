package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/venturelens/venturelens/internal/analysis"
	authmw "github.com/venturelens/venturelens/internal/auth/middleware"
	"github.com/venturelens/venturelens/internal/rbac"
	"github.com/venturelens/venturelens/internal/report"
	"github.com/venturelens/venturelens/internal/startup"
)

// Handlers only; routes are wired in cmd/venturelens.

const (
	portfolioMinScore = 60
	alertsLimit       = 20
)

// Submitter is the part of startup.Service the founder endpoints use.
type Submitter interface {
	Submit(ctx context.Context, founderID string, f startup.Form, up startup.Upload) (startup.Detail, error)
	TakeHandoff(founderID string) (startup.Detail, bool)
}

// POST /startups  multipart: name, description, industry, stage, website_url, linkedin_url, funding_raised, file
func SubmitStartupHandler(svc Submitter, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, http.StatusBadRequest, "upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "expected multipart form")
			return
		}
		form := startup.Form{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Industry:    r.FormValue("industry"),
			Stage:       r.FormValue("stage"),
			WebsiteURL:  r.FormValue("website_url"),
			LinkedInURL: r.FormValue("linkedin_url"),
			Funding:     r.FormValue("funding_raised"),
		}
		var up startup.Upload
		if f, fh, err := r.FormFile("file"); err == nil {
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "read file")
				return
			}
			up = startup.Upload{Filename: fh.Filename, Data: data}
		}

		d, err := svc.Submit(r.Context(), authmw.SubjectFromContext(r.Context()), form, up)
		if err != nil {
			writeSubmitError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

// GET /founder/startup
func FounderStartupHandler(repo startup.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := repo.Latest(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeStoreError(w, "latest startup", err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// GET /founder/analysis  one-shot; 204 once consumed
func FounderAnalysisHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := svc.TakeHandoff(authmw.SubjectFromContext(r.Context()))
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// GET /startups?industry=&stage=&trust=&min_score=&q=&limit=&offset=
func ListStartupsHandler(repo startup.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := startup.Filter{
			Industry: strings.TrimSpace(q.Get("industry")),
			Stage:    strings.TrimSpace(q.Get("stage")),
			Trust:    analysis.TrustSignal(strings.ToLower(strings.TrimSpace(q.Get("trust")))),
			Query:    q.Get("q"),
		}
		if f.Trust != "" && !f.Trust.Valid() {
			writeError(w, http.StatusBadRequest, "trust must be strong, moderate or weak")
			return
		}
		var ok bool
		if f.MinScore, ok = intParam(q.Get("min_score")); !ok {
			writeError(w, http.StatusBadRequest, "bad min_score")
			return
		}
		if f.Limit, ok = intParam(q.Get("limit")); !ok {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		if f.Offset, ok = intParam(q.Get("offset")); !ok {
			writeError(w, http.StatusBadRequest, "bad offset")
			return
		}

		list, err := repo.List(r.Context(), f)
		if err != nil {
			writeStoreError(w, "list startups", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /startups/{id}  investors, or the founder who submitted it
func GetStartupHandler(repo startup.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := loadVisible(w, r, repo)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// GET /startups/{id}/report
func StartupReportHandler(repo startup.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := loadVisible(w, r, repo)
		if !ok {
			return
		}
		page, err := report.HTML(d)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "render report")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}

// GET /portfolio
func PortfolioHandler(repo startup.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.Portfolio(r.Context(), portfolioMinScore)
		if err != nil {
			writeStoreError(w, "portfolio", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"startups": list,
			"summary":  startup.PortfolioSummary(list),
		})
	}
}

// GET /alerts
func AlertsHandler(repo startup.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := repo.RecentAnomalies(r.Context(), alertsLimit)
		if err != nil {
			writeStoreError(w, "alerts", err)
			return
		}
		counts, err := repo.AnomalyCounts(r.Context())
		if err != nil {
			writeStoreError(w, "alert counts", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "counts": counts})
	}
}

func loadVisible(w http.ResponseWriter, r *http.Request, repo startup.Repo) (startup.Detail, bool) {
	d, err := repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "get startup", err)
		return startup.Detail{}, false
	}
	ctx := r.Context()
	if !rbac.Can(rbac.RoleFromContext(ctx), "dealflow:view") && d.FounderID != authmw.SubjectFromContext(ctx) {
		writeError(w, http.StatusForbidden, "forbidden")
		return startup.Detail{}, false
	}
	return d, true
}

// intParam parses an optional non-negative integer; "" is 0.
func intParam(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= 0
}
