package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/venturelens/venturelens/internal/analysis"
	"github.com/venturelens/venturelens/internal/startup"
	"github.com/venturelens/venturelens/internal/webhook"
)

const msgAnalysisFailed = "AI analysis failed. Please try again."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps repository errors onto 404 / 500.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, startup.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	log.Printf("api: %s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "db error")
}

// writeSubmitError maps a failed submission onto the client-facing status.
func writeSubmitError(w http.ResponseWriter, err error) {
	var (
		pe *analysis.ParseError
		te *webhook.TransportError
	)
	switch {
	case errors.Is(err, startup.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &pe):
		log.Printf("api: submit: %v", err)
		writeError(w, http.StatusBadGateway, pe.Error())
	case errors.As(err, &te):
		log.Printf("api: submit: %v", err)
		writeError(w, http.StatusBadGateway, msgAnalysisFailed)
	default:
		log.Printf("api: submit: %v", err)
		writeError(w, http.StatusInternalServerError, "could not save startup")
	}
}
