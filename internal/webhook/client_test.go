package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelens/venturelens/internal/analysis"
)

func TestAnalyzeSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "deck.pdf", fh.Filename)
		assert.Equal(t, "%PDF-1.4", string(b))

		var data map[string]string
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("data")), &data))
		assert.Equal(t, "Acme", data["name"])
		assert.Equal(t, "f-1", data["founder_id"])

		_, _ = w.Write([]byte(`[{"scores":{"team_score":"=8"}}]`))
	}))
	defer srv.Close()

	c := New(Config{ScoringURL: srv.URL})
	raw, err := c.Analyze(t.Context(), Submission{
		Filename: "deck.pdf",
		File:     []byte("%PDF-1.4"),
		Fields:   map[string]string{"name": "Acme", "founder_id": "f-1"},
	})
	require.NoError(t, err)
	scores, _ := analysis.MapScores(raw)
	assert.Equal(t, 80.0, scores[analysis.Team])
}

func TestAnalyzeNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(Config{ScoringURL: srv.URL}).Analyze(t.Context(), Submission{Filename: "d.pdf"})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.Status)
	assert.Contains(t, te.Body, "workflow crashed")
}

func TestAnalyzeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Config{ScoringURL: url}).Analyze(t.Context(), Submission{Filename: "d.pdf"})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Error(t, te.Err)
}

func TestAnalyzeNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Workflow was started"))
	}))
	defer srv.Close()

	_, err := New(Config{ScoringURL: srv.URL}).Analyze(t.Context(), Submission{Filename: "d.pdf"})
	var pe *analysis.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Workflow was started", pe.Excerpt)
}

func TestOptionalWebhooksAreNoops(t *testing.T) {
	c := New(Config{})
	raw, err := c.DetectAnomalies(t.Context(), Submission{})
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.NoError(t, c.Ingest(t.Context(), Submission{}))
	assert.False(t, c.HasChat())
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "echo: " + in["message"]})
	}))
	defer srv.Close()

	got, err := New(Config{ChatURL: srv.URL}).Chat(t.Context(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", got)
}

func TestClientCredentials(t *testing.T) {
	var tokenCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/score", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{ScoringURL: srv.URL + "/score", TokenURL: srv.URL + "/token", ClientID: "id", ClientSecret: "s"})
	_, err := c.Analyze(t.Context(), Submission{Filename: "d.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
}
