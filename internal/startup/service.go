package startup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/venturelens/venturelens/internal/analysis"
	"github.com/venturelens/venturelens/internal/handoff"
	"github.com/venturelens/venturelens/internal/storage"
	syncx "github.com/venturelens/venturelens/internal/sync"
	"github.com/venturelens/venturelens/internal/webhook"
)

// Analyzer is the outbound side of a submission.
type Analyzer interface {
	Analyze(ctx context.Context, s webhook.Submission) (map[string]any, error)
	DetectAnomalies(ctx context.Context, s webhook.Submission) (map[string]any, error)
	Ingest(ctx context.Context, s webhook.Submission) error
}

type EventRecorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type Service struct {
	repo    Repo
	blobs   storage.BlobStore
	ai      Analyzer
	events  EventRecorder
	handoff *handoff.Box[Detail]

	// DeckBaseURL prefixes the blob key in the deck_url sent to the webhooks.
	DeckBaseURL string

	now func() time.Time
}

func NewService(repo Repo, blobs storage.BlobStore, ai Analyzer, events EventRecorder, box *handoff.Box[Detail]) *Service {
	return &Service{repo: repo, blobs: blobs, ai: ai, events: events, handoff: box, now: time.Now}
}

// Submit validates the form, stores the deck, runs the webhooks, normalizes
// their output and persists a new startup row. The result is also left in the
// handoff box for the founder's next dashboard load.
//
// Once the deck is stored, any later failure removes it again.
func (s *Service) Submit(ctx context.Context, founderID string, f Form, up Upload) (Detail, error) {
	f.Normalize()
	if err := errors.Join(f.Validate(), up.Validate()); err != nil {
		return Detail{}, err
	}

	now := s.now()
	key, err := s.storeDeck(founderID, now, up.Data)
	if err != nil {
		return Detail{}, fmt.Errorf("store deck: %w", err)
	}

	d, err := s.analyzeAndSave(ctx, founderID, f, up, key, now)
	if err != nil {
		s.compensate(ctx, founderID, key, err)
		return Detail{}, err
	}

	s.handoff.Put(founderID, d)
	s.record(ctx, syncx.TypeStartupSubmitted, d.ID, map[string]any{
		"founder_id": founderID, "ai_score": d.AIScore, "trust_signal": d.TrustSignal, "anomalies": len(d.Anomalies),
	})
	return d, nil
}

// TakeHandoff returns the analysis left by the founder's last submission, once.
func (s *Service) TakeHandoff(founderID string) (Detail, bool) {
	return s.handoff.Take(founderID)
}

// storeDeck writes the deck under <founder>/<millis>.pdf. A second submission
// in the same millisecond gets a random suffix instead of replacing the first.
func (s *Service) storeDeck(founderID string, now time.Time, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%d.pdf", founderID, now.UnixMilli())
	_, err := s.blobs.Put(key, bytes.NewReader(data))
	if errors.Is(err, storage.ErrExists) {
		key = fmt.Sprintf("%s/%d-%s.pdf", founderID, now.UnixMilli(), uuid.NewString()[:8])
		_, err = s.blobs.Put(key, bytes.NewReader(data))
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

// deckURL is the link the webhooks fetch the deck from. Without a public
// base URL it falls back to the store's own URL for the blob.
func (s *Service) deckURL(key string) string {
	if s.DeckBaseURL != "" {
		return s.DeckBaseURL + key
	}
	u, err := s.blobs.SignedURL(key)
	if err != nil {
		log.Printf("startup: deck url for %s: %v", key, err)
		return key
	}
	return u
}

func (s *Service) analyzeAndSave(ctx context.Context, founderID string, f Form, up Upload, key string, now time.Time) (Detail, error) {
	sub := webhook.Submission{
		Filename: up.Filename,
		File:     up.Data,
		Fields: map[string]string{
			"name":         f.Name,
			"description":  f.Description,
			"industry":     f.Industry,
			"stage":        f.Stage,
			"website_url":  f.WebsiteURL,
			"linkedin_url": f.LinkedInURL,
			"funding":      f.Funding,
			"founder_id":   founderID,
			"deck_url":     s.deckURL(key),
		},
	}

	var scoring, anomalies map[string]any
	// All three calls run to completion; only scoring is fatal.
	var g errgroup.Group
	g.Go(func() error {
		raw, err := s.ai.Analyze(ctx, sub)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		scoring = raw
		return nil
	})
	g.Go(func() error {
		raw, err := s.ai.DetectAnomalies(ctx, sub)
		if err != nil {
			log.Printf("startup: anomaly detection for %s: %v", founderID, err)
			return nil
		}
		anomalies = raw
		return nil
	})
	g.Go(func() error {
		if err := s.ai.Ingest(ctx, sub); err != nil {
			log.Printf("startup: ingest for %s: %v", founderID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}

	res := analysis.Normalize(scoring, anomalies)
	d, err := s.repo.Create(ctx, Startup{
		FounderID:   founderID,
		Name:        f.Name,
		Description: f.Description,
		Industry:    f.Industry,
		Stage:       f.Stage,
		WebsiteURL:  f.WebsiteURL,
		LinkedInURL: f.LinkedInURL,
		Funding:     f.Funding,
		DeckURL:     key,
		CreatedAt:   now.UnixMilli(),
	}, res)
	if err != nil {
		return Detail{}, fmt.Errorf("save startup: %w", err)
	}
	return d, nil
}

func (s *Service) compensate(ctx context.Context, founderID, key string, cause error) {
	s.record(ctx, syncx.TypeSubmissionFailed, founderID, map[string]string{"deck": key, "error": cause.Error()})
	err := s.blobs.Delete(key)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		return
	}
	log.Printf("startup: delete deck %s: %v", key, err)
	s.record(ctx, syncx.TypeDeckOrphaned, key, map[string]string{"founder_id": founderID, "error": err.Error()})
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	// The request may already be cancelled; the event still matters.
	if err := s.events.Record(context.WithoutCancel(ctx), typ, key, data); err != nil {
		log.Printf("startup: record %s %s: %v", typ, key, err)
	}
}

// PortfolioSummary computes count, rounded mean score and summed funding of
// a listing.
func PortfolioSummary(list []Startup) Summary {
	if len(list) == 0 {
		return Summary{}
	}
	total := 0
	var funding float64
	for _, s := range list {
		total += s.AIScore
		funding += FundingAmount(s.Funding)
	}
	return Summary{
		Count:        len(list),
		AvgScore:     (2*total + len(list)) / (2 * len(list)),
		TotalFunding: funding,
	}
}

// FundingAmount reads the number out of free-text funding such as "$1,500,000".
// Anything unparseable counts as 0.
func FundingAmount(s string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' {
			return r
		}
		return -1
	}, s)
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return v
}
