package startup

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelens/venturelens/internal/analysis"
	"github.com/venturelens/venturelens/internal/handoff"
	"github.com/venturelens/venturelens/internal/storage"
	syncx "github.com/venturelens/venturelens/internal/sync"
	"github.com/venturelens/venturelens/internal/webhook"
)

type fakeAI struct {
	scoring    map[string]any
	anomalies  map[string]any
	scoringErr error
	anomalyErr error
	ingestErr  error

	// ingestWait holds Ingest open this long unless its context ends first.
	ingestWait   time.Duration
	ingestCtxErr error

	mu   sync.Mutex
	seen []webhook.Submission
}

func (f *fakeAI) note(s webhook.Submission) {
	f.mu.Lock()
	f.seen = append(f.seen, s)
	f.mu.Unlock()
}

func (f *fakeAI) Analyze(_ context.Context, s webhook.Submission) (map[string]any, error) {
	f.note(s)
	return f.scoring, f.scoringErr
}

func (f *fakeAI) DetectAnomalies(_ context.Context, s webhook.Submission) (map[string]any, error) {
	f.note(s)
	return f.anomalies, f.anomalyErr
}

func (f *fakeAI) Ingest(ctx context.Context, s webhook.Submission) error {
	f.note(s)
	if f.ingestWait > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(f.ingestWait):
		}
		f.mu.Lock()
		f.ingestCtxErr = ctx.Err()
		f.mu.Unlock()
	}
	return f.ingestErr
}

type fakeBlobs struct {
	m         map[string][]byte
	deleteErr error
}

func (b *fakeBlobs) Put(key string, r io.Reader) (string, error) {
	if _, ok := b.m[key]; ok {
		return "", storage.ErrExists
	}
	data, _ := io.ReadAll(r)
	b.m[key] = data
	return key, nil
}

func (b *fakeBlobs) Get(key string) (io.ReadCloser, error) { return nil, storage.ErrNotFound }

func (b *fakeBlobs) Delete(key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.m, key)
	return nil
}

func (b *fakeBlobs) SignedURL(key string) (string, error) { return "mem://" + key, nil }

type fakeEvents struct{ types []string }

func (e *fakeEvents) Record(_ context.Context, typ, _ string, _ any) error {
	e.types = append(e.types, typ)
	return nil
}

type failingRepo struct{ Repo }

func (failingRepo) Create(context.Context, Startup, analysis.Result) (Detail, error) {
	return Detail{}, errors.New("disk full")
}

type fixture struct {
	svc    *Service
	ai     *fakeAI
	blobs  *fakeBlobs
	events *fakeEvents
}

func newFixture(t *testing.T, repo Repo) fixture {
	if repo == nil {
		repo = newStore(t)
	}
	f := fixture{
		ai: &fakeAI{
			scoring: map[string]any{"scores": map[string]any{"team_score": "=9", "market_score": 7.0}},
			anomalies: map[string]any{"success": true, "anomaly": map[string]any{
				"category": "traction", "severity": "medium", "description": "ARR differs",
			}},
		},
		blobs:  &fakeBlobs{m: map[string][]byte{}},
		events: &fakeEvents{},
	}
	f.svc = NewService(repo, f.blobs, f.ai, f.events, handoff.New[Detail](time.Minute))
	f.svc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return f
}

var deck = Upload{Filename: "deck.pdf", Data: []byte("%PDF-1.4 deck")}

func TestSubmit(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.DeckBaseURL = "https://api.test/decks/"

	d, err := f.svc.Submit(context.Background(), "f1", validForm(), deck)
	require.NoError(t, err)
	assert.Equal(t, 80, d.AIScore)
	assert.Equal(t, analysis.TrustStrong, d.TrustSignal)
	assert.Equal(t, 90.0, d.Scores[analysis.Team])
	require.Len(t, d.Anomalies, 1)
	assert.Equal(t, "Traction Data Inconsistency", d.Anomalies[0].Title)

	assert.Equal(t, "f1/1700000000123.pdf", d.DeckURL)
	assert.Contains(t, f.blobs.m, d.DeckURL)
	require.Len(t, f.ai.seen, 3)
	for _, s := range f.ai.seen {
		assert.Equal(t, "https://api.test/decks/f1/1700000000123.pdf", s.Fields["deck_url"])
		assert.Equal(t, "f1", s.Fields["founder_id"])
	}
	assert.Equal(t, []string{syncx.TypeStartupSubmitted}, f.events.types)

	h, ok := f.svc.TakeHandoff("f1")
	require.True(t, ok)
	assert.Equal(t, d.ID, h.ID)
	_, ok = f.svc.TakeHandoff("f1")
	assert.False(t, ok)
}

func TestSubmitStoresFunding(t *testing.T) {
	repo := newStore(t)
	f := newFixture(t, repo)
	form := validForm()
	form.Funding = "  $2M seed "

	d, err := f.svc.Submit(t.Context(), "f1", form, deck)
	require.NoError(t, err)
	got, err := repo.Get(t.Context(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2M seed", got.Funding)
	require.NotEmpty(t, f.ai.seen)
	assert.Equal(t, "$2M seed", f.ai.seen[0].Fields["funding"])
}

func TestSubmitValidationHasNoSideEffects(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Submit(context.Background(), "f1", Form{Name: "Acme"}, Upload{Filename: "x.doc"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, f.blobs.m)
	assert.Empty(t, f.ai.seen)
	assert.Empty(t, f.events.types)
}

func TestSubmitOptionalWebhookFailuresAreTolerated(t *testing.T) {
	f := newFixture(t, nil)
	f.ai.anomalyErr = errors.New("timeout")
	f.ai.ingestErr = errors.New("timeout")

	d, err := f.svc.Submit(context.Background(), "f1", validForm(), deck)
	require.NoError(t, err)
	assert.NotNil(t, d.Anomalies)
	assert.Empty(t, d.Anomalies)
}

func TestSubmitScoringFailureRemovesDeck(t *testing.T) {
	f := newFixture(t, nil)
	f.ai.scoringErr = &webhook.TransportError{Op: "scoring", Status: 500}

	_, err := f.svc.Submit(context.Background(), "f1", validForm(), deck)
	var te *webhook.TransportError
	require.True(t, errors.As(err, &te))
	assert.Empty(t, f.blobs.m)
	assert.Equal(t, []string{syncx.TypeSubmissionFailed}, f.events.types)
	_, ok := f.svc.TakeHandoff("f1")
	assert.False(t, ok)
}

func TestSubmitScoringFailureLetsOtherCallsFinish(t *testing.T) {
	f := newFixture(t, nil)
	f.ai.scoringErr = &webhook.TransportError{Op: "scoring", Status: 502}
	f.ai.ingestWait = 100 * time.Millisecond

	_, err := f.svc.Submit(t.Context(), "f1", validForm(), deck)
	require.Error(t, err)
	assert.NoError(t, f.ai.ingestCtxErr)
	assert.Len(t, f.ai.seen, 3)
	assert.Empty(t, f.blobs.m)
}

func TestSubmitDeckURLFallsBackToStoreURL(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Submit(t.Context(), "f1", validForm(), deck)
	require.NoError(t, err)
	require.NotEmpty(t, f.ai.seen)
	for _, s := range f.ai.seen {
		assert.Equal(t, "mem://f1/1700000000123.pdf", s.Fields["deck_url"])
	}
}

func TestSubmitSameMillisecondKeepsBothDecks(t *testing.T) {
	f := newFixture(t, nil)

	first, err := f.svc.Submit(t.Context(), "f1", validForm(), deck)
	require.NoError(t, err)
	second, err := f.svc.Submit(t.Context(), "f1", validForm(), deck)
	require.NoError(t, err)

	assert.Equal(t, "f1/1700000000123.pdf", first.DeckURL)
	assert.NotEqual(t, first.DeckURL, second.DeckURL)
	assert.Regexp(t, `^f1/1700000000123-[0-9a-f]{8}\.pdf$`, second.DeckURL)
	assert.Len(t, f.blobs.m, 2)
}

func TestSubmitPersistFailureOrphansDeckWhenDeleteFails(t *testing.T) {
	f := newFixture(t, failingRepo{})
	f.blobs.deleteErr = errors.New("permission denied")

	_, err := f.svc.Submit(context.Background(), "f1", validForm(), deck)
	assert.ErrorContains(t, err, "save startup")
	assert.Len(t, f.blobs.m, 1)
	assert.Equal(t, []string{syncx.TypeSubmissionFailed, syncx.TypeDeckOrphaned}, f.events.types)
}
