package startup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/venturelens/venturelens/internal/analysis"
)

// Repo is the persistence boundary of the submission flow and the dashboards.
type Repo interface {
	Create(ctx context.Context, s Startup, res analysis.Result) (Detail, error)
	Get(ctx context.Context, id string) (Detail, error)
	Latest(ctx context.Context, founderID string) (Detail, error)
	List(ctx context.Context, f Filter) ([]Startup, error)
	Portfolio(ctx context.Context, minScore int) ([]Startup, error)
	RecentAnomalies(ctx context.Context, limit int) ([]Alert, error)
	AnomalyCounts(ctx context.Context) (Counts, error)
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

const startupCols = `id, founder_id, name, description, industry, stage, website_url,
	linkedin_url, funding_raised, deck_url, ai_score, trust_signal, created_at`

type SQLStore struct{ db *sqlx.DB }

// NewSQLStore wraps an open handle; driverName is the database/sql driver it
// was opened with, so placeholders can be rebound.
func NewSQLStore(db *sql.DB, driverName string) *SQLStore {
	return &SQLStore{db: sqlx.NewDb(db, driverName)}
}

type scoreRow struct {
	Category  string  `db:"category"`
	Score     float64 `db:"score"`
	Reasoning string  `db:"reasoning"`
}

type anomalyRow struct {
	ID           string `db:"id"`
	StartupID    string `db:"startup_id"`
	StartupName  string `db:"startup_name"`
	ExternalID   string `db:"external_id"`
	Category     string `db:"category"`
	Severity     string `db:"severity"`
	Priority     string `db:"priority"`
	Title        string `db:"title"`
	Description  string `db:"description"`
	ClaimDeck    string `db:"claim_deck"`
	ClaimWebsite string `db:"claim_website"`
	CreatedAt    int64  `db:"created_at"`
}

func (r anomalyRow) anomaly() analysis.Anomaly {
	id := r.ExternalID
	if id == "" {
		id = r.ID
	}
	return analysis.Anomaly{
		ID:          id,
		Category:    r.Category,
		Severity:    r.Severity,
		Priority:    analysis.Priority(r.Priority),
		Title:       r.Title,
		Description: r.Description,
		Claims:      analysis.Claims{Deck: r.ClaimDeck, Website: r.ClaimWebsite},
	}
}

// Create inserts the startup with its scores and anomalies in one transaction.
// s.ID is generated when empty; AIScore and TrustSignal are taken from res.
func (s *SQLStore) Create(ctx context.Context, st Startup, res analysis.Result) (Detail, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.AIScore = res.Aggregate
	st.TrustSignal = res.Trust

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Detail{}, err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `INSERT INTO startups (`+startupCols+`)
		VALUES (:id, :founder_id, :name, :description, :industry, :stage, :website_url,
			:linkedin_url, :funding_raised, :deck_url, :ai_score, :trust_signal, :created_at)`, st); err != nil {
		return Detail{}, fmt.Errorf("insert startup: %w", err)
	}
	insScore := tx.Rebind(`INSERT INTO startup_scores (startup_id, category, score, reasoning) VALUES (?,?,?,?)`)
	for _, c := range analysis.Categories {
		if _, err := tx.ExecContext(ctx, insScore, st.ID, string(c), res.Scores[c], res.Reasoning[c]); err != nil {
			return Detail{}, fmt.Errorf("insert score %s: %w", c, err)
		}
	}
	insAnomaly := tx.Rebind(`INSERT INTO startup_anomalies
		(id, startup_id, external_id, category, severity, priority, title, description, claim_deck, claim_website, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	for _, a := range res.Anomalies {
		if _, err := tx.ExecContext(ctx, insAnomaly, uuid.NewString(), st.ID, a.ID, a.Category, a.Severity,
			string(a.Priority), a.Title, a.Description, a.Claims.Deck, a.Claims.Website, st.CreatedAt); err != nil {
			return Detail{}, fmt.Errorf("insert anomaly: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, st)
}

func (s *SQLStore) Get(ctx context.Context, id string) (Detail, error) {
	var st Startup
	err := s.db.GetContext(ctx, &st, s.db.Rebind(`SELECT `+startupCols+` FROM startups WHERE id=?`), id)
	if err != nil {
		return Detail{}, notFound(err)
	}
	return s.detail(ctx, st)
}

// Latest returns the founder's most recent submission.
func (s *SQLStore) Latest(ctx context.Context, founderID string) (Detail, error) {
	var st Startup
	err := s.db.GetContext(ctx, &st, s.db.Rebind(`SELECT `+startupCols+` FROM startups
		WHERE founder_id=? ORDER BY created_at DESC LIMIT 1`), founderID)
	if err != nil {
		return Detail{}, notFound(err)
	}
	return s.detail(ctx, st)
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]Startup, error) {
	var (
		where []string
		args  []any
	)
	if f.Industry != "" {
		where = append(where, "LOWER(industry) = ?")
		args = append(args, strings.ToLower(f.Industry))
	}
	if f.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, f.Stage)
	}
	if f.Trust != "" {
		where = append(where, "trust_signal = ?")
		args = append(args, string(f.Trust))
	}
	if f.MinScore > 0 {
		where = append(where, "ai_score >= ?")
		args = append(args, f.MinScore)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, like, like)
	}

	q := `SELECT ` + startupCols + ` FROM startups`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, clampLimit(f.Limit), max(f.Offset, 0))

	out := []Startup{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Portfolio lists startups scoring at least minScore, best first.
func (s *SQLStore) Portfolio(ctx context.Context, minScore int) ([]Startup, error) {
	out := []Startup{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`SELECT `+startupCols+` FROM startups
		WHERE ai_score >= ? ORDER BY ai_score DESC, created_at DESC`), minScore)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) RecentAnomalies(ctx context.Context, limit int) ([]Alert, error) {
	var rows []anomalyRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT a.id, a.startup_id, s.name AS startup_name, a.external_id, a.category, a.severity,
		       a.priority, a.title, a.description, a.claim_deck, a.claim_website, a.created_at
		FROM startup_anomalies a JOIN startups s ON s.id = a.startup_id
		ORDER BY a.created_at DESC LIMIT ?`), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Alert, 0, len(rows))
	for _, r := range rows {
		out = append(out, Alert{Anomaly: r.anomaly(), StartupID: r.StartupID, StartupName: r.StartupName, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *SQLStore) AnomalyCounts(ctx context.Context) (Counts, error) {
	var rows []struct {
		Priority string `db:"priority"`
		N        int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT priority, COUNT(*) AS n FROM startup_anomalies GROUP BY priority`); err != nil {
		return Counts{}, err
	}
	var c Counts
	for _, r := range rows {
		c.add(analysis.Priority(r.Priority), r.N)
	}
	return c, nil
}

func (s *SQLStore) detail(ctx context.Context, st Startup) (Detail, error) {
	d := Detail{
		Startup:   st,
		Scores:    make(analysis.ScoreSet, len(analysis.Categories)),
		Reasoning: make(analysis.Reasoning, len(analysis.Categories)),
		Anomalies: []analysis.Anomaly{},
	}

	var scores []scoreRow
	if err := s.db.SelectContext(ctx, &scores, s.db.Rebind(
		`SELECT category, score, reasoning FROM startup_scores WHERE startup_id=?`), st.ID); err != nil {
		return Detail{}, fmt.Errorf("load scores: %w", err)
	}
	for _, r := range scores {
		c, err := analysis.ParseCategory(r.Category)
		if err != nil {
			continue
		}
		d.Scores[c] = r.Score
		d.Reasoning[c] = r.Reasoning
	}

	var anomalies []anomalyRow
	if err := s.db.SelectContext(ctx, &anomalies, s.db.Rebind(`
		SELECT id, startup_id, external_id, category, severity, priority, title, description,
		       claim_deck, claim_website, created_at
		FROM startup_anomalies WHERE startup_id=? ORDER BY created_at, id`), st.ID); err != nil {
		return Detail{}, fmt.Errorf("load anomalies: %w", err)
	}
	for _, r := range anomalies {
		a := r.anomaly()
		d.Anomalies = append(d.Anomalies, a)
		d.AnomalyCounts.add(a.Priority, 1)
	}
	return d, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultLimit
	}
	return min(n, maxLimit)
}
