package startup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelens/venturelens/internal/analysis"
	"github.com/venturelens/venturelens/internal/db"
)

func newStore(t *testing.T) *SQLStore {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return NewSQLStore(h, db.DriverSQLite.SQLName())
}

func seed(t *testing.T, s *SQLStore, founder, name, industry string, score int, at int64, anomalies ...analysis.Anomaly) Detail {
	t.Helper()
	if anomalies == nil {
		anomalies = []analysis.Anomaly{}
	}
	d, err := s.Create(context.Background(), Startup{
		FounderID: founder, Name: name, Industry: industry, Stage: "Seed", CreatedAt: at,
	}, analysis.Result{
		Scores:    analysis.ScoreSet{analysis.Team: float64(score)},
		Reasoning: analysis.Reasoning{analysis.Team: "why"},
		Aggregate: score,
		Trust:     analysis.ClassifyTrust(score),
		Anomalies: anomalies,
	})
	require.NoError(t, err)
	return d
}

func TestCreateAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	d := seed(t, s, "f1", "Acme", "AI", 82, 1000, analysis.Anomaly{
		ID: "up-1", Category: "market", Severity: "high", Priority: analysis.PriorityHigh,
		Title: "Market Claim Discrepancy", Claims: analysis.Claims{Deck: "$2M", Website: "$500K"},
	})
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, analysis.TrustStrong, d.TrustSignal)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, 82, got.AIScore)
	assert.Equal(t, 82.0, got.Scores[analysis.Team])
	assert.Equal(t, 0.0, got.Scores[analysis.Moat])
	assert.Equal(t, "why", got.Reasoning[analysis.Team])
	require.Len(t, got.Anomalies, 1)
	assert.Equal(t, "up-1", got.Anomalies[0].ID)
	assert.Equal(t, "$500K", got.Anomalies[0].Claims.Website)
	assert.Equal(t, Counts{High: 1, Total: 1}, got.AnomalyCounts)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestPicksNewest(t *testing.T) {
	s := newStore(t)
	seed(t, s, "f1", "Old", "AI", 40, 1000)
	seed(t, s, "f1", "New", "AI", 70, 2000)
	seed(t, s, "f2", "Other", "AI", 90, 3000)

	d, err := s.Latest(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "New", d.Name)
	assert.NotNil(t, d.Anomalies)

	_, err = s.Latest(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, "f1", "Acme Robotics", "Robotics", 85, 1000)
	seed(t, s, "f2", "Beta Pay", "Fintech", 65, 2000)
	seed(t, s, "f3", "Gamma", "Fintech", 30, 3000)

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Gamma", all[0].Name, "newest first")

	fin, _ := s.List(ctx, Filter{Industry: "fintech"})
	assert.Len(t, fin, 2)

	strong, _ := s.List(ctx, Filter{Trust: analysis.TrustStrong})
	require.Len(t, strong, 1)
	assert.Equal(t, "Acme Robotics", strong[0].Name)

	min60, _ := s.List(ctx, Filter{MinScore: 60})
	assert.Len(t, min60, 2)

	q, _ := s.List(ctx, Filter{Query: "PAY"})
	require.Len(t, q, 1)
	assert.Equal(t, "Beta Pay", q[0].Name)

	page, _ := s.List(ctx, Filter{Limit: 1, Offset: 1})
	require.Len(t, page, 1)
	assert.Equal(t, "Beta Pay", page[0].Name)

	none, err := s.List(ctx, Filter{Stage: "Series B"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPortfolio(t *testing.T) {
	s := newStore(t)
	seed(t, s, "f1", "A", "AI", 60, 1000)
	seed(t, s, "f2", "B", "AI", 59, 2000)
	seed(t, s, "f3", "C", "AI", 91, 3000)

	list, err := s.Portfolio(context.Background(), 60)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "C", list[0].Name)
	assert.Equal(t, Summary{Count: 2, AvgScore: 76}, PortfolioSummary(list))
	assert.Equal(t, Summary{}, PortfolioSummary(nil))
}

func TestPortfolioSummaryFunding(t *testing.T) {
	list := []Startup{
		{AIScore: 80, Funding: "$1,500,000"},
		{AIScore: 70, Funding: "250000.50 USD"},
		{AIScore: 60, Funding: "undisclosed"},
		{AIScore: 90},
	}
	assert.Equal(t, Summary{Count: 4, AvgScore: 75, TotalFunding: 1750000.5}, PortfolioSummary(list))
	assert.Zero(t, FundingAmount("1.2.3"))
}

func TestRecentAnomaliesAndCounts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seed(t, s, "f1", "Acme", "AI", 50, 1000, analysis.Anomaly{Priority: analysis.PriorityLow, Title: "Low Priority Issue"})
	seed(t, s, "f2", "Beta", "AI", 50, 2000,
		analysis.Anomaly{Priority: analysis.PriorityHigh, Title: "Financial Discrepancy"},
		analysis.Anomaly{Priority: analysis.PriorityMedium, Title: "Medium Priority Issue"})

	alerts, err := s.RecentAnomalies(ctx, 2)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Beta", alerts[0].StartupName)
	assert.NotEmpty(t, alerts[0].ID, "falls back to row id")

	c, err := s.AnomalyCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{High: 1, Medium: 1, Low: 1, Total: 3}, c)
}
