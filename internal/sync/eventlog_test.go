package syncx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelens/venturelens/internal/db"
)

func TestEventRepoRecordAndSince(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:eventlog_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	repo := NewEventRepo(dbh)
	require.NoError(t, repo.Record(ctx, TypeStartupSubmitted, "s-1", map[string]any{"ai_score": 80}))
	require.NoError(t, repo.Append(ctx, Event{Type: TypeDeckOrphaned, Key: "f-1/1.pdf"}))

	evs, err := repo.Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, TypeStartupSubmitted, evs[0].Type)
	assert.JSONEq(t, `{"ai_score":80}`, evs[0].DataJSON)
	assert.Equal(t, "local", evs[1].SiteID)
	assert.Equal(t, "{}", evs[1].DataJSON)

	later, err := repo.Since(ctx, evs[0].Seq, 10)
	require.NoError(t, err)
	assert.Len(t, later, 1)
}
