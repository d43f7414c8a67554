package service

import (
	"context"
	"testing"
	"time"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPopulation(t *testing.T, f *fixture) {
	t.Helper()
	fresh := testNow.Add(-time.Hour)

	f.seed(t, admin("ADM"))
	f.seed(t, member("U1"))
	f.seed(t, member("U2"))

	added := member("U3")
	added.TempState = domain.TempAdded
	added.LastRequestAt = fresh
	f.seed(t, added)

	banned := member("U4")
	banned.PermState = domain.PermBlacklisted
	banned.LastRequestAt = fresh
	f.seed(t, banned)
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 42)
	seedPopulation(t, f)

	res, err := f.roster.Preview(ctx, 3)
	require.NoError(t, err)
	require.Len(t, res.Members, 3)
	assert.Equal(t, "U3", res.Members[0].ID)
	assert.NotContains(t, res.MemberIDs(), "U4")
	assert.Equal(t, int64(42), res.Seed)
	assert.Empty(t, res.HistoryID)
	assert.Equal(t, time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC), res.Boundary)
	assert.Equal(t, policy.DefaultWindowWeeks, res.WindowWeeks)
	assert.Equal(t, []string{"U4"}, idsOf(res.Blacklist))

	history, err := f.history.ListSince(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history, "preview must not record history")
	assert.Empty(t, f.events.types())
	assert.Equal(t, []string{"preview"}, f.metrics.rosters)
}

func TestPreview_DeterministicForSeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 7)
	seedPopulation(t, f)

	first, err := f.roster.Preview(ctx, 2)
	require.NoError(t, err)
	second, err := f.roster.Preview(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, first.MemberIDs(), second.MemberIDs())
}

func TestPreview_Sizes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	seedPopulation(t, f)

	t.Run("zero uses default", func(t *testing.T) {
		res, err := f.roster.Preview(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Requested)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := f.roster.Preview(ctx, -1)
		requireCode(t, err, domain.CodeValidation)
	})

	t.Run("above max", func(t *testing.T) {
		_, err := f.roster.Preview(ctx, 11)
		requireCode(t, err, domain.CodeValidation)
	})

	t.Run("shortfall is not an error", func(t *testing.T) {
		// U3 forced in, pool is ADM, U1, U2.
		res, err := f.roster.Preview(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, res.Members, 4)
		assert.Equal(t, 6, res.Shortfall)
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	seedPopulation(t, f)

	res, err := f.roster.Generate(ctx, "ADM", 3)
	require.NoError(t, err)
	require.NotEmpty(t, res.HistoryID)

	history, err := f.history.ListSince(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.HistoryID, history[0].ID)
	assert.Equal(t, testNow.Unix(), history[0].GeneratedAt)
	assert.Equal(t, res.MemberIDs(), history[0].Participants)

	assert.Equal(t, []domain.EventType{domain.EventRosterGenerated}, f.events.types())
	assert.Equal(t, []string{"generate"}, f.metrics.rosters)
}

func TestGenerate_FeedsNextDraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	seedPopulation(t, f)

	first, err := f.roster.Generate(ctx, "ADM", 3)
	require.NoError(t, err)

	next, err := f.roster.Preview(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, next.MaxCount)
	for _, p := range next.Pool {
		want := 2
		for _, id := range first.MemberIDs() {
			if id == p.ID {
				want = 1
			}
		}
		assert.Equal(t, want, next.Entries[p.ID], "entries for %s", p.ID)
	}
}

func TestGenerate_AdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	seedPopulation(t, f)

	_, err := f.roster.Generate(ctx, "U1", 2)
	requireCode(t, err, domain.CodeNotAuthorized)

	_, err = f.roster.Generate(ctx, "", 2)
	requireCode(t, err, domain.CodeNotAuthorized)

	history, err := f.history.ListSince(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRoster_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("list playtesters", func(t *testing.T) {
		f := newFixture(t, 1)
		seedPopulation(t, f)
		f.players.failList = true

		res, err := f.roster.Preview(ctx, 2)
		requireCode(t, err, domain.CodeStore)
		assert.Nil(t, res)
	})

	t.Run("load history", func(t *testing.T) {
		f := newFixture(t, 1)
		seedPopulation(t, f)
		f.history.failList = true

		res, err := f.roster.Preview(ctx, 2)
		requireCode(t, err, domain.CodeStore)
		assert.Nil(t, res)
	})

	t.Run("append history", func(t *testing.T) {
		f := newFixture(t, 1)
		seedPopulation(t, f)
		f.history.failAppend = true

		res, err := f.roster.Generate(ctx, "ADM", 2)
		requireCode(t, err, domain.CodeStore)
		assert.Nil(t, res)
		assert.Empty(t, f.events.types())
	})

	t.Run("seed source", func(t *testing.T) {
		f := newFixture(t, 1)
		seedPopulation(t, f)
		f.roster.seed = func() (int64, error) { return 0, errBoom }

		_, err := f.roster.Preview(ctx, 2)
		requireCode(t, err, domain.CodeInternal)
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	seedPopulation(t, f)

	stale := member("U5")
	stale.TempState = domain.TempAdded
	stale.LastRequestAt = testNow.Add(-12 * time.Hour)
	f.seed(t, stale)

	tests := []struct {
		id       string
		temp     domain.TempState
		category policy.Category
	}{
		{"U1", domain.TempNeutral, policy.CategoryPool},
		{"U3", domain.TempAdded, policy.CategoryAdded},
		{"U4", domain.TempNeutral, policy.CategoryBlacklist},
		{"U5", domain.TempNeutral, policy.CategoryPool},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			st, err := f.roster.Status(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.temp, st.EffectiveTemp)
			assert.Equal(t, tt.category, st.Category)
		})
	}

	t.Run("stored state is reported as is", func(t *testing.T) {
		st, err := f.roster.Status(ctx, "U5")
		require.NoError(t, err)
		assert.Equal(t, domain.TempAdded, st.Playtester.TempState)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := f.roster.Status(ctx, "GHOST")
		requireCode(t, err, domain.CodeNotFound)
	})
}

func idsOf(ps []domain.Playtester) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
