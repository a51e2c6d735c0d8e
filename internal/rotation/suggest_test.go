package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(base time.Time, minutesAgo int) time.Time {
	return base.Add(-time.Duration(minutesAgo) * time.Minute)
}

func TestRankCandidatesByFairness(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	rested := ts(now, 60)
	fresh := ts(now, 5)

	entries := []candidate{
		{ID: "barely-rested", Position: 1, CreatedAt: ts(now, 10), LastPlayed: &fresh},
		{ID: "well-rested", Position: 2, CreatedAt: ts(now, 10), LastPlayed: &rested},
	}

	ranked := rankCandidates(entries, now)
	require.Len(t, ranked, 2)
	assert.Equal(t, "well-rested", ranked[0].ID)
	assert.Equal(t, "barely-rested", ranked[1].ID)
}

func TestRankCandidatesNeverPlayedFirst(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	rested := ts(now, 60)

	// E1 waited 10 minutes and last played an hour ago; E2 just arrived
	// and has never played. The sentinel puts E2 first.
	entries := []candidate{
		{ID: "e1", Position: 1, CreatedAt: ts(now, 10), LastPlayed: &rested},
		{ID: "e2", Position: 2, CreatedAt: ts(now, 1), LastPlayed: nil},
	}

	ranked := rankCandidates(entries, now)
	assert.Equal(t, "e2", ranked[0].ID)
	assert.Equal(t, "e1", ranked[1].ID)
}

func TestRankCandidatesTieBreaksOnCreatedAt(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	// Scores tie exactly (10+30 vs 5+35): the longer-queued entry wins.
	restA := ts(now, 30)
	restB := ts(now, 35)
	entries := []candidate{
		{ID: "newer", Position: 1, CreatedAt: ts(now, 5), LastPlayed: &restB},
		{ID: "older", Position: 2, CreatedAt: ts(now, 10), LastPlayed: &restA},
	}

	ranked := rankCandidates(entries, now)
	assert.Equal(t, "older", ranked[0].ID)
	assert.Equal(t, "newer", ranked[1].ID)
}

func TestRankCandidatesManualModeIsSticky(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	rested := ts(now, 120)

	// "due" would win on fairness by a mile, but one entry in the set is
	// manually ordered, so the entire set follows position order.
	entries := []candidate{
		{ID: "pinned", Position: 1, ManualOrder: true, CreatedAt: ts(now, 1), LastPlayed: nil},
		{ID: "due", Position: 3, CreatedAt: ts(now, 90), LastPlayed: &rested},
		{ID: "middle", Position: 2, CreatedAt: ts(now, 2), LastPlayed: nil},
	}

	ranked := rankCandidates(entries, now)
	require.Len(t, ranked, 3)
	assert.Equal(t, "pinned", ranked[0].ID)
	assert.Equal(t, "middle", ranked[1].ID)
	assert.Equal(t, "due", ranked[2].ID)
}

func TestRankCandidatesDoesNotMutateInput(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	entries := []candidate{
		{ID: "a", Position: 2, CreatedAt: ts(now, 1)},
		{ID: "b", Position: 1, CreatedAt: ts(now, 50)},
	}

	_ = rankCandidates(entries, now)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
}

func TestTeamSize(t *testing.T) {
	n, err := teamSize(MatchTypeSingles)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = teamSize(MatchTypeDoubles)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = teamSize("triples")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
