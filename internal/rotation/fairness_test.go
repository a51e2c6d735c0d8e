package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFairnessScoreWaitPlusRest(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	queuedAt := now.Add(-10 * time.Minute)
	lastPlayed := now.Add(-60 * time.Minute)

	score := fairnessScore(now, queuedAt, &lastPlayed)
	assert.InDelta(t, 70.0, score, 0.001)
}

func TestFairnessScoreNeverPlayedSentinel(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	queuedAt := now.Add(-5 * time.Minute)

	score := fairnessScore(now, queuedAt, nil)
	assert.InDelta(t, 5.0+neverPlayedRestMinutes, score, 0.001)

	// A never-played entry beats any entry that has played, regardless of
	// how long the latter has waited or rested.
	longAgo := now.Add(-8 * time.Hour)
	veteran := fairnessScore(now, now.Add(-3*time.Hour), &longAgo)
	assert.Greater(t, score, veteran)
}

func TestFairnessScoreMonotonicInWait(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	lastPlayed := now.Add(-30 * time.Minute)

	shorter := fairnessScore(now, now.Add(-5*time.Minute), &lastPlayed)
	longer := fairnessScore(now, now.Add(-20*time.Minute), &lastPlayed)
	assert.Greater(t, longer, shorter)
}

func TestFairnessScoreMonotonicInRest(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	queuedAt := now.Add(-10 * time.Minute)
	recent := now.Add(-15 * time.Minute)
	stale := now.Add(-90 * time.Minute)

	assert.Greater(t,
		fairnessScore(now, queuedAt, &stale),
		fairnessScore(now, queuedAt, &recent))
}

func TestFairnessScoreClampsFutureTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	future := now.Add(5 * time.Minute)

	// Clock skew must not produce negative components.
	assert.Equal(t, 0.0, fairnessScore(now, future, &future))
}

func TestRestAnchorPicksEarliestPlayed(t *testing.T) {
	early := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	late := early.Add(40 * time.Minute)

	anchor := restAnchor([]*time.Time{&late, &early})
	require.NotNil(t, anchor)
	assert.True(t, anchor.Equal(early))
}

func TestRestAnchorSkipsNeverPlayedMembers(t *testing.T) {
	played := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

	// One member has played, the other has not: the entry is anchored on
	// the member who has, not treated as never-played.
	anchor := restAnchor([]*time.Time{nil, &played})
	require.NotNil(t, anchor)
	assert.True(t, anchor.Equal(played))
}

func TestRestAnchorNilWhenNobodyPlayed(t *testing.T) {
	assert.Nil(t, restAnchor([]*time.Time{nil, nil}))
	assert.Nil(t, restAnchor(nil))
}
