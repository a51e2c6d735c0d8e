package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankStandingsOrdering(t *testing.T) {
	standings := []Standing{
		{PlayerID: "a", FullName: "Amara", GamesPlayed: 4, Wins: 2, Losses: 2},  // .500
		{PlayerID: "b", FullName: "Brian", GamesPlayed: 3, Wins: 3, Losses: 0},  // 1.000
		{PlayerID: "c", FullName: "Carol", GamesPlayed: 10, Wins: 5, Losses: 5}, // .500, more wins than a
		{PlayerID: "d", FullName: "Denis", GamesPlayed: 0, Wins: 0, Losses: 0},  // never played
	}

	ranked := rankStandings(standings)
	require.Len(t, ranked, 4)

	assert.Equal(t, "b", ranked[0].PlayerID)
	assert.Equal(t, "c", ranked[1].PlayerID)
	assert.Equal(t, "a", ranked[2].PlayerID)
	assert.Equal(t, "d", ranked[3].PlayerID)

	for i, s := range ranked {
		assert.Equal(t, i+1, s.Rank)
	}
}

func TestRankStandingsZeroGamesWinPct(t *testing.T) {
	ranked := rankStandings([]Standing{{PlayerID: "x", FullName: "X", GamesPlayed: 0, Wins: 0}})
	assert.Equal(t, 0.0, ranked[0].WinPct)
	assert.Equal(t, 1, ranked[0].Rank)
}

func TestRankStandingsNameBreaksFullTie(t *testing.T) {
	standings := []Standing{
		{PlayerID: "z", FullName: "Zainab", GamesPlayed: 2, Wins: 1, Losses: 1},
		{PlayerID: "a", FullName: "Ann", GamesPlayed: 2, Wins: 1, Losses: 1},
	}

	ranked := rankStandings(standings)
	assert.Equal(t, "Ann", ranked[0].FullName)
	assert.Equal(t, "Zainab", ranked[1].FullName)
}

func TestRankStandingsGamesPlayedBreaksWinTie(t *testing.T) {
	// Equal pct and wins: the busier player ranks higher.
	standings := []Standing{
		{PlayerID: "light", FullName: "Light", GamesPlayed: 2, Wins: 0, Losses: 2},
		{PlayerID: "heavy", FullName: "Heavy", GamesPlayed: 4, Wins: 0, Losses: 4},
	}

	ranked := rankStandings(standings)
	assert.Equal(t, "heavy", ranked[0].PlayerID)
}

func TestRankStandingsDoesNotMutateInput(t *testing.T) {
	standings := []Standing{
		{PlayerID: "b", FullName: "B", GamesPlayed: 1, Wins: 0, Losses: 1},
		{PlayerID: "a", FullName: "A", GamesPlayed: 1, Wins: 1, Losses: 0},
	}
	_ = rankStandings(standings)
	assert.Equal(t, "b", standings[0].PlayerID)
	assert.Equal(t, 0, standings[0].Rank)
}
