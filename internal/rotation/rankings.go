package rotation

import (
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
)

// Standing is one row of the session rankings.
type Standing struct {
	PlayerID    string  `db:"player_id" json:"player_id"`
	FullName    string  `db:"full_name" json:"full_name"`
	Nickname    *string `db:"nickname" json:"nickname"`
	GamesPlayed int     `db:"games_played" json:"games_played"`
	Wins        int     `db:"wins" json:"wins"`
	Losses      int     `db:"losses" json:"losses"`
	WinPct      float64 `db:"-" json:"win_pct"`
	Rank        int     `db:"-" json:"rank"`
}

// rankStandings computes win percentages and sorts: win pct desc, wins
// desc, games played desc, name asc. Ranks are 1-based and assigned after
// the sort; ties share order, not rank.
func rankStandings(standings []Standing) []Standing {
	out := make([]Standing, len(standings))
	copy(out, standings)

	for i := range out {
		if out[i].GamesPlayed > 0 {
			out[i].WinPct = float64(out[i].Wins) / float64(out[i].GamesPlayed)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinPct != out[j].WinPct {
			return out[i].WinPct > out[j].WinPct
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].GamesPlayed != out[j].GamesPlayed {
			return out[i].GamesPlayed > out[j].GamesPlayed
		}
		return out[i].FullName < out[j].FullName
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Rankings returns the session standings for every player on the roster.
func Rankings(db *sqlx.DB, sessionID string) ([]Standing, error) {
	var standings []Standing
	err := db.Select(&standings, `
		SELECT sp.player_id, p.full_name, p.nickname, sp.games_played, sp.wins, sp.losses
		FROM session_players sp
		JOIN players p ON p.id = sp.player_id
		WHERE sp.session_id = $1
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load standings: %w", err)
	}
	return rankStandings(standings), nil
}
