package ledger

import (
	"slices"
	"strings"

	"github.com/ts4z/homegame/model"
)

// Standing is one line of the tournament leaderboard.
type Standing struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Points   int     `json:"points"`
	Winnings int64   `json:"winnings"`
	Games    int     `json:"games"`
	Wins     int     `json:"wins"`
	Net      float64 `json:"net"`
}

// Standings totals points and winnings over the ended games.  Order is by
// points, then winnings, then name; players who tie on both points and
// winnings share a rank.
func Standings(t *model.Tournament) []Standing {
	l := Compute(t)
	byID := map[string]*Standing{}
	out := make([]*Standing, 0, len(l.Balances))
	for _, b := range l.Balances {
		s := &Standing{PlayerID: b.ID, Name: b.Name, Net: b.Balance}
		byID[b.ID] = s
		out = append(out, s)
	}

	for _, g := range t.EndedGames() {
		for _, r := range g.Results {
			s, ok := byID[r.PlayerID]
			if !ok {
				continue
			}
			s.Games++
			s.Points += r.Points
			s.Winnings += r.Winnings
			if r.Rank == 1 {
				s.Wins++
			}
		}
	}

	slices.SortStableFunc(out, func(a, b *Standing) int {
		if a.Points != b.Points {
			return b.Points - a.Points
		}
		if a.Winnings != b.Winnings {
			if a.Winnings > b.Winnings {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})

	standings := make([]Standing, len(out))
	for i, s := range out {
		s.Rank = i + 1
		if i > 0 && s.Points == out[i-1].Points && s.Winnings == out[i-1].Winnings {
			s.Rank = out[i-1].Rank
		}
		standings[i] = *s
	}
	return standings
}
