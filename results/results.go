// Package results turns the elimination order of a finished game into
// places, league points, and winnings.
package results

import (
	"cmp"
	"slices"

	"github.com/ts4z/homegame/paytable"
)

// pointsByRank is the league points table.  Everybody who finishes below
// the table still gets a point for showing up.
var pointsByRank = []int{10, 7, 5, 3, 2}

const participationPoints = 1

// Entrant is one player's outcome in a game, as far as ranking cares.
type Entrant struct {
	PlayerID   string
	Name       string
	Eliminated bool
	// EliminationTime is when the player busted, in Unix millis.  Nil sorts
	// as if the player busted at the epoch.
	EliminationTime *int64
}

// PlayerResult is a player's finishing place in one game.
type PlayerResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Points   int    `json:"points"`
	Winnings int64  `json:"winnings"`
}

// PointsForRank returns the league points for a 1-based rank.
func PointsForRank(rank int) int {
	if rank >= 1 && rank <= len(pointsByRank) {
		return pointsByRank[rank-1]
	}
	return participationPoints
}

func eliminatedAt(e *Entrant) int64 {
	if e.EliminationTime == nil {
		return 0
	}
	return *e.EliminationTime
}

// Rank orders entrants by finish and assigns points and winnings.
//
// Players still in the game finish ahead of everybody who busted; among
// the busted, later elimination means a better finish.  Ties keep input
// order.  The rebuy pool goes to the winner on top of first-place money.
func Rank(entrants []Entrant, winnings paytable.Prizes, rebuyPool int64) []PlayerResult {
	sorted := make([]*Entrant, len(entrants))
	for i := range entrants {
		sorted[i] = &entrants[i]
	}

	slices.SortStableFunc(sorted, func(a, b *Entrant) int {
		if a.Eliminated != b.Eliminated {
			if !a.Eliminated {
				return -1
			}
			return 1
		}
		if !a.Eliminated {
			return 0
		}
		return cmp.Compare(eliminatedAt(b), eliminatedAt(a))
	})

	out := make([]PlayerResult, 0, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		r := PlayerResult{
			PlayerID: e.PlayerID,
			Name:     e.Name,
			Rank:     rank,
			Points:   PointsForRank(rank),
			Winnings: winnings.ForPlace(rank),
		}
		if rank == 1 {
			r.Winnings += rebuyPool
		}
		out = append(out, r)
	}
	return out
}
