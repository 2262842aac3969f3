// package tournament provides game and tournament mutation logic
// independent of storage.
//
// The Mutator works on a single game in memory and needs only a clock.
// The Manager wraps it with storage: every change is a read-modify-write
// of the whole tournament under an optimistic lock, so two people
// hitting buttons at the same table serialize instead of clobbering each
// other.

package tournament

import (
	"fmt"
	"log"
	"time"

	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/metrics"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/paytable"
	"github.com/ts4z/homegame/results"
)

// Clock gets the current time.  clockwork.Clock implements this.
type Clock interface {
	Now() time.Time
}

type Mutator struct {
	clock Clock
}

func NewMutator(clock Clock) *Mutator {
	return &Mutator{clock: clock}
}

func (tm *Mutator) nowMillis() int64 {
	return tm.clock.Now().UnixMilli()
}

func requireStatus(g *model.Game, want model.GameStatus) error {
	if g.Status != want {
		return he.New(409, fmt.Errorf("game %d is %s, want %s: %w", g.GameID, g.Status, want, ErrWrongGameStatus))
	}
	return nil
}

func findEntrant(g *model.Game, playerID string) (*model.Entrant, error) {
	e := g.Entrant(playerID)
	if e == nil {
		return nil, he.New(404, fmt.Errorf("player %q in game %d: %w", playerID, g.GameID, ErrPlayerNotFound))
	}
	return e, nil
}

// StartGame moves a pending game to in progress and starts the clock.
func (tm *Mutator) StartGame(g *model.Game) error {
	if err := requireStatus(g, model.GamePending); err != nil {
		return err
	}
	if len(g.Entrants) < 2 {
		return he.New(409, ErrTooFewPlayers)
	}
	now := tm.nowMillis()
	g.Status = model.GameInProgress
	g.StartedAt = &now
	if g.CurrentLevel() == nil {
		log.Printf("debug: game %d has no levels, not starting clock", g.GameID)
		return nil
	}
	return tm.StartClock(g)
}

// Eliminate records that playerID busted now.  Elimination times strictly
// increase within a game, so the busting order survives even when two
// players are knocked out in the same millisecond.
func (tm *Mutator) Eliminate(g *model.Game, playerID string) error {
	if err := requireStatus(g, model.GameInProgress); err != nil {
		return err
	}
	e, err := findEntrant(g, playerID)
	if err != nil {
		return err
	}
	if e.Eliminated {
		return he.New(409, fmt.Errorf("%s: %w", e.Name, ErrAlreadyEliminated))
	}
	if g.Remaining() <= 1 {
		return he.New(409, ErrLastPlayer)
	}

	at := tm.nowMillis()
	for _, other := range g.Entrants {
		if other.EliminationTime != nil && *other.EliminationTime >= at {
			at = *other.EliminationTime + 1
		}
	}
	e.Eliminated = true
	e.EliminationTime = &at
	return nil
}

// UndoElimination puts playerID back in the game.
func (tm *Mutator) UndoElimination(g *model.Game, playerID string) error {
	if err := requireStatus(g, model.GameInProgress); err != nil {
		return err
	}
	e, err := findEntrant(g, playerID)
	if err != nil {
		return err
	}
	if !e.Eliminated {
		return he.New(409, fmt.Errorf("%s: %w", e.Name, ErrNotEliminated))
	}
	e.Eliminated = false
	e.EliminationTime = nil
	return nil
}

// Rebuy charges playerID another rebuy and, if they had busted, puts them
// back in.  Rebuys are only allowed through the structure's last rebuy
// level.
func (tm *Mutator) Rebuy(g *model.Game, playerID string) error {
	if err := requireStatus(g, model.GameInProgress); err != nil {
		return err
	}
	e, err := findEntrant(g, playerID)
	if err != nil {
		return err
	}

	tm.adjustStateForElapsedTime(g)
	level := g.Clock.CurrentLevelNumber
	if g.Structure == nil || !g.Structure.RebuysOpen(level) {
		return he.New(409, fmt.Errorf("level %d: %w", level+1, ErrRebuyClosed))
	}

	e.Rebuys++
	e.Eliminated = false
	e.EliminationTime = nil
	return nil
}

// SplitFor picks the split for g: its own if it has one, otherwise the
// paytable row for its number of entrants.
func SplitFor(g *model.Game, pt *paytable.Paytable) (paytable.Split, int64, error) {
	if g.Split != nil {
		if !g.Split.Valid() {
			return paytable.Split{}, 0, he.New(400, fmt.Errorf("%v: %w", *g.Split, ErrInvalidSplit))
		}
		return *g.Split, paytable.DefaultIncrement, nil
	}
	if pt == nil {
		return paytable.Split{}, 0, he.HTTPCodedErrorf(500, "game %d has no split and no paytable", g.GameID)
	}
	split, err := pt.SplitFor(len(g.Entrants))
	if err != nil {
		return paytable.Split{}, 0, he.New(409, err)
	}
	return split, pt.Increment, nil
}

// EndGame finishes a game with at most one player left: it pays out the
// prize pool, gives the rebuy pool to the winner and ranks everybody.
func (tm *Mutator) EndGame(g *model.Game, pt *paytable.Paytable) error {
	if err := requireStatus(g, model.GameInProgress); err != nil {
		return err
	}
	if g.Remaining() > 1 {
		return he.New(409, fmt.Errorf("%d left: %w", g.Remaining(), ErrPlayersRemain))
	}

	split, increment, err := SplitFor(g, pt)
	if err != nil {
		return err
	}
	prizes := paytable.DistributeWithIncrement(g.PrizePool(), split, increment).Collapse(len(g.Entrants))

	entrants := make([]results.Entrant, 0, len(g.Entrants))
	for _, e := range g.Entrants {
		entrants = append(entrants, results.Entrant{
			PlayerID:        e.PlayerID,
			Name:            e.Name,
			Eliminated:      e.Eliminated,
			EliminationTime: e.EliminationTime,
		})
	}

	if g.Clock.IsClockRunning {
		if err := tm.StopClock(g); err != nil {
			return err
		}
	}

	now := tm.nowMillis()
	g.Prizes = prizes
	g.Results = results.Rank(entrants, prizes, g.RebuyPool())
	g.Status = model.GameEnded
	g.EndedAt = &now
	metrics.GamesEnded.Inc()
	log.Printf("game %d ended: %s", g.GameID, split)
	return nil
}
