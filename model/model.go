package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ts4z/homegame/paytable"
	"github.com/ts4z/homegame/results"
	"github.com/ts4z/homegame/settle"
)

// Clock gets the current time.  clockwork.Clock implements this.
type Clock interface {
	Now() time.Time
}

// NewPlayerID mints an opaque player identifier.
func NewPlayerID() string {
	return uuid.NewString()
}

// Player is somebody registered for a tournament.
type Player struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type GameStatus string

const (
	GamePending    GameStatus = "pending"
	GameInProgress GameStatus = "in_progress"
	GameEnded      GameStatus = "ended"
)

// Entrant is a player's seat in one game.
type Entrant struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Eliminated bool   `json:"eliminated"`
	// EliminationTime is when the player busted, in Unix millis.
	EliminationTime *int64 `json:"elimination_time,omitempty"`
	Rebuys          int    `json:"rebuys"`
}

// ClockState is the blind clock of a running game.
type ClockState struct {
	IsClockRunning     bool `json:"is_clock_running"`
	CurrentLevelNumber int  `json:"current_level_number"`

	// CurrentLevelEndsAt indicates when the level ends iff the clock is
	// running.  This is in Unix millis.
	CurrentLevelEndsAt *int64 `json:"current_level_ends_at,omitempty"`
	// TimeRemainingMillis indicates time remaining iff the clock is not
	// running (that is, paused).
	TimeRemainingMillis *int64 `json:"time_remaining_millis,omitempty"`
}

// Game is one game within a tournament night.
type Game struct {
	GameID int64      `json:"game_id"`
	Name   string     `json:"name"`
	Status GameStatus `json:"status"`

	BuyIn       int64 `json:"buy_in"`
	RebuyAmount int64 `json:"rebuy_amount"`
	// Split overrides the tournament paytable when set.
	Split *paytable.Split `json:"split,omitempty"`

	Structure *Structure `json:"structure"`
	Clock     ClockState `json:"clock"`

	Entrants   []*Entrant `json:"entrants"`
	Accounting Accounting `json:"accounting"`

	// Filled in when the game ends.
	Prizes  paytable.Prizes        `json:"prizes"`
	Results []results.PlayerResult `json:"results,omitempty"`

	StartedAt *int64 `json:"started_at,omitempty"`
	EndedAt   *int64 `json:"ended_at,omitempty"`
}

func (g *Game) Entrant(playerID string) *Entrant {
	for _, e := range g.Entrants {
		if e.PlayerID == playerID {
			return e
		}
	}
	return nil
}

// PrizePool is the buy-in money, which the paytable splits.
func (g *Game) PrizePool() int64 {
	return g.BuyIn * int64(len(g.Entrants))
}

func (g *Game) TotalRebuys() int {
	n := 0
	for _, e := range g.Entrants {
		n += e.Rebuys
	}
	return n
}

// RebuyPool is the rebuy money, all of which goes to the winner.
func (g *Game) RebuyPool() int64 {
	return g.RebuyAmount * int64(g.TotalRebuys())
}

// Remaining counts entrants who haven't busted.
func (g *Game) Remaining() int {
	n := 0
	for _, e := range g.Entrants {
		if !e.Eliminated {
			n++
		}
	}
	return n
}

// CurrentLevel returns the current level, clamped to the structure, or nil
// if there are no levels at all.
func (g *Game) CurrentLevel() *Level {
	if g.Structure == nil || len(g.Structure.Levels) == 0 {
		return nil
	}
	lvl := g.Clock.CurrentLevelNumber
	if lvl < 0 {
		lvl = 0
	} else if lvl >= len(g.Structure.Levels) {
		lvl = len(g.Structure.Levels) - 1
	}
	return g.Structure.Levels[lvl]
}

func (g *Game) CurrentLevelEndsAtAsTime() time.Time {
	if g.Clock.CurrentLevelEndsAt == nil {
		panic("can't get CurrentLevelEndsAtAsTime: CurrentLevelEndsAt is nil")
	}
	return time.UnixMilli(*g.Clock.CurrentLevelEndsAt)
}

func (g *Game) CurrentLevelDuration() *time.Duration {
	if g.CurrentLevel() == nil {
		return nil
	}
	d := g.CurrentLevel().Duration()
	return &d
}

// Settlement is the list of payments that square up a tournament.  It is
// replaced wholesale when recomputed; only Completed on each transaction
// changes in between.
type Settlement struct {
	Mode         AccountingKind       `json:"mode"`
	TotalPot     float64              `json:"total_pot"`
	GameIDs      []int64              `json:"game_ids"`
	Transactions []settle.Transaction `json:"transactions"`
	ComputedAt   int64                `json:"computed_at"`
}

// Outstanding totals the transactions nobody has marked paid yet.
func (s *Settlement) Outstanding() float64 {
	var open []settle.Transaction
	for _, tx := range s.Transactions {
		if !tx.Completed {
			open = append(open, tx)
		}
	}
	return settle.Total(open)
}

// Tournament is the aggregate we store: a night (or league) of games among
// a set of registered players.
type Tournament struct {
	// These come from the database row, not the JSON.
	TournamentID int64 `json:"tournament_id"`
	Version      int64 `json:"version"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PaytableID  int64  `json:"paytable_id"`

	Players    []*Player   `json:"players"`
	Games      []*Game     `json:"games"`
	Settlement *Settlement `json:"settlement,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

func (t *Tournament) Player(playerID string) *Player {
	for _, p := range t.Players {
		if p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

func (t *Tournament) Game(gameID int64) *Game {
	for _, g := range t.Games {
		if g.GameID == gameID {
			return g
		}
	}
	return nil
}

func (t *Tournament) NextGameID() int64 {
	next := int64(1)
	for _, g := range t.Games {
		if g.GameID >= next {
			next = g.GameID + 1
		}
	}
	return next
}

// EndedGames returns the games that have results, in game order.
func (t *Tournament) EndedGames() []*Game {
	var out []*Game
	for _, g := range t.Games {
		if g.Status == GameEnded {
			out = append(out, g)
		}
	}
	return out
}

// Clone returns a deep copy, so storage can hand out tournaments without
// callers scribbling on each other.
func (t *Tournament) Clone() *Tournament {
	bytes, err := json.Marshal(t)
	if err != nil {
		panic("can't happen: tournament doesn't marshal: " + err.Error())
	}
	cpy := &Tournament{}
	if err := json.Unmarshal(bytes, cpy); err != nil {
		panic("can't happen: tournament doesn't unmarshal: " + err.Error())
	}
	return cpy
}

// TournamentSlug describes a single tournament for rendering the list.
type TournamentSlug struct {
	TournamentID int64  `json:"tournament_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Players      int    `json:"players"`
	Games        int    `json:"games"`
}

func (t *Tournament) Slug() TournamentSlug {
	return TournamentSlug{
		TournamentID: t.TournamentID,
		Name:         t.Name,
		Description:  t.Description,
		Players:      len(t.Players),
		Games:        len(t.Games),
	}
}

// Overview describes the available tournaments.
type Overview struct {
	Slugs []TournamentSlug `json:"slugs"`
}
