package tournament

import (
	"context"
	"fmt"
	"time"

	"github.com/ts4z/homegame/defaults"
	"github.com/ts4z/homegame/dep"
	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/ledger"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/paytable"
	"github.com/ts4z/homegame/state"
	"github.com/ts4z/homegame/textutil"
)

// Config holds the dependencies of a Manager.
type Config struct {
	Storage            state.TournamentStorage
	Paytables          state.PaytableStorage
	Clock              Clock
	MutateRetries      int
	StrictConservation bool
}

// Manager runs tournament operations against storage.
type Manager struct {
	storage   state.TournamentStorage
	paytables state.PaytableStorage
	clock     Clock
	mutator   *Mutator
	retries   int
	strict    bool
}

func NewManager(config *Config) *Manager {
	clock := dep.Required(config.Clock)
	retries := config.MutateRetries
	if retries <= 0 {
		retries = state.DefaultMutateRetries
	}
	return &Manager{
		storage:   dep.Required(config.Storage),
		paytables: dep.Required(config.Paytables),
		clock:     clock,
		mutator:   NewMutator(clock),
		retries:   retries,
		strict:    config.StrictConservation,
	}
}

func (m *Manager) Mutator() *Mutator {
	return m.mutator
}

// TournamentSpec describes a new tournament.
type TournamentSpec struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=1000"`
	PaytableID  int64    `json:"paytable_id" validate:"gte=0"`
	Players     []string `json:"players" validate:"dive,required,max=60"`
}

// GameSpec describes a new game.  With no PlayerIDs, every registered
// player is entered.  With no Structure, the default structure is used.
type GameSpec struct {
	Name        string           `json:"name" validate:"max=100"`
	BuyIn       int64            `json:"buy_in" validate:"gt=0"`
	RebuyAmount int64            `json:"rebuy_amount" validate:"gte=0"`
	Split       *paytable.Split  `json:"split,omitempty"`
	Structure   *model.Structure `json:"structure,omitempty"`
	PlayerIDs   []string         `json:"player_ids,omitempty"`
}

func (m *Manager) mutate(ctx context.Context, id int64, f func(*model.Tournament) error) (*model.Tournament, error) {
	return state.Mutate(ctx, m.storage, id, m.retries, f)
}

func (m *Manager) mutateGame(ctx context.Context, id, gameID int64, f func(*model.Game) error) (*model.Tournament, error) {
	return m.mutate(ctx, id, func(t *model.Tournament) error {
		g := t.Game(gameID)
		if g == nil {
			return he.New(404, fmt.Errorf("game %d in tournament %d: %w", gameID, id, ErrGameNotFound))
		}
		return f(g)
	})
}

// FetchTournament returns a private copy of the tournament with every
// running clock brought up to date.  Nothing is written back.
func (m *Manager) FetchTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	t, err := m.storage.FetchTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	t = t.Clone()
	for _, g := range t.Games {
		if g.Status == model.GameInProgress {
			m.mutator.CatchUp(g)
		}
	}
	return t, nil
}

func (m *Manager) FetchOverview(ctx context.Context, offset, limit int) (*model.Overview, error) {
	return m.storage.FetchOverview(ctx, offset, limit)
}

func (m *Manager) DeleteTournament(ctx context.Context, id int64) error {
	return m.storage.DeleteTournament(ctx, id)
}

func addPlayer(t *model.Tournament, name string) (*model.Player, error) {
	name = textutil.CleanName(name)
	if name == "" {
		return nil, he.New(400, fmt.Errorf("player name is empty: %w", ErrInvalidInput))
	}
	for _, p := range t.Players {
		if textutil.SameName(p.Name, name) {
			return nil, he.New(409, fmt.Errorf("%q: %w", name, ErrDuplicatePlayer))
		}
	}
	p := &model.Player{PlayerID: model.NewPlayerID(), Name: name}
	t.Players = append(t.Players, p)
	return p, nil
}

// CreateTournament registers a new tournament and its players.
func (m *Manager) CreateTournament(ctx context.Context, spec *TournamentSpec) (*model.Tournament, error) {
	if _, err := m.paytables.FetchPaytableByID(ctx, spec.PaytableID); err != nil {
		return nil, err
	}
	t := &model.Tournament{
		Name:        spec.Name,
		Description: spec.Description,
		PaytableID:  spec.PaytableID,
		Players:     []*model.Player{},
		Games:       []*model.Game{},
		CreatedAt:   m.clock.Now().UnixMilli(),
	}
	for _, name := range spec.Players {
		if _, err := addPlayer(t, name); err != nil {
			return nil, err
		}
	}
	if _, err := m.storage.CreateTournament(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddPlayer registers a player.  Names must be unique ignoring case.
func (m *Manager) AddPlayer(ctx context.Context, id int64, name string) (*model.Player, error) {
	var added *model.Player
	_, err := m.mutate(ctx, id, func(t *model.Tournament) error {
		p, err := addPlayer(t, name)
		added = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// CreateGame adds a pending game.
func (m *Manager) CreateGame(ctx context.Context, id int64, spec *GameSpec) (*model.Game, error) {
	if spec.Split != nil && !spec.Split.Valid() {
		return nil, he.New(400, fmt.Errorf("%v: %w", *spec.Split, ErrInvalidSplit))
	}
	if spec.BuyIn <= 0 || spec.RebuyAmount < 0 {
		return nil, he.New(400, fmt.Errorf("buy-in must be positive and rebuy non-negative: %w", ErrInvalidInput))
	}

	var created *model.Game
	_, err := m.mutate(ctx, id, func(t *model.Tournament) error {
		playerIDs := spec.PlayerIDs
		if len(playerIDs) == 0 {
			for _, p := range t.Players {
				playerIDs = append(playerIDs, p.PlayerID)
			}
		}

		entrants := []*model.Entrant{}
		seen := map[string]bool{}
		for _, pid := range playerIDs {
			p := t.Player(pid)
			if p == nil {
				return he.New(404, fmt.Errorf("player %q: %w", pid, ErrPlayerNotFound))
			}
			if seen[pid] {
				continue
			}
			seen[pid] = true
			entrants = append(entrants, &model.Entrant{PlayerID: p.PlayerID, Name: p.Name})
		}

		structure := spec.Structure
		if structure == nil || len(structure.Levels) == 0 {
			structure = defaults.Structure()
		}

		gameID := t.NextGameID()
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("Game %d", gameID)
		}

		g := &model.Game{
			GameID:      gameID,
			Name:        name,
			Status:      model.GamePending,
			BuyIn:       spec.BuyIn,
			RebuyAmount: spec.RebuyAmount,
			Split:       spec.Split,
			Structure:   structure,
			Entrants:    entrants,
			Accounting:  model.Traditional(),
		}
		m.mutator.restartLevel(g)
		t.Games = append(t.Games, g)
		created = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (m *Manager) StartGame(ctx context.Context, id, gameID int64) (*model.Tournament, error) {
	return m.mutateGame(ctx, id, gameID, m.mutator.StartGame)
}

func (m *Manager) Eliminate(ctx context.Context, id, gameID int64, playerID string) (*model.Tournament, error) {
	return m.mutateGame(ctx, id, gameID, func(g *model.Game) error {
		return m.mutator.Eliminate(g, playerID)
	})
}

func (m *Manager) UndoElimination(ctx context.Context, id, gameID int64, playerID string) (*model.Tournament, error) {
	return m.mutateGame(ctx, id, gameID, func(g *model.Game) error {
		return m.mutator.UndoElimination(g, playerID)
	})
}

func (m *Manager) Rebuy(ctx context.Context, id, gameID int64, playerID string) (*model.Tournament, error) {
	return m.mutateGame(ctx, id, gameID, func(g *model.Game) error {
		return m.mutator.Rebuy(g, playerID)
	})
}

// EndGame pays out and ranks a game, using the tournament's paytable
// unless the game carries its own split.
func (m *Manager) EndGame(ctx context.Context, id, gameID int64) (*model.Tournament, error) {
	return m.mutate(ctx, id, func(t *model.Tournament) error {
		g := t.Game(gameID)
		if g == nil {
			return he.New(404, fmt.Errorf("game %d in tournament %d: %w", gameID, id, ErrGameNotFound))
		}
		var pt *paytable.Paytable
		if g.Split == nil {
			var err error
			if pt, err = m.paytables.FetchPaytableByID(ctx, t.PaytableID); err != nil {
				return err
			}
		}
		return m.mutator.EndGame(g, pt)
	})
}

// ClockCommand names the things you can do to a game's blind clock.
type ClockCommand string

const (
	ClockStart    ClockCommand = "start"
	ClockStop     ClockCommand = "stop"
	ClockAdvance  ClockCommand = "advance"
	ClockPrevious ClockCommand = "previous"
	ClockPlusTime ClockCommand = "plus"
)

// Clock runs a clock command on a game in progress.  d is only used by
// ClockPlusTime.
func (m *Manager) Clock(ctx context.Context, id, gameID int64, cmd ClockCommand, d time.Duration) (*model.Tournament, error) {
	return m.mutateGame(ctx, id, gameID, func(g *model.Game) error {
		if err := requireStatus(g, model.GameInProgress); err != nil {
			return err
		}
		switch cmd {
		case ClockStart:
			return m.mutator.StartClock(g)
		case ClockStop:
			return m.mutator.StopClock(g)
		case ClockAdvance:
			return m.mutator.AdvanceLevel(g)
		case ClockPrevious:
			return m.mutator.PreviousLevel(g)
		case ClockPlusTime:
			return m.mutator.PlusTime(g, d)
		}
		return he.New(400, fmt.Errorf("clock command %q: %w", cmd, ErrInvalidInput))
	})
}

// SetPotContributions records who paid into a game's pot, replacing what
// was there.  The accounting mode is decided here, once.  Each player may
// appear at most once.
func (m *Manager) SetPotContributions(ctx context.Context, id, gameID int64, contributions []model.PotContribution) (*model.Tournament, error) {
	return m.mutateGame(ctx, id, gameID, func(g *model.Game) error {
		filled := make([]model.PotContribution, 0, len(contributions))
		seen := map[string]bool{}
		for _, c := range contributions {
			e := g.Entrant(c.PlayerID)
			if e == nil {
				return he.New(404, fmt.Errorf("contribution from %q: %w", c.PlayerID, ErrPlayerNotFound))
			}
			if seen[c.PlayerID] {
				return he.New(400, fmt.Errorf("%s contributes more than once: %w", e.Name, ErrInvalidInput))
			}
			seen[c.PlayerID] = true
			if c.Amount < 0 {
				return he.New(400, fmt.Errorf("contribution from %s is negative: %w", e.Name, ErrInvalidInput))
			}
			c.PlayerName = e.Name
			filled = append(filled, c)
		}
		g.Accounting = model.ResolveAccounting(filled)
		return nil
	})
}

// Settle recomputes the tournament's settlement from its ended games,
// replacing any previous one.
func (m *Manager) Settle(ctx context.Context, id int64) (*model.Settlement, error) {
	t, err := m.mutate(ctx, id, func(t *model.Tournament) error {
		s, err := ledger.Settle(t, m.strict, m.clock.Now())
		if err != nil {
			return err
		}
		t.Settlement = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.Settlement, nil
}

// MarkTransaction flips the completed flag on one settlement transaction.
// Nothing else about the settlement changes.
func (m *Manager) MarkTransaction(ctx context.Context, id int64, index int, completed bool) (*model.Settlement, error) {
	t, err := m.mutate(ctx, id, func(t *model.Tournament) error {
		if t.Settlement == nil {
			return he.New(404, fmt.Errorf("tournament %d: %w", id, ErrNoSettlement))
		}
		if index < 0 || index >= len(t.Settlement.Transactions) {
			return he.New(404, fmt.Errorf("transaction %d of %d: %w", index, len(t.Settlement.Transactions), ErrNoSuchTransaction))
		}
		t.Settlement.Transactions[index].Completed = completed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.Settlement, nil
}

func (m *Manager) Ledger(ctx context.Context, id int64) (*ledger.Ledger, error) {
	t, err := m.storage.FetchTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.Compute(t), nil
}

func (m *Manager) Standings(ctx context.Context, id int64) ([]ledger.Standing, error) {
	t, err := m.storage.FetchTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.Standings(t), nil
}
