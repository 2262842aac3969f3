package tournament

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/paytable"
	"github.com/ts4z/homegame/settle"
	"github.com/ts4z/homegame/state"
)

type fixture struct {
	ctx     context.Context
	clock   *clockwork.FakeClock
	storage *state.MemoryStorage
	m       *Manager
	t       *model.Tournament
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		ctx:     context.Background(),
		clock:   clockwork.NewFakeClockAt(startOfPlay),
		storage: state.NewMemoryStorage(),
	}
	f.m = NewManager(&Config{
		Storage:            f.storage,
		Paytables:          state.NewBuiltinPaytableStorage(),
		Clock:              f.clock,
		StrictConservation: true,
	})
	tm, err := f.m.CreateTournament(f.ctx, &TournamentSpec{
		Name:       "Friday",
		PaytableID: 1,
		Players:    []string{"Alice", "Bob", "Carol", "Dave"},
	})
	require.NoError(t, err)
	f.t = tm
	return f
}

func (f *fixture) id(name string) string {
	for _, p := range f.t.Players {
		if p.Name == name {
			return p.PlayerID
		}
	}
	panic("no player " + name)
}

func (f *fixture) newGame(t *testing.T, spec *GameSpec) int64 {
	g, err := f.m.CreateGame(f.ctx, f.t.TournamentID, spec)
	require.NoError(t, err)
	_, err = f.m.StartGame(f.ctx, f.t.TournamentID, g.GameID)
	require.NoError(t, err)
	return g.GameID
}

func (f *fixture) eliminate(t *testing.T, gameID int64, names ...string) {
	for _, name := range names {
		f.clock.Advance(time.Minute)
		_, err := f.m.Eliminate(f.ctx, f.t.TournamentID, gameID, f.id(name))
		require.NoError(t, err, name)
	}
}

func TestCreateTournament(t *testing.T) {
	f := newFixture(t)

	got, err := f.m.FetchTournament(f.ctx, f.t.TournamentID)
	require.NoError(t, err)
	assert.Equal(t, "Friday", got.Name)
	require.Len(t, got.Players, 4)
	assert.NotEmpty(t, got.Players[0].PlayerID)
	assert.NotEqual(t, got.Players[0].PlayerID, got.Players[1].PlayerID)
	assert.Equal(t, startOfPlay.UnixMilli(), got.CreatedAt)

	_, err = f.m.CreateTournament(f.ctx, &TournamentSpec{Name: "x", PaytableID: 99})
	assert.ErrorIs(t, err, state.ErrNotFound)

	_, err = f.m.CreateTournament(f.ctx, &TournamentSpec{Name: "x", PaytableID: 1, Players: []string{"Al", " al "}})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
}

func TestAddPlayer(t *testing.T) {
	f := newFixture(t)

	p, err := f.m.AddPlayer(f.ctx, f.t.TournamentID, "  Eve   Online ")
	require.NoError(t, err)
	assert.Equal(t, "Eve Online", p.Name)

	_, err = f.m.AddPlayer(f.ctx, f.t.TournamentID, "ALICE")
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
	assert.Equal(t, 409, he.CodeOf(err))

	_, err = f.m.AddPlayer(f.ctx, f.t.TournamentID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateGame(t *testing.T) {
	f := newFixture(t)

	g, err := f.m.CreateGame(f.ctx, f.t.TournamentID, &GameSpec{BuyIn: 20, RebuyAmount: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.GameID)
	assert.Equal(t, "Game 1", g.Name)
	assert.Equal(t, model.GamePending, g.Status)
	assert.Len(t, g.Entrants, 4)
	assert.Equal(t, model.AccountingTraditional, g.Accounting.Kind)
	require.NotNil(t, g.Clock.TimeRemainingMillis)
	assert.Equal(t, g.CurrentLevel().Duration().Milliseconds(), *g.Clock.TimeRemainingMillis)

	g2, err := f.m.CreateGame(f.ctx, f.t.TournamentID, &GameSpec{
		BuyIn:     10,
		PlayerIDs: []string{f.id("Bob"), f.id("Carol"), f.id("Bob")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), g2.GameID)
	require.Len(t, g2.Entrants, 2)
	assert.Equal(t, "Bob", g2.Entrants[0].Name)

	_, err = f.m.CreateGame(f.ctx, f.t.TournamentID, &GameSpec{BuyIn: 10, PlayerIDs: []string{"nobody"}})
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = f.m.CreateGame(f.ctx, f.t.TournamentID, &GameSpec{BuyIn: 10, Split: &paytable.Split{First: 90}})
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = f.m.CreateGame(f.ctx, f.t.TournamentID, &GameSpec{BuyIn: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGameLifecycle(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := f.newGame(t, &GameSpec{BuyIn: 20, RebuyAmount: 10})

	_, err := f.m.StartGame(f.ctx, tid, gameID)
	assert.ErrorIs(t, err, ErrWrongGameStatus)

	f.eliminate(t, gameID, "Dave")
	tm, err := f.m.Rebuy(f.ctx, tid, gameID, f.id("Dave"))
	require.NoError(t, err)
	dave := tm.Game(gameID).Entrant(f.id("Dave"))
	assert.False(t, dave.Eliminated)
	assert.Equal(t, 1, dave.Rebuys)

	f.eliminate(t, gameID, "Dave", "Carol")

	_, err = f.m.EndGame(f.ctx, tid, gameID)
	assert.ErrorIs(t, err, ErrPlayersRemain)

	f.eliminate(t, gameID, "Bob")

	_, err = f.m.Eliminate(f.ctx, tid, gameID, f.id("Alice"))
	assert.ErrorIs(t, err, ErrLastPlayer)
	_, err = f.m.Eliminate(f.ctx, tid, gameID, f.id("Bob"))
	assert.ErrorIs(t, err, ErrAlreadyEliminated)

	tm, err = f.m.EndGame(f.ctx, tid, gameID)
	require.NoError(t, err)
	g := tm.Game(gameID)
	assert.Equal(t, model.GameEnded, g.Status)
	assert.False(t, g.Clock.IsClockRunning)
	require.NotNil(t, g.EndedAt)

	// Four players on the home game paytable is winner-take-all, and the
	// winner keeps the rebuy too.
	assert.Equal(t, paytable.Prizes{First: 80}, g.Prizes)
	require.Len(t, g.Results, 4)
	assert.Equal(t, "Alice", g.Results[0].Name)
	assert.Equal(t, int64(90), g.Results[0].Winnings)
	assert.Equal(t, 10, g.Results[0].Points)
	assert.Equal(t, "Bob", g.Results[1].Name)
	assert.Equal(t, "Carol", g.Results[2].Name)
	assert.Equal(t, "Dave", g.Results[3].Name)
	assert.Equal(t, 4, g.Results[3].Rank)

	_, err = f.m.Eliminate(f.ctx, tid, gameID, f.id("Alice"))
	assert.ErrorIs(t, err, ErrWrongGameStatus)
}

func TestEndGameUsesGameSplit(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := f.newGame(t, &GameSpec{BuyIn: 25, Split: &paytable.Split{First: 50, Second: 30, Third: 20}})

	f.eliminate(t, gameID, "Dave", "Carol", "Bob")
	tm, err := f.m.EndGame(f.ctx, tid, gameID)
	require.NoError(t, err)

	g := tm.Game(gameID)
	assert.Equal(t, paytable.Prizes{First: 50, Second: 30, Third: 20}, g.Prizes)
	assert.Equal(t, int64(20), g.Results[2].Winnings)
	assert.Equal(t, "Carol", g.Results[2].Name)
}

func TestSameMillisecondEliminationsKeepOrder(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := f.newGame(t, &GameSpec{BuyIn: 20})

	for _, name := range []string{"Bob", "Alice", "Carol"} {
		_, err := f.m.Eliminate(f.ctx, tid, gameID, f.id(name))
		require.NoError(t, err)
	}
	tm, err := f.m.EndGame(f.ctx, tid, gameID)
	require.NoError(t, err)

	names := []string{}
	for _, r := range tm.Game(gameID).Results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Dave", "Carol", "Alice", "Bob"}, names)
}

func TestUndoElimination(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := f.newGame(t, &GameSpec{BuyIn: 20})

	f.eliminate(t, gameID, "Carol")
	tm, err := f.m.UndoElimination(f.ctx, tid, gameID, f.id("Carol"))
	require.NoError(t, err)
	carol := tm.Game(gameID).Entrant(f.id("Carol"))
	assert.False(t, carol.Eliminated)
	assert.Nil(t, carol.EliminationTime)

	_, err = f.m.UndoElimination(f.ctx, tid, gameID, f.id("Carol"))
	assert.ErrorIs(t, err, ErrNotEliminated)
}

func TestRebuyClosesAfterRebuyLevel(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := f.newGame(t, &GameSpec{
		BuyIn:       20,
		RebuyAmount: 20,
		Structure: &model.Structure{
			Levels: []*model.Level{
				{Description: "25-50", DurationMinutes: 20},
				{Description: "50-100", DurationMinutes: 20},
			},
			RebuyUntilLevel: 0,
		},
	})

	f.eliminate(t, gameID, "Bob")
	_, err := f.m.Rebuy(f.ctx, tid, gameID, f.id("Bob"))
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	_, err = f.m.Rebuy(f.ctx, tid, gameID, f.id("Bob"))
	assert.ErrorIs(t, err, ErrRebuyClosed)
	assert.Equal(t, 409, he.CodeOf(err))
}

func TestFetchCatchesUpClockWithoutSaving(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := f.newGame(t, &GameSpec{BuyIn: 20})

	f.clock.Advance(25 * time.Minute)
	tm, err := f.m.FetchTournament(f.ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, 1, tm.Game(gameID).Clock.CurrentLevelNumber)

	stored, err := f.storage.FetchTournament(f.ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Game(gameID).Clock.CurrentLevelNumber)
	assert.Equal(t, tm.Version, stored.Version)
}

func TestClockCommands(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := f.newGame(t, &GameSpec{BuyIn: 20})

	tm, err := f.m.Clock(f.ctx, tid, gameID, ClockStop, 0)
	require.NoError(t, err)
	assert.False(t, tm.Game(gameID).Clock.IsClockRunning)

	tm, err = f.m.Clock(f.ctx, tid, gameID, ClockAdvance, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, tm.Game(gameID).Clock.CurrentLevelNumber)

	tm, err = f.m.Clock(f.ctx, tid, gameID, ClockPlusTime, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, (21 * time.Minute).Milliseconds(), *tm.Game(gameID).Clock.TimeRemainingMillis)

	tm, err = f.m.Clock(f.ctx, tid, gameID, ClockPrevious, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, tm.Game(gameID).Clock.CurrentLevelNumber)

	tm, err = f.m.Clock(f.ctx, tid, gameID, ClockStart, 0)
	require.NoError(t, err)
	assert.True(t, tm.Game(gameID).Clock.IsClockRunning)

	_, err = f.m.Clock(f.ctx, tid, gameID, "rewind", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.m.Clock(f.ctx, tid, 99, ClockStart, 0)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSetPotContributions(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	g, err := f.m.CreateGame(f.ctx, tid, &GameSpec{BuyIn: 20})
	require.NoError(t, err)

	tm, err := f.m.SetPotContributions(f.ctx, tid, g.GameID, []model.PotContribution{
		{PlayerID: f.id("Alice"), Amount: 20},
		{PlayerID: f.id("Bob"), Amount: 0},
	})
	require.NoError(t, err)
	acct := tm.Game(g.GameID).Accounting
	assert.Equal(t, model.AccountingPotBased, acct.Kind)
	require.Len(t, acct.Contributions, 1)
	assert.Equal(t, "Alice", acct.Contributions[0].PlayerName)

	tm, err = f.m.SetPotContributions(f.ctx, tid, g.GameID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.AccountingTraditional, tm.Game(g.GameID).Accounting.Kind)

	_, err = f.m.SetPotContributions(f.ctx, tid, g.GameID, []model.PotContribution{{PlayerID: "nobody", Amount: 5}})
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = f.m.SetPotContributions(f.ctx, tid, g.GameID, []model.PotContribution{{PlayerID: f.id("Alice"), Amount: -5}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.m.SetPotContributions(f.ctx, tid, g.GameID, []model.PotContribution{
		{PlayerID: f.id("Alice"), Amount: 20},
		{PlayerID: f.id("Bob"), Amount: 20},
		{PlayerID: f.id("Alice"), Amount: 20},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 400, he.CodeOf(err))

	// The rejected write left the earlier contributions alone.
	tm, err = f.m.FetchTournament(f.ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, model.AccountingTraditional, tm.Game(g.GameID).Accounting.Kind)
}

func playOut(t *testing.T, f *fixture) int64 {
	gameID := f.newGame(t, &GameSpec{BuyIn: 20, RebuyAmount: 10})
	f.eliminate(t, gameID, "Dave")
	_, err := f.m.Rebuy(f.ctx, f.t.TournamentID, gameID, f.id("Dave"))
	require.NoError(t, err)
	f.eliminate(t, gameID, "Dave", "Carol", "Bob")
	return gameID
}

func TestSettleTraditional(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := playOut(t, f)
	_, err := f.m.EndGame(f.ctx, tid, gameID)
	require.NoError(t, err)

	s, err := f.m.Settle(f.ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, model.AccountingTraditional, s.Mode)
	assert.Equal(t, []int64{gameID}, s.GameIDs)
	require.Len(t, s.Transactions, 3)

	assert.Equal(t, "Dave", s.Transactions[0].FromName)
	assert.Equal(t, 30.0, s.Transactions[0].Amount)
	assert.Equal(t, "Bob", s.Transactions[1].FromName)
	assert.Equal(t, "Carol", s.Transactions[2].FromName)
	for _, tx := range s.Transactions {
		assert.Equal(t, "Alice", tx.ToName)
		assert.Equal(t, settle.KindPlayerDebt, tx.Kind)
	}

	s, err = f.m.MarkTransaction(f.ctx, tid, 1, true)
	require.NoError(t, err)
	assert.False(t, s.Transactions[0].Completed)
	assert.True(t, s.Transactions[1].Completed)
	assert.False(t, s.Transactions[2].Completed)
	assert.Equal(t, 50.0, s.Outstanding())

	_, err = f.m.MarkTransaction(f.ctx, tid, 3, true)
	assert.ErrorIs(t, err, ErrNoSuchTransaction)

	// Recomputing replaces the list wholesale.
	s, err = f.m.Settle(f.ctx, tid)
	require.NoError(t, err)
	assert.False(t, s.Transactions[1].Completed)

	standings, err := f.m.Standings(f.ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, "Alice", standings[0].Name)
	assert.Equal(t, 70.0, standings[0].Net)

	l, err := f.m.Ledger(f.ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, -30.0, l.Balance(f.id("Dave")))
}

func TestSettlePotBased(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := playOut(t, f)

	contributions := []model.PotContribution{}
	for _, name := range []string{"Alice", "Bob", "Carol", "Dave"} {
		contributions = append(contributions, model.PotContribution{PlayerID: f.id(name), Amount: 20})
	}
	_, err := f.m.SetPotContributions(f.ctx, tid, gameID, contributions)
	require.NoError(t, err)
	_, err = f.m.EndGame(f.ctx, tid, gameID)
	require.NoError(t, err)

	s, err := f.m.Settle(f.ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, model.AccountingPotBased, s.Mode)
	assert.Equal(t, 80.0, s.TotalPot)
	require.Len(t, s.Transactions, 2)
	assert.Equal(t, settle.Transaction{
		FromID: settle.PotID, FromName: settle.PotName,
		ToID: f.id("Alice"), ToName: "Alice",
		Amount: 80, Kind: settle.KindPotWithdrawal,
	}, s.Transactions[0])
	assert.Equal(t, "Dave", s.Transactions[1].FromName)
	assert.Equal(t, 10.0, s.Transactions[1].Amount)
}

func TestSettleRefusesShortPot(t *testing.T) {
	f := newFixture(t)
	tid := f.t.TournamentID
	gameID := playOut(t, f)

	_, err := f.m.SetPotContributions(f.ctx, tid, gameID, []model.PotContribution{
		{PlayerID: f.id("Alice"), Amount: 15},
	})
	require.NoError(t, err)
	_, err = f.m.EndGame(f.ctx, tid, gameID)
	require.NoError(t, err)

	_, err = f.m.Settle(f.ctx, tid)
	assert.ErrorIs(t, err, settle.ErrUnbalanced)

	stored, err := f.storage.FetchTournament(f.ctx, tid)
	require.NoError(t, err)
	assert.Nil(t, stored.Settlement)
}

func TestMarkTransactionBeforeSettle(t *testing.T) {
	f := newFixture(t)
	_, err := f.m.MarkTransaction(f.ctx, f.t.TournamentID, 0, true)
	assert.ErrorIs(t, err, ErrNoSettlement)
}
