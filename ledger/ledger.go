// Package ledger turns finished games into per-player balances and runs
// settlement over them.
package ledger

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/metrics"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/settle"
)

// Ledger is the money position of every player across a tournament's
// ended games.  Positive balances are owed money.
type Ledger struct {
	Mode     model.AccountingKind
	Balances []settle.Balance
	TotalPot float64
	GameIDs  []int64
}

type account struct {
	name  string
	cents int64
}

// Compute builds the ledger for t.  Players appear in registration order,
// followed by any entrant who isn't registered, in order of first game.
//
// A player who paid into a game's pot owes only their rebuys for that game;
// everybody else owes the buy-in and rebuys.  Winnings are credited either
// way.
func Compute(t *model.Tournament) *Ledger {
	l := &Ledger{Mode: model.AccountingTraditional}

	order := []string{}
	accounts := map[string]*account{}
	get := func(id, name string) *account {
		if a, ok := accounts[id]; ok {
			return a
		}
		a := &account{name: name}
		accounts[id] = a
		order = append(order, id)
		return a
	}
	for _, p := range t.Players {
		get(p.PlayerID, p.Name)
	}

	var potCents int64
	for _, g := range t.EndedGames() {
		l.GameIDs = append(l.GameIDs, g.GameID)
		if g.Accounting.IsPotBased() {
			l.Mode = model.AccountingPotBased
			potCents += dollarsToCents(g.Accounting.PotTotal())
		}
		for _, e := range g.Entrants {
			a := get(e.PlayerID, e.Name)
			if !g.Accounting.Contributed(e.PlayerID) {
				a.cents -= g.BuyIn * 100
			}
			a.cents -= g.RebuyAmount * int64(e.Rebuys) * 100
		}
		for _, r := range g.Results {
			get(r.PlayerID, r.Name).cents += r.Winnings * 100
		}
	}

	l.TotalPot = centsToDollars(potCents)
	l.Balances = make([]settle.Balance, 0, len(order))
	for _, id := range order {
		a := accounts[id]
		l.Balances = append(l.Balances, settle.Balance{ID: id, Name: a.name, Balance: centsToDollars(a.cents)})
	}
	return l
}

func dollarsToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

func centsToDollars(c int64) float64 {
	return settle.RoundToTwo(float64(c) / 100)
}

// Balance returns the balance for playerID, or zero.
func (l *Ledger) Balance(playerID string) float64 {
	for _, b := range l.Balances {
		if b.ID == playerID {
			return b.Balance
		}
	}
	return 0
}

// Check verifies the balances account for exactly the pot.
func (l *Ledger) Check() error {
	return settle.CheckConservation(l.Balances, l.TotalPot)
}

// Transactions runs the settlement algorithm that fits the mode.
func (l *Ledger) Transactions() []settle.Transaction {
	if l.Mode == model.AccountingPotBased {
		return settle.SettleWithPot(l.Balances, l.TotalPot)
	}
	return settle.Settle(l.Balances)
}

// Settle computes a fresh settlement for t.  With strict set, a ledger that
// doesn't net to the pot is refused rather than settled around.
func Settle(t *model.Tournament, strict bool, now time.Time) (*model.Settlement, error) {
	l := Compute(t)
	if err := l.Check(); err != nil {
		if strict {
			metrics.ConservationFailures.Inc()
			return nil, he.New(422, fmt.Errorf("tournament %d: %w", t.TournamentID, err))
		}
		log.Printf("warning: tournament %d: %v; settling anyway", t.TournamentID, err)
	}

	txs := l.Transactions()
	metrics.SettlementsComputed.WithLabelValues(string(l.Mode)).Inc()
	for _, tx := range txs {
		metrics.SettlementTransactions.WithLabelValues(string(tx.Kind)).Inc()
		metrics.SettlementAmount.WithLabelValues(string(tx.Kind)).Add(tx.Amount)
	}

	gameIDs := l.GameIDs
	if gameIDs == nil {
		gameIDs = []int64{}
	}
	return &model.Settlement{
		Mode:         l.Mode,
		TotalPot:     l.TotalPot,
		GameIDs:      gameIDs,
		Transactions: txs,
		ComputedAt:   now.UnixMilli(),
	}, nil
}
