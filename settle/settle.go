// Package settle reduces a table of net balances to a short list of
// payments that zeroes everybody out.
//
// Everything here is a pure function of its arguments.  Same balances in,
// same transactions out, in the same order, every time; callers persist
// the list and only ever flip Completed afterwards.
package settle

import (
	"math"
)

// Epsilon is the tolerance, in currency units, below which a balance is
// considered settled.
const Epsilon = 0.01

// epsilonCents is Epsilon expressed in cents.  Internally all arithmetic is
// done in whole cents so that repeated runs can't drift.
const epsilonCents = 1

// PotID and PotName identify the shared pot as the payer of a withdrawal.
const (
	PotID   = "POT"
	PotName = "Pot"
)

// Kind says where the money for a transaction comes from.
type Kind string

const (
	KindPotWithdrawal Kind = "pot_withdrawal"
	KindPlayerDebt    Kind = "player_debt"
)

// Balance is one player's net position: negative owes, positive is owed.
type Balance struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Transaction is a single payment needed to settle up.
type Transaction struct {
	FromID    string  `json:"from_id"`
	FromName  string  `json:"from_name"`
	ToID      string  `json:"to_id"`
	ToName    string  `json:"to_name"`
	Amount    float64 `json:"amount"`
	Completed bool    `json:"completed"`
	Kind      Kind    `json:"kind"`
}

type party struct {
	id    string
	name  string
	cents int64
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

// RoundToTwo rounds to whole cents.
func RoundToTwo(v float64) float64 {
	return fromCents(toCents(v))
}

// partition splits balances into debtors and creditors, in input order.
// Anybody within Epsilon of zero is left out.
func partition(balances []Balance) (debtors, creditors []*party) {
	for _, b := range balances {
		p := &party{id: b.ID, name: b.Name, cents: toCents(b.Balance)}
		switch {
		case p.cents < -epsilonCents:
			debtors = append(debtors, p)
		case p.cents > epsilonCents:
			creditors = append(creditors, p)
		}
	}
	return debtors, creditors
}

// largest returns the party with the biggest position in the given
// direction that is still beyond Epsilon.  The earliest one wins ties.
func largest(parties []*party, sign int64) *party {
	var best *party
	for _, p := range parties {
		amount := p.cents * sign
		if amount <= epsilonCents {
			continue
		}
		if best == nil || amount > best.cents*sign {
			best = p
		}
	}
	return best
}

// Settle matches the biggest debtor with the biggest creditor, over and
// over, until one side runs out.
//
// This is the usual greedy heuristic.  It doesn't always find the fewest
// possible payments, but the result is small, easy to check by hand, and
// deterministic.  If the balances don't sum to zero, whatever is left over
// on the heavier side stays unsettled; see CheckConservation.
//
// A balance within Epsilon of zero counts as settled and is never matched.
// So every player ends within Epsilon only when no balance is that small to
// begin with: {-0.03, +0.01, +0.01, +0.01} sums to zero but produces no
// payments.  Whole-dollar ledgers never get there.
func Settle(balances []Balance) []Transaction {
	debtors, creditors := partition(balances)
	return settleParties(debtors, creditors)
}

func settleParties(debtors, creditors []*party) []Transaction {
	txs := make([]Transaction, 0, len(debtors)+len(creditors))
	for {
		d := largest(debtors, -1)
		c := largest(creditors, 1)
		if d == nil || c == nil {
			return txs
		}

		amount := min(-d.cents, c.cents)
		txs = append(txs, Transaction{
			FromID:   d.id,
			FromName: d.name,
			ToID:     c.id,
			ToName:   c.name,
			Amount:   fromCents(amount),
			Kind:     KindPlayerDebt,
		})
		d.cents += amount
		c.cents -= amount
	}
}

// Apply records every payment against a copy of balances: the payer's
// debt shrinks and the payee's credit shrinks.  Money drawn from the pot
// has no player on the paying side.
func Apply(balances []Balance, txs []Transaction) []Balance {
	out := make([]Balance, len(balances))
	copy(out, balances)

	index := make(map[string]int, len(out))
	for i, b := range out {
		if _, ok := index[b.ID]; !ok {
			index[b.ID] = i
		}
	}

	for _, tx := range txs {
		if i, ok := index[tx.FromID]; ok && tx.Kind != KindPotWithdrawal {
			out[i].Balance = RoundToTwo(out[i].Balance + tx.Amount)
		}
		if i, ok := index[tx.ToID]; ok {
			out[i].Balance = RoundToTwo(out[i].Balance - tx.Amount)
		}
	}
	return out
}

// Total is the sum of the amounts of txs.
func Total(txs []Transaction) float64 {
	var cents int64
	for _, tx := range txs {
		cents += toCents(tx.Amount)
	}
	return fromCents(cents)
}
