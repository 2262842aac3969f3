package settle

import (
	"cmp"
	"slices"
)

// SettleWithPot pays creditors out of the shared pot first, biggest
// creditor first, and only then falls back to player-to-player payments
// for whatever is still owed.
//
// The pot is money already collected up front (usually buy-ins paid into a
// kitty), so the balances passed in should already exclude the buy-ins of
// whoever paid into it.
func SettleWithPot(balances []Balance, totalPot float64) []Transaction {
	debtors, creditors := partition(balances)

	byCredit := slices.Clone(creditors)
	slices.SortStableFunc(byCredit, func(a, b *party) int {
		return cmp.Compare(b.cents, a.cents)
	})

	pot := toCents(totalPot)
	withdrawals := make([]Transaction, 0, len(byCredit))
	for _, c := range byCredit {
		if pot <= epsilonCents {
			break
		}
		amount := min(c.cents, pot)
		withdrawals = append(withdrawals, Transaction{
			FromID:   PotID,
			FromName: PotName,
			ToID:     c.id,
			ToName:   c.name,
			Amount:   fromCents(amount),
			Kind:     KindPotWithdrawal,
		})
		c.cents -= amount
		pot -= amount
	}

	return append(withdrawals, settleParties(debtors, creditors)...)
}
