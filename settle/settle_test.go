package settle

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleSimple(t *testing.T) {
	balances := []Balance{
		{ID: "a", Name: "Al", Balance: 100},
		{ID: "b", Name: "Bo", Balance: 50},
		{ID: "c", Name: "Cy", Balance: -90},
		{ID: "d", Name: "Dee", Balance: -60},
	}

	got := Settle(balances)

	assert.Equal(t, []Transaction{
		{FromID: "c", FromName: "Cy", ToID: "a", ToName: "Al", Amount: 90, Kind: KindPlayerDebt},
		{FromID: "d", FromName: "Dee", ToID: "b", ToName: "Bo", Amount: 50, Kind: KindPlayerDebt},
		{FromID: "d", FromName: "Dee", ToID: "a", ToName: "Al", Amount: 10, Kind: KindPlayerDebt},
	}, got)
}

func TestSettleAlreadySettled(t *testing.T) {
	got := Settle([]Balance{
		{ID: "a", Balance: 0},
		{ID: "b", Balance: 0.01},
		{ID: "c", Balance: -0.01},
	})
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, Settle(nil))
}

func TestSettleIgnoresDustCreditors(t *testing.T) {
	balances := []Balance{
		{ID: "a", Balance: -0.03},
		{ID: "b", Balance: 0.01},
		{ID: "c", Balance: 0.01},
		{ID: "d", Balance: 0.01},
	}
	assert.Empty(t, Settle(balances))

	// Once the creditor is more than a cent, the debt clears.
	balances = []Balance{
		{ID: "a", Balance: -0.03},
		{ID: "b", Balance: 0.02},
		{ID: "c", Balance: 0.01},
	}
	got := Settle(balances)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].FromID)
	assert.Equal(t, "b", got[0].ToID)
	assert.InDelta(t, 0.02, got[0].Amount, 1e-9)
}

func TestSettleTiesBreakByInputOrder(t *testing.T) {
	balances := []Balance{
		{ID: "c1", Balance: 20},
		{ID: "d1", Balance: -20},
		{ID: "c2", Balance: 20},
		{ID: "d2", Balance: -20},
	}

	got := Settle(balances)

	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].FromID)
	assert.Equal(t, "c1", got[0].ToID)
	assert.Equal(t, "d2", got[1].FromID)
	assert.Equal(t, "c2", got[1].ToID)
}

func TestSettleRoundsToCents(t *testing.T) {
	got := Settle([]Balance{
		{ID: "a", Balance: 33.333333},
		{ID: "b", Balance: -33.333333},
	})
	require.Len(t, got, 1)
	assert.Equal(t, 33.33, got[0].Amount)
}

func TestSettleDoesNotModifyInput(t *testing.T) {
	balances := []Balance{{ID: "a", Balance: 5}, {ID: "b", Balance: -5}}
	Settle(balances)
	assert.Equal(t, 5.0, balances[0].Balance)
	assert.Equal(t, -5.0, balances[1].Balance)
}

func TestSettleIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	balances := randomBalances(r, 12)

	first := Settle(balances)
	for range 10 {
		assert.Equal(t, first, Settle(balances))
	}
}

func TestSettleZeroesBalancedLedgers(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := range 200 {
		balances := randomBalances(r, 2+r.Intn(15))
		t.Run(fmt.Sprintf("ledger%d", i), func(t *testing.T) {
			txs := Settle(balances)
			for _, b := range Apply(balances, txs) {
				assert.InDelta(t, 0, b.Balance, Epsilon, "player %s left with %v", b.ID, b.Balance)
			}
			for _, tx := range txs {
				assert.Greater(t, tx.Amount, 0.0)
				assert.NotEqual(t, tx.FromID, tx.ToID)
			}
			// greedy matching never needs more than n-1 payments
			assert.LessOrEqual(t, len(txs), len(balances)-1)
		})
	}
}

func TestSettleLeavesDriftUnmatched(t *testing.T) {
	balances := []Balance{
		{ID: "a", Balance: 100},
		{ID: "b", Balance: -60},
	}
	txs := Settle(balances)
	require.Len(t, txs, 1)
	assert.Equal(t, 60.0, txs[0].Amount)

	after := Apply(balances, txs)
	assert.Equal(t, 40.0, after[0].Balance)
	assert.Equal(t, 0.0, after[1].Balance)
}

func TestApplyIgnoresUnknownPlayers(t *testing.T) {
	balances := []Balance{{ID: "a", Balance: -10}}
	after := Apply(balances, []Transaction{{FromID: "a", ToID: "ghost", Amount: 10, Kind: KindPlayerDebt}})
	assert.Equal(t, 0.0, after[0].Balance)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0.3, Total([]Transaction{{Amount: 0.1}, {Amount: 0.2}}))
}

// randomBalances makes n balances that sum to exactly zero.  Amounts are in
// nickels so no leftover ever hides under Epsilon.
func randomBalances(r *rand.Rand, n int) []Balance {
	balances := make([]Balance, n)
	var sum int64
	for i := 0; i < n-1; i++ {
		cents := r.Int63n(8000)*5 - 20000
		sum += cents
		balances[i] = Balance{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i), Balance: fromCents(cents)}
	}
	balances[n-1] = Balance{ID: fmt.Sprintf("p%d", n-1), Balance: fromCents(-sum)}
	return balances
}
