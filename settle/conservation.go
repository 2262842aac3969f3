package settle

import (
	"errors"
	"fmt"
)

// ErrUnbalanced means the money paid in doesn't match the money paid out.
// Settling anyway would silently leave somebody short.
var ErrUnbalanced = errors.New("balances do not net to zero")

// Drift returns how far the balances are from netting to zero once the pot
// has paid out.  Positive means more is owed to players than anybody owes.
func Drift(balances []Balance, totalPot float64) float64 {
	var cents int64
	for _, b := range balances {
		cents += toCents(b.Balance)
	}
	return fromCents(cents - toCents(totalPot))
}

// CheckConservation returns an error wrapping ErrUnbalanced if the
// balances, less the pot, are further than Epsilon from zero.
func CheckConservation(balances []Balance, totalPot float64) error {
	drift := Drift(balances, totalPot)
	if toCents(drift) > epsilonCents || toCents(drift) < -epsilonCents {
		return fmt.Errorf("%w: off by %.2f", ErrUnbalanced, drift)
	}
	return nil
}
