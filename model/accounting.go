package model

// AccountingKind says how a game's buy-ins were collected.
type AccountingKind string

const (
	// AccountingTraditional games track every buy-in as a personal debt.
	AccountingTraditional AccountingKind = "traditional"
	// AccountingPotBased games had some buy-ins paid into a shared pot up
	// front.  Contributors only owe their rebuys personally.
	AccountingPotBased AccountingKind = "pot_based"
)

// PotContribution is money a player put directly into the pot.
type PotContribution struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Amount     float64 `json:"amount"`
}

// Accounting is decided once, when contributions are recorded, so that
// nobody has to guess the mode from the shape of the data later.
type Accounting struct {
	Kind          AccountingKind    `json:"kind"`
	Contributions []PotContribution `json:"contributions,omitempty"`
}

func Traditional() Accounting {
	return Accounting{Kind: AccountingTraditional}
}

// ResolveAccounting picks the accounting mode for a set of contributions.
// Any positive contribution makes the game pot-based; non-positive entries
// are dropped.
func ResolveAccounting(contributions []PotContribution) Accounting {
	var kept []PotContribution
	for _, c := range contributions {
		if c.Amount > 0 {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return Traditional()
	}
	return Accounting{Kind: AccountingPotBased, Contributions: kept}
}

func (a Accounting) IsPotBased() bool {
	return a.Kind == AccountingPotBased
}

// PotTotal is what was paid into the pot for this game.
func (a Accounting) PotTotal() float64 {
	if !a.IsPotBased() {
		return 0
	}
	var total float64
	for _, c := range a.Contributions {
		total += c.Amount
	}
	return total
}

// Contributed reports whether playerID paid into this game's pot.
func (a Accounting) Contributed(playerID string) bool {
	if !a.IsPotBased() {
		return false
	}
	for _, c := range a.Contributions {
		if c.PlayerID == playerID {
			return true
		}
	}
	return false
}
