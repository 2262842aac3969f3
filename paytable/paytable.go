package paytable

// Package paytable provides data models and stateless functions for turning
// a prize pool into payouts for the top three places.

import (
	"fmt"
)

// DefaultIncrement is the smallest chunk of money we hand out.  Nobody wants
// to count out $83.25 at the end of a home game.
const DefaultIncrement = 5

// Split is the share of the prize pool, in whole percent, for each of the
// top three places.  A usable split sums to exactly 100.
type Split struct {
	First  int `json:"first" validate:"gte=0,lte=100"`
	Second int `json:"second" validate:"gte=0,lte=100"`
	Third  int `json:"third" validate:"gte=0,lte=100"`
}

// Valid reports whether the split can be distributed.
func (s Split) Valid() bool {
	if s.First < 0 || s.Second < 0 || s.Third < 0 {
		return false
	}
	return s.First+s.Second+s.Third == 100
}

func (s Split) String() string {
	return fmt.Sprintf("%d/%d/%d", s.First, s.Second, s.Third)
}

// Prizes is the cash awarded to each of the top three places.
type Prizes struct {
	First  int64 `json:"first"`
	Second int64 `json:"second"`
	Third  int64 `json:"third"`
}

func (p Prizes) Total() int64 {
	return p.First + p.Second + p.Third
}

// ForPlace returns the prize for a 1-based place, or zero if that place
// isn't paid.
func (p Prizes) ForPlace(place int) int64 {
	switch place {
	case 1:
		return p.First
	case 2:
		return p.Second
	case 3:
		return p.Third
	default:
		return 0
	}
}

// Collapse folds the money for places that nobody can finish in (because
// there weren't enough players) into first place.
func (p Prizes) Collapse(places int) Prizes {
	switch {
	case places <= 0:
		return Prizes{}
	case places == 1:
		return Prizes{First: p.Total()}
	case places == 2:
		return Prizes{First: p.First + p.Third, Second: p.Second}
	default:
		return p
	}
}

// Distribute splits pool into prizes using DefaultIncrement.
func Distribute(pool int64, pct Split) Prizes {
	return DistributeWithIncrement(pool, pct, DefaultIncrement)
}

// DistributeWithIncrement splits pool according to pct, rounding each share
// to the nearest multiple of increment (halves round up).  First place
// absorbs the rounding slack, so the result always sums to pool.
//
// A non-positive pool or a split that doesn't sum to 100 yields zero prizes.
// That happens routinely when somebody asks before the game has enough
// players, so it isn't an error.
func DistributeWithIncrement(pool int64, pct Split, increment int64) Prizes {
	if pool <= 0 || !pct.Valid() {
		return Prizes{}
	}
	if increment <= 0 {
		increment = 1
	}

	p := Prizes{
		First:  roundShare(pool, pct.First, increment),
		Second: roundShare(pool, pct.Second, increment),
		Third:  roundShare(pool, pct.Third, increment),
	}
	p.First += pool - p.Total()

	if p.First >= 0 {
		return p
	}

	// Only reachable with lopsided splits on tiny pools, where rounding the
	// lower places up overshoots the pool.
	deficit := -p.First
	p.First = 0
	rest := p.Second + p.Third
	if rest == 0 {
		return Prizes{First: pool}
	}
	p.Second -= min(p.Second, roundDiv(deficit*p.Second, rest*increment)*increment)
	p.Third -= min(p.Third, roundDiv(deficit*p.Third, rest*increment)*increment)

	p.Second += pool - p.Total()
	if p.Second < 0 {
		p.Third += p.Second
		p.Second = 0
	}
	return p
}

// roundShare computes round(pool*pct/100 / increment) * increment without
// leaving integer arithmetic.
func roundShare(pool int64, pct int, increment int64) int64 {
	return roundDiv(pool*int64(pct), 100*increment) * increment
}

// roundDiv is num/den rounded half up.  num must be non-negative, den
// positive.
func roundDiv(num, den int64) int64 {
	return (2*num + den) / (2 * den)
}

// Row defines the split for a range of player counts.
type Row struct {
	MinPlayers int   // Minimum number of players (inclusive)
	MaxPlayers int   // Maximum number of players (inclusive)
	Split      Split // Percentages for the top three places
}

// Paytable picks a split based on how many players entered.
type Paytable struct {
	ID        int64  // Unique identifier for the payout table
	Name      string // Name of the payout table (e.g., "Home Game")
	Increment int64  // Minimum unit for splits
	Rows      []Row  // Ordered list of payout rows
}

// PaytableSlug is a lightweight representation of a payout table for lists.
type PaytableSlug struct {
	Name string
	ID   int64
}

// SplitFor returns the split used for numPlayers entrants.
func (pt *Paytable) SplitFor(numPlayers int) (Split, error) {
	for _, row := range pt.Rows {
		if numPlayers >= row.MinPlayers && numPlayers <= row.MaxPlayers {
			return row.Split, nil
		}
	}
	return Split{}, fmt.Errorf("no payout row found for %d players", numPlayers)
}

// Payout calculates prize distribution for this specific payout table.
// Places beyond the number of players are folded into first.
func (pt *Paytable) Payout(totalPrizePool int64, numPlayers int) (Prizes, error) {
	split, err := pt.SplitFor(numPlayers)
	if err != nil {
		return Prizes{}, err
	}
	return DistributeWithIncrement(totalPrizePool, split, pt.Increment).Collapse(numPlayers), nil
}

func (pt *Paytable) Clone() *Paytable {
	clone := &Paytable{
		ID:        pt.ID,
		Increment: pt.Increment,
		Name:      pt.Name,
		Rows:      make([]Row, len(pt.Rows)),
	}
	copy(clone.Rows, pt.Rows)
	return clone
}
