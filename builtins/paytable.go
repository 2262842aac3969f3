package builtins

import (
	"github.com/ts4z/homegame/paytable"
)

// homeGamePaytable pays one place for tiny games, two for a full table,
// and three once there's enough money in the pot to make it worthwhile.
var homeGamePaytable = &paytable.Paytable{
	ID:        1,
	Name:      "Home Game",
	Increment: paytable.DefaultIncrement,
	Rows: []paytable.Row{
		{
			MinPlayers: 1,
			MaxPlayers: 4,
			Split:      paytable.Split{First: 100}, // Winner takes all
		},
		{
			MinPlayers: 5,
			MaxPlayers: 8,
			Split:      paytable.Split{First: 65, Second: 35},
		},
		{
			MinPlayers: 9,
			MaxPlayers: 1000,
			Split:      paytable.Split{First: 60, Second: 25, Third: 15},
		},
	},
}

// flatPaytable always pays three places, for groups who'd rather spread
// the money around.
var flatPaytable = &paytable.Paytable{
	ID:        2,
	Name:      "Flat",
	Increment: paytable.DefaultIncrement,
	Rows: []paytable.Row{
		{
			MinPlayers: 1,
			MaxPlayers: 1000,
			Split:      paytable.Split{First: 50, Second: 30, Third: 20},
		},
	},
}

func HomeGamePaytable() *paytable.Paytable {
	return homeGamePaytable.Clone()
}

func FlatPaytable() *paytable.Paytable {
	return flatPaytable.Clone()
}

// Paytables returns fresh copies of every built-in paytable.
func Paytables() []*paytable.Paytable {
	return []*paytable.Paytable{HomeGamePaytable(), FlatPaytable()}
}
