package defaults

import (
	"github.com/ts4z/homegame/model"
)

func makeLevel(desc string) *model.Level {
	return &model.Level{
		Description:     desc,
		DurationMinutes: 20,
		IsBreak:         false,
	}
}

func makeBreak(desc string, durationMins int) *model.Level {
	return &model.Level{
		Description:     desc,
		DurationMinutes: durationMins,
		IsBreak:         true,
	}
}

// Structure is a home game structure for a 1500 chip stack.  Rebuys close
// at the first break.
func Structure() *model.Structure {
	return &model.Structure{
		RebuyUntilLevel: 3,
		Levels: []*model.Level{
			makeLevel("10-20"),
			makeLevel("15-30"),
			makeLevel("25-50"),
			makeLevel("50-100"),
			makeBreak("REBUYS CLOSED, COLOR UP 5s", 10),
			makeLevel("75-150"),
			makeLevel("100-200"),
			makeLevel("150-300"),
			makeLevel("200-400"),
			makeBreak("COLOR UP 25s", 10),
			makeLevel("300-600"),
			makeLevel("400-800"),
			makeLevel("600-1200"),
			makeLevel("1000-2000"),
		},
	}
}
