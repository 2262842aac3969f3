package tournament

import (
	"fmt"
	"log"
	"time"

	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/model"
)

// The blind clock keeps two representations of time.  While running,
// CurrentLevelEndsAt says when the level ends; while paused,
// TimeRemainingMillis says how much of it is left.  Exactly one is set.

// adjustStateForElapsedTime fixes the clock to reflect the current time,
// stepping through any levels that ended while nobody was looking.
func (tm *Mutator) adjustStateForElapsedTime(g *model.Game) {
	if g.CurrentLevel() == nil {
		return
	}

	if !g.Clock.IsClockRunning {
		if g.Clock.TimeRemainingMillis == nil {
			log.Printf("BUG: clock is not running but TimeRemainingMillis is nil, resetting to full time")
			tm.restartLevel(g)
		}
		return
	}

	if g.Clock.CurrentLevelNumber < 0 {
		log.Printf("warning: current level number %d < 0, resetting to 0", g.Clock.CurrentLevelNumber)
		g.Clock.CurrentLevelNumber = 0
	}

	if g.Clock.CurrentLevelNumber >= len(g.Structure.Levels) {
		log.Printf("warning: current level number %d >= max %d, resetting to max-1", g.Clock.CurrentLevelNumber, len(g.Structure.Levels))
		g.Clock.CurrentLevelNumber = len(g.Structure.Levels) - 1
	}

	if g.Clock.CurrentLevelEndsAt == nil {
		log.Printf("BUG: clock is running but CurrentLevelEndsAt is nil, resetting to full time")
		later := tm.clock.Now().Add(g.CurrentLevel().Duration()).UnixMilli()
		g.Clock.CurrentLevelEndsAt = &later
		g.Clock.TimeRemainingMillis = nil
		return
	}

	for {
		endsAt := g.CurrentLevelEndsAtAsTime()
		if endsAt.After(tm.clock.Now()) {
			// end of level still in the future!  we're good.
			break
		}

		// step the level forward, assuming no clock pauses.
		g.Clock.CurrentLevelNumber++
		if g.Clock.CurrentLevelNumber >= len(g.Structure.Levels) {
			endOfTime(g)
			return
		}

		newEndsAt := endsAt.Add(g.CurrentLevel().Duration()).UnixMilli()
		g.Clock.CurrentLevelEndsAt = &newEndsAt
	}
}

// CatchUp brings the clock up to date without otherwise changing the game.
func (tm *Mutator) CatchUp(g *model.Game) {
	tm.adjustStateForElapsedTime(g)
}

// restartLevel resets the current level's clocks after a manual level change.
func (tm *Mutator) restartLevel(g *model.Game) {
	if g.CurrentLevel() == nil {
		log.Printf("debug: can't restart level: no current level")
		return
	}
	d := g.CurrentLevel().Duration()
	if g.Clock.IsClockRunning {
		later := tm.clock.Now().Add(d).UnixMilli()
		g.Clock.CurrentLevelEndsAt = &later
		g.Clock.TimeRemainingMillis = nil
	} else {
		remainingMillis := d.Milliseconds()
		g.Clock.TimeRemainingMillis = &remainingMillis
		g.Clock.CurrentLevelEndsAt = nil
	}
}

// Remaining reports how long is left in the current level.
func (tm *Mutator) Remaining(g *model.Game) time.Duration {
	tm.adjustStateForElapsedTime(g)
	switch {
	case g.Clock.IsClockRunning && g.Clock.CurrentLevelEndsAt != nil:
		return g.CurrentLevelEndsAtAsTime().Sub(tm.clock.Now())
	case g.Clock.TimeRemainingMillis != nil:
		return time.Duration(*g.Clock.TimeRemainingMillis) * time.Millisecond
	}
	return 0
}

func (tm *Mutator) StartClock(g *model.Game) error {
	tm.adjustStateForElapsedTime(g)

	if g.Clock.IsClockRunning {
		log.Printf("debug: can't start a started clock")
		return nil
	}

	if g.CurrentLevel() == nil {
		return he.New(409, fmt.Errorf("can't start clock: %w", ErrNoLevels))
	}

	var remaining time.Duration
	if g.Clock.TimeRemainingMillis != nil {
		remaining = time.Duration(*g.Clock.TimeRemainingMillis) * time.Millisecond
	} else {
		log.Printf("debug: when starting clock, no TimeRemainingMillis, using full level duration")
		remaining = *g.CurrentLevelDuration()
	}

	endsAt := tm.clock.Now().Add(remaining).UnixMilli()
	g.Clock.CurrentLevelEndsAt = &endsAt
	g.Clock.TimeRemainingMillis = nil
	g.Clock.IsClockRunning = true
	return nil
}

func (tm *Mutator) StopClock(g *model.Game) error {
	tm.adjustStateForElapsedTime(g)

	if !g.Clock.IsClockRunning {
		log.Printf("debug: can't stop a stopped clock")
		return nil
	}

	endsAt := g.CurrentLevelEndsAtAsTime()
	remainingMillis := endsAt.Sub(tm.clock.Now()).Milliseconds()

	g.Clock.IsClockRunning = false
	g.Clock.TimeRemainingMillis = &remainingMillis
	g.Clock.CurrentLevelEndsAt = nil
	return nil
}

func (tm *Mutator) AdvanceLevel(g *model.Game) error {
	if g.CurrentLevel() == nil {
		return he.New(409, ErrNoLevels)
	}
	tm.adjustStateForElapsedTime(g)

	if g.Clock.CurrentLevelNumber >= len(g.Structure.Levels)-1 {
		endOfTime(g)
		return nil
	}

	g.Clock.CurrentLevelNumber++
	tm.restartLevel(g)
	return nil
}

func (tm *Mutator) PreviousLevel(g *model.Game) error {
	if g.CurrentLevel() == nil {
		return he.New(409, ErrNoLevels)
	}
	tm.adjustStateForElapsedTime(g)

	if g.Clock.CurrentLevelNumber <= 0 {
		return he.New(409, ErrNoPreviousLevel)
	}
	g.Clock.CurrentLevelNumber--
	tm.restartLevel(g)
	return nil
}

// PlusTime adds d to the running level.  A negative d takes time away,
// but never below zero.
func (tm *Mutator) PlusTime(g *model.Game, d time.Duration) error {
	tm.adjustStateForElapsedTime(g)

	if g.CurrentLevel() == nil {
		return he.New(409, fmt.Errorf("can't add time: %w", ErrNoLevels))
	}

	if g.Clock.IsClockRunning {
		newEndsAt := g.CurrentLevelEndsAtAsTime().Add(d)
		if newEndsAt.Before(tm.clock.Now()) {
			newEndsAt = tm.clock.Now()
		}
		asInt64 := newEndsAt.UnixMilli()
		g.Clock.CurrentLevelEndsAt = &asInt64
		g.Clock.TimeRemainingMillis = nil
	} else {
		var remaining time.Duration
		if g.Clock.TimeRemainingMillis != nil {
			remaining = time.Duration(*g.Clock.TimeRemainingMillis) * time.Millisecond
		} else {
			log.Printf("debug: when adding time, no TimeRemainingMillis, using full level duration")
			remaining = *g.CurrentLevelDuration()
		}

		remaining = max(remaining+d, 0)
		remainingMillis := remaining.Milliseconds()

		g.Clock.TimeRemainingMillis = &remainingMillis
		g.Clock.CurrentLevelEndsAt = nil
	}

	return nil
}

// endOfTime is a convenience function for putting a game at the end of its
// levels.  We set to the *last* level, *paused*, with no time remaining.
// Un-pausing would immediately kick to the next level, which will
// encourage somebody to call this right back.
func endOfTime(g *model.Game) {
	log.Printf("game %d at end of time", g.GameID)
	zero := int64(0)
	g.Clock.CurrentLevelNumber = len(g.Structure.Levels) - 1
	g.Clock.TimeRemainingMillis = &zero
	g.Clock.CurrentLevelEndsAt = nil
	g.Clock.IsClockRunning = false
}
