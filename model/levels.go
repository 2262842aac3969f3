package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"maze.io/x/duration"
)

var (
	dashDashRE = regexp.MustCompile(`\s*--\s*`)
)

type Level struct {
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	IsBreak         bool   `json:"is_break"`
}

func (l *Level) Duration() time.Duration {
	return time.Duration(l.DurationMinutes) * time.Minute
}

// Structure describes the blind levels of a game.
type Structure struct {
	Levels []*Level `json:"levels"`
	// RebuyUntilLevel is the last level number (0-based, counting breaks)
	// at which a busted player may buy back in.  Negative means no rebuys.
	RebuyUntilLevel int `json:"rebuy_until_level"`
}

// RebuysOpen reports whether rebuys are allowed during levelNumber.
func (s *Structure) RebuysOpen(levelNumber int) bool {
	return s.RebuyUntilLevel >= 0 && levelNumber <= s.RebuyUntilLevel
}

func parseLevelBreak(s string) bool {
	return strings.EqualFold(s, "BREAK")
}

// parseLevelDuration accepts bare minutes ("20") or a duration ("20m",
// "1h30m").
func parseLevelDuration(s string) (int, error) {
	if mins, err := strconv.Atoi(s); err == nil {
		return mins, nil
	}
	d, err := duration.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return int(time.Duration(d) / time.Minute), nil
}

// ParseLevels reads one level per line, as "DURATION -- LEVEL -- DESCRIPTION"
// or "DURATION -- BREAK -- DESCRIPTION".  Blank lines are skipped.
func ParseLevels(input string) ([]*Level, error) {
	levels := []*Level{}
	lines := strings.Split(input, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := dashDashRE.Split(strings.TrimSpace(line), 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("line unparsable: %q", line)
		}
		durationMins, err := parseLevelDuration(parts[0])
		if err != nil {
			return nil, fmt.Errorf("can't parse duration in line %q: %w", line, err)
		}
		if durationMins <= 0 {
			return nil, fmt.Errorf("level must last at least a minute: %q", line)
		}
		levels = append(levels, &Level{
			DurationMinutes: durationMins,
			IsBreak:         parseLevelBreak(parts[1]),
			Description:     parts[2],
		})
	}
	return levels, nil
}
