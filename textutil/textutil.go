package textutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ts4z/homegame/paytable"
)

var (
	printer = message.NewPrinter(language.English)
	folder  = cases.Fold()
)

// CleanName trims a player name and collapses runs of whitespace.
func CleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SameName reports whether two player names are the same person, ignoring
// case and spacing.
func SameName(a, b string) bool {
	return folder.String(CleanName(a)) == folder.String(CleanName(b))
}

// FormatMoney renders dollars and cents with thousands separators, like
// "$1,234.50" or "-$20.00".
func FormatMoney(amount float64) string {
	if amount < 0 {
		return "-" + printer.Sprintf("$%.2f", -amount)
	}
	return printer.Sprintf("$%.2f", amount)
}

// FormatWhole renders a whole-dollar amount, like "$1,650".
func FormatWhole(amount int64) string {
	if amount < 0 {
		return "-" + printer.Sprintf("$%d", -amount)
	}
	return printer.Sprintf("$%d", amount)
}

// Parse MM:SS or HH:MM:SS format into time.Duration.  A leading "-" makes
// it negative.
func ParseDuration(s string) (time.Duration, error) {
	sign := time.Duration(1)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign = -1
		s = rest
	}

	var hh, mm, ss string
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		hh, mm, ss = parts[0], parts[1], parts[2]
	} else if len(parts) == 2 {
		hh, mm, ss = "0", parts[0], parts[1]
	} else {
		return 0, errors.New("invalid HH:MM:SS format")
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, errors.New("can't parse hours")
	}
	mins, err := strconv.Atoi(mm)
	if err != nil {
		return 0, errors.New("can't parse minutes")
	}
	secs, err := strconv.Atoi(ss)
	if err != nil {
		return 0, errors.New("can't parse seconds")
	}

	return sign * (time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second), nil
}

// FormatClock renders d as M:SS or H:MM:SS, the way a tournament clock
// shows it.  Negative durations show as zero.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h, m, s := secs/3600, (secs/60)%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseSplit reads a split written like "60/25/15".  Missing places are
// zero, so "100" is winner-take-all.  The numbers are not checked against
// each other; see paytable.Split.Valid.
func ParseSplit(s string) (paytable.Split, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) > 3 {
		return paytable.Split{}, fmt.Errorf("split %q has more than three places", s)
	}
	pcts := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return paytable.Split{}, fmt.Errorf("split %q: %w", s, err)
		}
		pcts[i] = n
	}
	return paytable.Split{First: pcts[0], Second: pcts[1], Third: pcts[2]}, nil
}

// FormatPlace converts a numeric place (1, 2, 3, ...) to a string ("1st", "2nd", "3rd", ...).
func FormatPlace(place int) string {
	suffix := "th"
	if place%100 < 11 || place%100 > 13 {
		switch place % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", place, suffix)
}
