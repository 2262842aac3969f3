package ocsv

/*
Package ocsv imports blind structures written for Patrick Milligan's
Oakleaf Timer, which keeps its data in CSV.  A file looks like this:

R,20,pause,Green, 3chimes,ROUND,1, GAME,STUD,BUTTON,15, BRING IN,5, LIMITS,15-30
R,20,run, Brown, 3chimes,ROUND,2, GAME,STUD,ANTE,5, BRING IN,10, LIMITS,25-50
B,10,run, Brown, 3chimes,1st, BREAK,GAME,STUD,FINAL,RE-BUYS
R,15,pause,Brown, 3chimes,ROUND,4, GAME,STUD,ANTE,15, BRING IN,25, LIMITS,100-200

Column 1 is R (round) or B (break) and column 2 the length in minutes; zero
means untimed.  Columns 3 to 5 are the timer state, background and sound,
none of which we keep.  The rest are up to five label/data pairs for the
display.

The import is somewhat destructive: a round keeps only the data of its
last filled-in area (usually the limits or blinds), and a break keeps all
its text.  A break that mentions re-buys closes rebuys after the level
before it.
*/

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ts4z/homegame/model"
)

const firstAreaColumn = 5

// Import reads an Oakleaf CSV file into a structure.  Without a re-buy
// break, rebuys are never open.
func Import(r io.Reader) (*model.Structure, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	s := &model.Structure{Levels: []*model.Level{}, RebuyUntilLevel: -1}
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			continue
		}

		level, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if level.IsBreak && closesRebuys(level.Description) && len(s.Levels) > 0 {
			s.RebuyUntilLevel = len(s.Levels) - 1
		}
		s.Levels = append(s.Levels, level)
	}
	return s, nil
}

func parseRecord(record []string) (*model.Level, error) {
	if len(record) < 2 {
		return nil, fmt.Errorf("need at least a type and a time, got %d columns", len(record))
	}

	level := &model.Level{}
	switch strings.ToUpper(record[0]) {
	case "R":
	case "B":
		level.IsBreak = true
	default:
		return nil, fmt.Errorf("unknown round type %q", record[0])
	}

	mins, err := strconv.Atoi(record[1])
	if err != nil {
		return nil, fmt.Errorf("can't parse time %q: %w", record[1], err)
	}
	if mins <= 0 {
		return nil, fmt.Errorf("untimed levels are not supported")
	}
	level.DurationMinutes = mins

	areas := []string{}
	if len(record) > firstAreaColumn {
		areas = record[firstAreaColumn:]
	}
	if level.IsBreak {
		level.Description = joinNonEmpty(areas)
	} else {
		level.Description = lastData(areas)
	}
	return level, nil
}

func joinNonEmpty(fields []string) string {
	kept := []string{}
	for _, f := range fields {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// lastData finds the data half of the last label/data pair with data.
func lastData(areas []string) string {
	for i := len(areas) - 1; i >= 1; i-- {
		if i%2 == 1 && areas[i] != "" {
			return areas[i]
		}
	}
	return joinNonEmpty(areas)
}

func closesRebuys(desc string) bool {
	d := strings.ToUpper(desc)
	return strings.Contains(d, "RE-BUY") || strings.Contains(d, "REBUY")
}
