package state

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/metrics"
	"github.com/ts4z/homegame/model"
)

// DefaultMutateRetries is how many times Mutate tries before giving up.
const DefaultMutateRetries = 5

// Mutate runs a read-modify-write on tournament id.  f gets a private copy
// of the tournament; if it returns nil the copy is saved.  A save that
// loses an optimistic lock race is retried from a fresh fetch, up to
// retries attempts.  The saved tournament is returned.
func Mutate(ctx context.Context, s TournamentStorage, id int64, retries int, f func(*model.Tournament) error) (*model.Tournament, error) {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := s.FetchTournament(ctx, id)
		if err != nil {
			return nil, err
		}
		// Storage may hand back a shared (cached) copy.
		t = t.Clone()

		if err := f(t); err != nil {
			return nil, err
		}

		err = s.SaveTournament(ctx, t)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrOptimisticLock) {
			return nil, err
		}
		log.Printf("debug: tournament %d changed underneath us (attempt %d/%d)", id, attempt, retries)
		metrics.OptimisticLockRetries.Inc()
		lastErr = err
	}
	return nil, he.New(409, fmt.Errorf("giving up after %d attempts: %w", retries, lastErr))
}
