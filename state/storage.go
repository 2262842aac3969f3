package state

// package state manages persistence.

import (
	"context"
	"errors"

	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/paytable"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrOptimisticLock = errors.New("optimistic lock failure")
)

type Closer interface {
	Close()
}

// TournamentStorage is the repository for the tournament aggregate.
// SaveTournament must fail with ErrOptimisticLock if the stored version
// is not the one the caller fetched, and bumps Version on success.
type TournamentStorage interface {
	FetchOverview(ctx context.Context, offset, limit int) (*model.Overview, error)
	FetchTournament(ctx context.Context, id int64) (*model.Tournament, error)
	CreateTournament(ctx context.Context, t *model.Tournament) (int64, error)
	SaveTournament(ctx context.Context, t *model.Tournament) error
	DeleteTournament(ctx context.Context, id int64) error
}

type PaytableStorage interface {
	FetchPaytableByID(ctx context.Context, id int64) (*paytable.Paytable, error)
	FetchPaytableSlugs(ctx context.Context) ([]*paytable.PaytableSlug, error)
}
