package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/model"
)

// MemoryStorage is a TournamentStorage that forgets everything on exit.
// It follows the same versioning rules as DBStorage, so it is useful for
// tests and for running without a database.
type MemoryStorage struct {
	rw     sync.Mutex
	nextID int64
	byID   map[int64]*model.Tournament
}

var _ TournamentStorage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		nextID: 1,
		byID:   map[int64]*model.Tournament{},
	}
}

func (s *MemoryStorage) Lock() func() {
	s.rw.Lock()
	return func() { s.rw.Unlock() }
}

func (s *MemoryStorage) Close() {}

func (s *MemoryStorage) FetchOverview(_ context.Context, offset, limit int) (*model.Overview, error) {
	unlock := s.Lock()
	defer unlock()

	ids := make([]int64, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	overview := &model.Overview{Slugs: []model.TournamentSlug{}}
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(overview.Slugs) >= limit {
			break
		}
		overview.Slugs = append(overview.Slugs, s.byID[id].Slug())
	}
	return overview, nil
}

func (s *MemoryStorage) FetchTournament(_ context.Context, id int64) (*model.Tournament, error) {
	unlock := s.Lock()
	defer unlock()
	if t, ok := s.byID[id]; ok {
		return t.Clone(), nil
	}
	return nil, he.New(404, fmt.Errorf("no such tournament id %d: %w", id, ErrNotFound))
}

func (s *MemoryStorage) CreateTournament(_ context.Context, t *model.Tournament) (int64, error) {
	unlock := s.Lock()
	defer unlock()

	id := s.nextID
	s.nextID++
	t.TournamentID = id
	t.Version = 0
	s.byID[id] = t.Clone()
	return id, nil
}

func (s *MemoryStorage) SaveTournament(_ context.Context, t *model.Tournament) error {
	unlock := s.Lock()
	defer unlock()

	stored, ok := s.byID[t.TournamentID]
	if !ok {
		return he.New(404, fmt.Errorf("no such tournament id %d: %w", t.TournamentID, ErrNotFound))
	}
	if stored.Version != t.Version {
		return he.New(409, fmt.Errorf("tournament %d is at version %d, not %d: %w",
			t.TournamentID, stored.Version, t.Version, ErrOptimisticLock))
	}

	t.Version++
	s.byID[t.TournamentID] = t.Clone()
	return nil
}

func (s *MemoryStorage) DeleteTournament(_ context.Context, id int64) error {
	unlock := s.Lock()
	defer unlock()
	if _, ok := s.byID[id]; !ok {
		return he.New(404, fmt.Errorf("no such tournament id %d: %w", id, ErrNotFound))
	}
	delete(s.byID, id)
	return nil
}
