package dbcache

import (
	"context"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ts4z/homegame/metrics"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/state"
	"github.com/ts4z/homegame/varz"
)

var (
	tournamentStorageCacheHits            = varz.NewInt("tournamentStorageCacheHits")
	tournamentStorageCacheMisses          = varz.NewInt("tournamentStorageCacheMisses")
	tournamentStorageCacheDuplicateUpdate = varz.NewInt("tournamentStorageCacheDuplicateUpdate")
)

// TournamentStorage is a read-through LRU cache in front of another
// TournamentStorage.  Tournaments it hands out are shared and must not be
// modified; state.Mutate clones before writing.
type TournamentStorage struct {
	cache *lru.Cache[int64, *model.Tournament]
	lock  sync.Mutex
	next  state.TournamentStorage
}

var _ state.TournamentStorage = (*TournamentStorage)(nil)

func NewTournamentStorage(size int, next state.TournamentStorage) *TournamentStorage {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[int64, *model.Tournament](size)
	if err != nil {
		log.Fatalf("Failed to create TournamentStorage cache: %v", err)
	}
	return &TournamentStorage{
		cache: cache,
		next:  next,
	}
}

// CreateTournament implements state.TournamentStorage.
func (s *TournamentStorage) CreateTournament(ctx context.Context, t *model.Tournament) (int64, error) {
	return s.next.CreateTournament(ctx, t)
}

// DeleteTournament implements state.TournamentStorage.
func (s *TournamentStorage) DeleteTournament(ctx context.Context, id int64) error {
	err := s.next.DeleteTournament(ctx, id)
	if err == nil {
		s.cache.Remove(id)
	}
	return err
}

// FetchOverview implements state.TournamentStorage.
func (s *TournamentStorage) FetchOverview(ctx context.Context, offset int, limit int) (*model.Overview, error) {
	return s.next.FetchOverview(ctx, offset, limit)
}

// Alternate name, making this suitable for the dbnotify Fetcher interface.
func (s *TournamentStorage) Fetch(ctx context.Context, id int64) (*model.Tournament, error) {
	return s.FetchTournament(ctx, id)
}

// CacheInvalidate drops id if what we have is no newer than version.
func (s *TournamentStorage) CacheInvalidate(_ context.Context, id int64, version int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if t, ok := s.cache.Get(id); ok {
		if t.Version <= version {
			s.cache.Remove(id)
			metrics.TournamentCacheInvalidations.Inc()
		}
	}
}

func (s *TournamentStorage) CacheStore(_ context.Context, t *model.Tournament) {
	id := t.TournamentID
	s.lock.Lock()
	defer s.lock.Unlock()
	cached, ok := s.cache.Get(id)
	if ok {
		if cached.Version > t.Version {
			log.Printf("cache: have version %d, incoming %d, ignoring", cached.Version, t.Version)
			return
		} else if cached.Version == t.Version {
			tournamentStorageCacheDuplicateUpdate.Add(1)
			log.Printf("debug: cache: already have version %d, ignoring", cached.Version)
			return
		}
	}
	s.cache.Add(id, t.Clone())
}

func (s *TournamentStorage) FetchTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	if t, ok := s.cache.Get(id); ok {
		tournamentStorageCacheHits.Add(1)
		metrics.TournamentCacheLookups.WithLabelValues("hit").Inc()
		return t, nil
	}

	tournamentStorageCacheMisses.Add(1)
	metrics.TournamentCacheLookups.WithLabelValues("miss").Inc()
	t, err := s.next.FetchTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	s.CacheStore(ctx, t)
	return t, nil
}

func (s *TournamentStorage) SaveTournament(ctx context.Context, t *model.Tournament) error {
	err := s.next.SaveTournament(ctx, t)
	if err != nil {
		// Whatever we had is probably stale.
		s.cache.Remove(t.TournamentID)
		return err
	}
	log.Printf("debug: cache store from save tournament id=%d version=%d", t.TournamentID, t.Version)
	s.CacheStore(ctx, t)
	return nil
}

func (s *TournamentStorage) Len() int {
	return s.cache.Len()
}
