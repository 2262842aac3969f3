package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ts4z/homegame/model"
)

func TestMutateSaves(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	id, err := s.CreateTournament(ctx, &model.Tournament{Name: "Friday"})
	require.NoError(t, err)

	saved, err := Mutate(ctx, s, id, 3, func(t *model.Tournament) error {
		t.Description = "bring snacks"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	got, err := s.FetchTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bring snacks", got.Description)
}

func TestMutateRetriesAfterLosingRace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	id, err := s.CreateTournament(ctx, &model.Tournament{Name: "Friday"})
	require.NoError(t, err)

	calls := 0
	saved, err := Mutate(ctx, s, id, 3, func(t *model.Tournament) error {
		calls++
		if calls == 1 {
			// Somebody else gets a write in first.
			other, err := s.FetchTournament(ctx, id)
			if err != nil {
				return err
			}
			other.Players = append(other.Players, &model.Player{PlayerID: "p", Name: "Pat"})
			if err := s.SaveTournament(ctx, other); err != nil {
				return err
			}
		}
		t.Description = "edited"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), saved.Version)

	got, err := s.FetchTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Description)
	require.Len(t, got.Players, 1, "the other writer's change must survive")
}

func TestMutateGivesUp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	id, err := s.CreateTournament(ctx, &model.Tournament{Name: "Friday"})
	require.NoError(t, err)

	calls := 0
	_, err = Mutate(ctx, s, id, 2, func(t *model.Tournament) error {
		calls++
		other, err := s.FetchTournament(ctx, id)
		if err != nil {
			return err
		}
		return s.SaveTournament(ctx, other)
	})
	assert.ErrorIs(t, err, ErrOptimisticLock)
	assert.Equal(t, 2, calls)
}

func TestMutateStopsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	id, err := s.CreateTournament(ctx, &model.Tournament{Name: "Friday"})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = Mutate(ctx, s, id, 3, func(t *model.Tournament) error {
		t.Name = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.FetchTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Friday", got.Name)
	assert.Equal(t, int64(0), got.Version)
}

func TestMutateMissingTournament(t *testing.T) {
	_, err := Mutate(context.Background(), NewMemoryStorage(), 9, 3, func(*model.Tournament) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}
