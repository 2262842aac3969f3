package dbnotify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ts4z/homegame/dbcache"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/state"
)

type recordingNotifier struct {
	updated []*model.Tournament
	deleted []int64
}

func (n *recordingNotifier) NotifyUpdated(_ context.Context, t *model.Tournament) {
	n.updated = append(n.updated, t)
}

func (n *recordingNotifier) NotifyDeleted(_ context.Context, id int64) {
	n.deleted = append(n.deleted, id)
}

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent(`{"Table":"tournaments","OnID":7,"Version":3}`)
	require.NoError(t, err)
	assert.Equal(t, &NotificationEvent{Table: "tournaments", OnID: 7, Version: 3}, event)

	_, err = ParseEvent(`{"OnID":7}`)
	assert.Error(t, err)
	_, err = ParseEvent(`not json`)
	assert.Error(t, err)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "tournaments_changes", ChannelName("tournaments"))
}

func TestDispatchRefreshesCache(t *testing.T) {
	ctx := context.Background()
	backing := state.NewMemoryStorage()
	cache := dbcache.NewTournamentStorage(10, backing)
	notifier := &recordingNotifier{}
	listener, err := NewDBNotifyListener(nil, NewChangeDispatcher[*model.Tournament]("tournaments", notifier, cache, cache))
	require.NoError(t, err)

	id, err := backing.CreateTournament(ctx, &model.Tournament{Name: "before"})
	require.NoError(t, err)
	_, err = cache.FetchTournament(ctx, id)
	require.NoError(t, err)

	// Somebody else writes straight to the database.
	changed, err := backing.FetchTournament(ctx, id)
	require.NoError(t, err)
	changed.Name = "after"
	require.NoError(t, backing.SaveTournament(ctx, changed))

	stale, err := cache.FetchTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "before", stale.Name)

	listener.Dispatch(ctx, &NotificationEvent{Table: "tournaments", OnID: id, Version: changed.Version})

	fresh, err := cache.FetchTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "after", fresh.Name)
	require.Len(t, notifier.updated, 1)
	assert.Equal(t, changed.Version, notifier.updated[0].Version)

	require.NoError(t, backing.DeleteTournament(ctx, id))
	listener.Dispatch(ctx, &NotificationEvent{Table: "tournaments", OnID: id, Version: changed.Version + 1})
	assert.Equal(t, []int64{id}, notifier.deleted)
	_, err = cache.FetchTournament(ctx, id)
	assert.ErrorIs(t, err, state.ErrNotFound)

	// Nobody listens for this one.
	listener.Dispatch(ctx, &NotificationEvent{Table: "players", OnID: 1})
	assert.Len(t, notifier.updated, 1)
}

func TestDuplicateConsumers(t *testing.T) {
	cache := dbcache.NewTournamentStorage(1, state.NewMemoryStorage())
	d := NewChangeDispatcher[*model.Tournament]("tournaments", nil, cache, cache)
	_, err := NewDBNotifyListener(nil, d, d)
	assert.Error(t, err)
}
