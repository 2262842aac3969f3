/*
Package dbnotify is a backchannel from the database: when another server
writes a tournament, Postgres tells us (via the trigger in state/schema.sql)
and we drop our cached copy.
*/
package dbnotify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ts4z/homegame/state"
	"github.com/ts4z/homegame/varz"
)

const (
	sleepOnErrorTime = 5 * time.Second
)

var (
	notificationsReceived = varz.NewInt("dbNotificationsReceived")
	notificationsDropped  = varz.NewInt("dbNotificationsDropped")
)

// NotificationEvent is the JSON payload the trigger sends.
type NotificationEvent struct {
	Table   string
	OnID    int64
	Version int64
}

// ChannelName is the LISTEN channel for a table.
func ChannelName(table string) string {
	return table + "_changes"
}

func ParseEvent(payload string) (*NotificationEvent, error) {
	event := &NotificationEvent{}
	if err := json.Unmarshal([]byte(payload), event); err != nil {
		return nil, fmt.Errorf("can't unmarshal notification payload %q: %w", payload, err)
	}
	if event.Table == "" {
		return nil, fmt.Errorf("notification payload %q names no table", payload)
	}
	return event, nil
}

type CacheStorage interface {
	CacheInvalidate(ctx context.Context, key int64, version int64)
}

type StorageFetcher[StoredType any] interface {
	Fetch(ctx context.Context, id int64) (StoredType, error)
}

// ChangeNotifier hears about changed items after the cache has been
// refreshed.  Optional.
type ChangeNotifier[StoredType any] interface {
	NotifyUpdated(ctx context.Context, m StoredType)
	NotifyDeleted(ctx context.Context, id int64)
}

type Consumer interface {
	TableName() string
	Consume(ctx context.Context, event *NotificationEvent)
}

// ChangeDispatcher is a Consumer that invalidates a cache and reads the
// item back through it.
type ChangeDispatcher[StoredType any] struct {
	tableName string
	notifier  ChangeNotifier[StoredType]
	cache     CacheStorage
	fetcher   StorageFetcher[StoredType]
}

var _ Consumer = (*ChangeDispatcher[int])(nil)

func NewChangeDispatcher[StoredType any](tableName string, notifier ChangeNotifier[StoredType], cache CacheStorage, fetcher StorageFetcher[StoredType]) *ChangeDispatcher[StoredType] {
	return &ChangeDispatcher[StoredType]{
		tableName: tableName,
		notifier:  notifier,
		cache:     cache,
		fetcher:   fetcher,
	}
}

func (cd *ChangeDispatcher[StoredType]) TableName() string {
	return cd.tableName
}

func (cd *ChangeDispatcher[StoredType]) Consume(ctx context.Context, event *NotificationEvent) {
	cd.cache.CacheInvalidate(ctx, event.OnID, event.Version)

	// Read-through, so the next request finds it warm.
	item, err := cd.fetcher.Fetch(ctx, event.OnID)
	if errors.Is(err, state.ErrNotFound) {
		log.Printf("debug: %s %d is gone", cd.tableName, event.OnID)
		if cd.notifier != nil {
			cd.notifier.NotifyDeleted(ctx, event.OnID)
		}
		return
	}
	if err != nil {
		notificationsDropped.Add(1)
		log.Printf("drop notification: can't fetch %s %d: %v", cd.tableName, event.OnID, err)
		return
	}

	if cd.notifier != nil {
		cd.notifier.NotifyUpdated(ctx, item)
	}
}

// DBNotifyListener holds a connection in LISTEN mode and hands events to
// the consumer for their table.
type DBNotifyListener struct {
	db        *sql.DB
	consumers map[string]Consumer
}

func NewDBNotifyListener(db *sql.DB, consumers ...Consumer) (*DBNotifyListener, error) {
	m := make(map[string]Consumer)
	for _, c := range consumers {
		tableName := c.TableName()
		if _, exists := m[tableName]; exists {
			return nil, fmt.Errorf("duplicate consumer for table %s", tableName)
		}
		m[tableName] = c
	}
	return &DBNotifyListener{db: db, consumers: m}, nil
}

// Dispatch hands one event to its consumer.
func (cl *DBNotifyListener) Dispatch(ctx context.Context, event *NotificationEvent) {
	notificationsReceived.Add(1)
	c, ok := cl.consumers[event.Table]
	if !ok {
		notificationsDropped.Add(1)
		log.Printf("no listener for table %s", event.Table)
		return
	}
	c.Consume(ctx, event)
}

// Listen blocks until ctx is done or the connection fails.
func (cl *DBNotifyListener) Listen(ctx context.Context) error {
	conn, err := cl.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var pgxConn *stdlib.Conn
	err = conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("driver connection is %T, not pgx", driverConn)
		}
		pgxConn = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to get pgx connection: %w", err)
	}

	for table := range cl.consumers {
		channel := ChannelName(table)
		if _, err := pgxConn.Conn().Exec(ctx, "LISTEN "+channel); err != nil {
			return fmt.Errorf("failed to listen on channel %s: %w", channel, err)
		}
	}

	ch := make(chan *NotificationEvent)
	go cl.consumeEvents(ctx, ch)
	defer close(ch)

	for {
		var notification *pgconn.Notification
		notification, err = pgxConn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error waiting for notification: %w", err)
		}

		event, err := ParseEvent(notification.Payload)
		if err != nil {
			log.Printf("warning: %v", err)
			time.Sleep(sleepOnErrorTime)
			continue
		}
		ch <- event
	}
}

// ListenForever restarts Listen after failures until ctx is done.
func (cl *DBNotifyListener) ListenForever(ctx context.Context) {
	for {
		err := cl.Listen(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("db notification listener failed, restarting: %v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepOnErrorTime):
		}
	}
}

func (cl *DBNotifyListener) consumeEvents(ctx context.Context, ch <-chan *NotificationEvent) {
	for event := range ch {
		log.Printf("debug: db notification %+v", event)
		cl.Dispatch(ctx, event)
	}
}
