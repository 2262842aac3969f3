package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ts4z/homegame/config"
	"github.com/ts4z/homegame/dbcache"
	"github.com/ts4z/homegame/dbnotify"
	"github.com/ts4z/homegame/dbutil"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/state"
	"github.com/ts4z/homegame/tournament"
	"github.com/ts4z/homegame/ts"
	"github.com/ts4z/homegame/webapp"
)

const memoryConnector = "memory"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	config.Init()

	clock := ts.NewRealClock()

	var backing state.TournamentStorage
	var dbStorage *state.DBStorage
	if config.SQLConnector() == memoryConnector {
		log.Printf("warning: using in-memory storage; nothing will survive a restart")
		backing = state.NewMemoryStorage()
	} else {
		db, err := dbutil.Connect(ctx)
		if err != nil {
			log.Fatalf("can't configure database: %v", err)
		}
		dbStorage = state.NewDBStorage(db)
		defer dbStorage.Close()
		if err := dbStorage.EnsureSchema(ctx); err != nil {
			log.Fatalf("can't set up schema: %v", err)
		}
		backing = dbStorage
	}

	cache := dbcache.NewTournamentStorage(config.CacheSize(), backing)

	if dbStorage != nil {
		dispatcher := dbnotify.NewChangeDispatcher[*model.Tournament]("tournaments", nil, cache, cache)
		listener, err := dbnotify.NewDBNotifyListener(dbStorage.DB(), dispatcher)
		if err != nil {
			log.Fatalf("can't create db listener: %v", err)
		}
		go listener.ListenForever(ctx)
	}

	paytables := state.NewBuiltinPaytableStorage()
	if _, err := paytables.FetchPaytableByID(ctx, config.DefaultPaytableID()); err != nil {
		log.Fatalf("default paytable: %v", err)
	}

	manager := tournament.NewManager(&tournament.Config{
		Storage:            cache,
		Paytables:          paytables,
		Clock:              clock,
		MutateRetries:      config.MutateRetries(),
		StrictConservation: config.StrictConservation(),
	})

	app := webapp.New(&webapp.Config{
		Manager:           manager,
		Paytables:         paytables,
		Clock:             clock,
		AllowedOrigins:    config.AllowedOrigins(),
		DefaultPaytableID: config.DefaultPaytableID(),
	})

	if err := app.Serve(ctx, config.ListenAddress()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("can't serve: %v", err)
	}
	log.Printf("shut down")
}
