// Package webapp is the JSON API over the tournament manager.
package webapp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/ts4z/homegame/app/handlers"
	"github.com/ts4z/homegame/dep"
	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/metrics"
	"github.com/ts4z/homegame/middleware"
	"github.com/ts4z/homegame/state"
	"github.com/ts4z/homegame/tournament"
	"github.com/ts4z/homegame/urlpath"
	"github.com/ts4z/homegame/varz"
)

var (
	responsesWritten    = varz.NewInt("responsesWritten")
	errorWritingToClient = varz.NewInt("errorWritingToClient")
)

type nower interface {
	Now() time.Time
}

// Config holds the configuration for creating a new App.
type Config struct {
	Manager           *tournament.Manager
	Paytables         state.PaytableStorage
	Clock             nower
	AllowedOrigins    []string
	DefaultPaytableID int64
}

// App is the web application.
type App struct {
	tm                *tournament.Manager
	paytables         state.PaytableStorage
	clock             nower
	defaultPaytableID int64

	mux     *http.ServeMux
	handler http.Handler
}

// New creates an App with its routes installed.
func New(config *Config) *App {
	app := &App{
		tm:                dep.Required(config.Manager),
		paytables:         dep.Required(config.Paytables),
		clock:             dep.Required(config.Clock),
		defaultPaytableID: config.DefaultPaytableID,
		mux:               http.NewServeMux(),
	}

	for _, origin := range config.AllowedOrigins {
		log.Printf("CORS allowing origin %s", origin)
	}
	corsMW := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	logger := middleware.NewRequestLogger(app.mux, app.clock)
	app.handler = corsMW.Handler(logger)

	app.InstallHandlers()
	return app
}

// Handler returns the configured HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		he.SendErrorToHTTPClient(w, "marshal response", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	responsesWritten.Add(1)
	writ, err := w.Write(bytes)
	if err != nil {
		errorWritingToClient.Add(1)
		log.Printf("error writing to client: %v", err)
	} else if writ != len(bytes) {
		log.Println("short write to client")
	}
}

func (app *App) handleFunc(pattern string, handler func(context.Context, http.ResponseWriter, *http.Request)) {
	app.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		handler(r.Context(), w, r)
	})
}

func (app *App) handleFuncTakingID(pattern string, handler func(context.Context, int64, http.ResponseWriter, *http.Request)) {
	app.handleFunc(pattern, func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		id, ok := urlpath.IDPathValue(w, r)
		if !ok {
			return
		}
		handler(ctx, id, w, r)
	})
}

func (app *App) handleFuncTakingGame(pattern string, handler func(context.Context, int64, int64, http.ResponseWriter, *http.Request)) {
	app.handleFuncTakingID(pattern, func(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
		gameID, ok := urlpath.PathValue(w, r, "game")
		if !ok {
			return
		}
		handler(ctx, id, gameID, w, r)
	})
}

// InstallHandlers registers all HTTP routes.
func (app *App) InstallHandlers() {
	app.mux.HandleFunc("GET /robots.txt", handlers.HandleRobotsTXT)
	app.mux.HandleFunc("GET /healthz", handlers.HandleHealth)
	app.mux.Handle("GET /metrics", metrics.Handler())
	app.mux.Handle("GET /varz", varz.Handler())

	app.mux.Handle("GET /api/paytables", middleware.NewCacheHeaderAdder(http.HandlerFunc(app.handlePaytables), time.Hour))
	app.handleFuncTakingID("GET /api/paytables/{id}", app.handlePaytable)
	app.handleFunc("POST /api/distribute", app.handleDistribute)
	app.handleFunc("POST /api/structures/parse", app.handleParseStructure)

	app.handleFunc("GET /api/tournaments", app.handleListTournaments)
	app.handleFunc("POST /api/tournaments", app.handleCreateTournament)
	app.handleFuncTakingID("GET /api/tournaments/{id}", app.handleGetTournament)
	app.handleFuncTakingID("DELETE /api/tournaments/{id}", app.handleDeleteTournament)
	app.handleFuncTakingID("POST /api/tournaments/{id}/players", app.handleAddPlayer)

	app.handleFuncTakingID("POST /api/tournaments/{id}/games", app.handleCreateGame)
	app.handleFuncTakingGame("POST /api/tournaments/{id}/games/{game}/start", app.handleStartGame)
	app.handleFuncTakingGame("POST /api/tournaments/{id}/games/{game}/eliminate", app.handleEliminate)
	app.handleFuncTakingGame("POST /api/tournaments/{id}/games/{game}/undo-elimination", app.handleUndoElimination)
	app.handleFuncTakingGame("POST /api/tournaments/{id}/games/{game}/rebuy", app.handleRebuy)
	app.handleFuncTakingGame("POST /api/tournaments/{id}/games/{game}/end", app.handleEndGame)
	app.handleFuncTakingGame("POST /api/tournaments/{id}/games/{game}/clock", app.handleClock)
	app.handleFuncTakingGame("PUT /api/tournaments/{id}/games/{game}/pot", app.handleSetPot)

	app.handleFuncTakingID("POST /api/tournaments/{id}/settle", app.handleSettle)
	app.handleFuncTakingID("PUT /api/tournaments/{id}/settlement/transactions/{index}", app.handleMarkTransaction)
	app.handleFuncTakingID("GET /api/tournaments/{id}/ledger", app.handleLedger)
	app.handleFuncTakingID("GET /api/tournaments/{id}/standings", app.handleStandings)
}

// Wrapper to just return the input context.
func contextualizer(ctx context.Context) func(net.Listener) context.Context {
	return func(_ net.Listener) context.Context {
		return ctx
	}
}

// Serve runs the HTTP server until ctx is done or the listener fails.
func (app *App) Serve(ctx context.Context, listenAddress string) error {
	server := &http.Server{
		Addr:         listenAddress,
		Handler:      app.handler,
		BaseContext:  contextualizer(ctx),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}

	ch := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", listenAddress)
		ch <- server.ListenAndServe()
	}()

	select {
	case err := <-ch:
		return fmt.Errorf("server exited: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	}
}
