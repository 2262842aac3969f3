package webapp

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/ledger"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/ocsv"
	"github.com/ts4z/homegame/paytable"
	"github.com/ts4z/homegame/settle"
	"github.com/ts4z/homegame/textutil"
	"github.com/ts4z/homegame/tournament"
	"github.com/ts4z/homegame/urlpath"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxStructureLen = 64 << 10
)

type playerRequest struct {
	PlayerID string `json:"player_id" validate:"required,max=64"`
}

type addPlayerRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

type clockRequest struct {
	Command string `json:"command" validate:"required,oneof=start stop advance previous plus"`
	// Duration is MM:SS or HH:MM:SS, possibly negative.  Only used by "plus".
	Duration string `json:"duration" validate:"required_if=Command plus,max=16"`
}

type potRequest struct {
	Contributions []model.PotContribution `json:"contributions" validate:"max=100"`
}

type markRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// distributeRequest is a what-if: split a pool without any tournament.
// Either Split or PaytableID (with Players) picks the percentages.  A zero
// pool or a split that doesn't sum to 100 gets zero prizes, not an error,
// since clients ask before the configuration is finished.
type distributeRequest struct {
	Pool       int64           `json:"pool"`
	Split      *paytable.Split `json:"split,omitempty"`
	PaytableID int64           `json:"paytable_id" validate:"gte=0"`
	Players    int             `json:"players" validate:"gte=0,lte=1000"`
}

type ledgerResponse struct {
	Mode     model.AccountingKind `json:"mode"`
	TotalPot float64              `json:"total_pot"`
	GameIDs  []int64              `json:"game_ids"`
	Balances []settle.Balance     `json:"balances"`
	Balanced bool                 `json:"balanced"`
	Problem  string               `json:"problem,omitempty"`
}

func (app *App) handlePaytables(w http.ResponseWriter, r *http.Request) {
	slugs, err := app.paytables.FetchPaytableSlugs(r.Context())
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch paytables", err)
		return
	}
	writeJSON(w, http.StatusOK, slugs)
}

func (app *App) handlePaytable(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	pt, err := app.paytables.FetchPaytableByID(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch paytable", err)
		return
	}
	writeJSON(w, http.StatusOK, pt)
}

func (app *App) handleDistribute(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	req := &distributeRequest{}
	if err := decode(r, req); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}

	if req.Split != nil {
		prizes := paytable.Distribute(req.Pool, *req.Split)
		if req.Players > 0 {
			prizes = prizes.Collapse(req.Players)
		}
		writeJSON(w, http.StatusOK, prizes)
		return
	}

	id := req.PaytableID
	if id == 0 {
		id = app.defaultPaytableID
	}
	pt, err := app.paytables.FetchPaytableByID(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch paytable", err)
		return
	}
	if req.Players == 0 {
		he.SendErrorToHTTPClient(w, "distribute", he.HTTPCodedErrorf(http.StatusBadRequest, "players is required with a paytable"))
		return
	}
	prizes, err := pt.Payout(req.Pool, req.Players)
	if err != nil {
		he.SendErrorToHTTPClient(w, "distribute", he.New(http.StatusBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, prizes)
}

func (app *App) handleListTournaments(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	offset, err := urlpath.IntQuery(r, "offset", 0)
	if err != nil {
		he.SendErrorToHTTPClient(w, "parse query", err)
		return
	}
	limit, err := urlpath.IntQuery(r, "limit", defaultPageSize)
	if err != nil {
		he.SendErrorToHTTPClient(w, "parse query", err)
		return
	}
	limit = min(max(limit, 1), maxPageSize)

	overview, err := app.tm.FetchOverview(ctx, offset, limit)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch tournaments", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (app *App) handleCreateTournament(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	spec := &tournament.TournamentSpec{}
	if err := decode(r, spec); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}
	if spec.PaytableID == 0 {
		spec.PaytableID = app.defaultPaytableID
	}
	t, err := app.tm.CreateTournament(ctx, spec)
	if err != nil {
		he.SendErrorToHTTPClient(w, "create tournament", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (app *App) handleGetTournament(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	t, err := app.tm.FetchTournament(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch tournament", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *App) handleDeleteTournament(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	if err := app.tm.DeleteTournament(ctx, id); err != nil {
		he.SendErrorToHTTPClient(w, "delete tournament", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) handleAddPlayer(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	req := &addPlayerRequest{}
	if err := decode(r, req); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}
	p, err := app.tm.AddPlayer(ctx, id, req.Name)
	if err != nil {
		he.SendErrorToHTTPClient(w, "add player", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (app *App) handleCreateGame(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	spec := &tournament.GameSpec{}
	if err := decode(r, spec); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}
	g, err := app.tm.CreateGame(ctx, id, spec)
	if err != nil {
		he.SendErrorToHTTPClient(w, "create game", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// writeGame answers with the one game a mutation touched.
func writeGame(w http.ResponseWriter, while string, t *model.Tournament, gameID int64, err error) {
	if err != nil {
		he.SendErrorToHTTPClient(w, while, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Game(gameID))
}

func (app *App) handleStartGame(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request) {
	t, err := app.tm.StartGame(ctx, id, gameID)
	writeGame(w, "start game", t, gameID, err)
}

func (app *App) handlePlayerAction(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request,
	while string, f func(context.Context, int64, int64, string) (*model.Tournament, error)) {
	req := &playerRequest{}
	if err := decode(r, req); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}
	t, err := f(ctx, id, gameID, req.PlayerID)
	writeGame(w, while, t, gameID, err)
}

func (app *App) handleEliminate(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request) {
	app.handlePlayerAction(ctx, id, gameID, w, r, "eliminate", app.tm.Eliminate)
}

func (app *App) handleUndoElimination(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request) {
	app.handlePlayerAction(ctx, id, gameID, w, r, "undo elimination", app.tm.UndoElimination)
}

func (app *App) handleRebuy(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request) {
	app.handlePlayerAction(ctx, id, gameID, w, r, "rebuy", app.tm.Rebuy)
}

func (app *App) handleEndGame(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request) {
	t, err := app.tm.EndGame(ctx, id, gameID)
	writeGame(w, "end game", t, gameID, err)
}

func (app *App) handleClock(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request) {
	req := &clockRequest{}
	if err := decode(r, req); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}
	cmd := tournament.ClockCommand(req.Command)
	var d time.Duration
	if cmd == tournament.ClockPlusTime {
		parsed, err := textutil.ParseDuration(req.Duration)
		if err != nil {
			he.SendErrorToHTTPClient(w, "parse duration", he.New(http.StatusBadRequest, err))
			return
		}
		d = parsed
	}
	t, err := app.tm.Clock(ctx, id, gameID, cmd, d)
	writeGame(w, "run clock", t, gameID, err)
}

func (app *App) handleSetPot(ctx context.Context, id, gameID int64, w http.ResponseWriter, r *http.Request) {
	req := &potRequest{}
	if err := decode(r, req); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}
	t, err := app.tm.SetPotContributions(ctx, id, gameID, req.Contributions)
	writeGame(w, "set pot contributions", t, gameID, err)
}

func (app *App) handleSettle(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	s, err := app.tm.Settle(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "settle", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (app *App) handleMarkTransaction(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	index, ok := urlpath.PathValue(w, r, "index")
	if !ok {
		return
	}
	req := &markRequest{}
	if err := decode(r, req); err != nil {
		he.SendErrorToHTTPClient(w, "decode request", err)
		return
	}
	s, err := app.tm.MarkTransaction(ctx, id, int(index), *req.Completed)
	if err != nil {
		he.SendErrorToHTTPClient(w, "mark transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (app *App) handleLedger(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	l, err := app.tm.Ledger(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "compute ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, newLedgerResponse(l))
}

func newLedgerResponse(l *ledger.Ledger) *ledgerResponse {
	resp := &ledgerResponse{
		Mode:     l.Mode,
		TotalPot: l.TotalPot,
		GameIDs:  l.GameIDs,
		Balances: l.Balances,
		Balanced: true,
	}
	if resp.GameIDs == nil {
		resp.GameIDs = []int64{}
	}
	if err := l.Check(); err != nil {
		resp.Balanced = false
		resp.Problem = err.Error()
	}
	return resp
}

func (app *App) handleStandings(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	standings, err := app.tm.Standings(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "compute standings", err)
		return
	}
	if standings == nil {
		standings = []ledger.Standing{}
	}
	writeJSON(w, http.StatusOK, standings)
}

// handleParseStructure turns a structure file into JSON suitable for a new
// game.  Oakleaf CSV is read if the body is text/csv; anything else is taken
// as one "DURATION -- LEVEL -- DESCRIPTION" per line.
func (app *App) handleParseStructure(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxStructureLen)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var s *model.Structure
	var err error
	if mediaType == "text/csv" {
		s, err = ocsv.Import(body)
	} else {
		var bytes []byte
		if bytes, err = io.ReadAll(body); err == nil {
			var levels []*model.Level
			if levels, err = model.ParseLevels(string(bytes)); err == nil {
				s = &model.Structure{Levels: levels, RebuyUntilLevel: -1}
			}
		}
	}
	if err != nil {
		he.SendErrorToHTTPClient(w, "parse structure", he.New(http.StatusBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, s)
}
