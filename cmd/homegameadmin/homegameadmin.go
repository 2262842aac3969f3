package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ts4z/homegame/config"
	"github.com/ts4z/homegame/dbutil"
	"github.com/ts4z/homegame/ledger"
	"github.com/ts4z/homegame/model"
	"github.com/ts4z/homegame/ocsv"
	"github.com/ts4z/homegame/paytable"
	"github.com/ts4z/homegame/state"
	"github.com/ts4z/homegame/textutil"
	"github.com/ts4z/homegame/tournament"
	"github.com/ts4z/homegame/ts"
)

func openStorage(ctx context.Context) (*state.DBStorage, error) {
	config.Init()
	db, err := dbutil.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return state.NewDBStorage(db), nil
}

// withManager runs f against a Manager backed by the configured database.
func withManager(f func(ctx context.Context, m *tournament.Manager) error) error {
	ctx := context.Background()
	storage, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	m := tournament.NewManager(&tournament.Config{
		Storage:            storage,
		Paytables:          state.NewBuiltinPaytableStorage(),
		Clock:              ts.NewRealClock(),
		MutateRetries:      config.MutateRetries(),
		StrictConservation: config.StrictConservation(),
	})
	return f(ctx, m)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return -1, fmt.Errorf("bad tournament id %q", s)
	}
	return id, nil
}

func initDB(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	storage, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()
	if err := storage.EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
	return nil
}

// computePrizes is the distribute command without the flags.  Only a split
// that can't be read is an error; an empty pool or a split that doesn't sum
// to 100 pays nothing.
func computePrizes(pool int64, split string, pt *paytable.Paytable, players int) (paytable.Prizes, error) {
	if split != "" {
		s, err := textutil.ParseSplit(split)
		if err != nil {
			return paytable.Prizes{}, err
		}
		prizes := paytable.Distribute(pool, s)
		if players > 0 {
			prizes = prizes.Collapse(players)
		}
		return prizes, nil
	}
	if players <= 0 {
		return paytable.Prizes{}, fmt.Errorf("--players is required with a paytable")
	}
	return pt.Payout(pool, players)
}

func distribute(cmd *cobra.Command, args []string) error {
	pt, err := state.NewBuiltinPaytableStorage().FetchPaytableByID(context.Background(), distPaytableID)
	if err != nil && distSplit == "" {
		return err
	}
	prizes, err := computePrizes(distPool, distSplit, pt, distPlayers)
	if err != nil {
		return err
	}
	printPrizes(cmd.OutOrStdout(), prizes)
	return nil
}

func printPrizes(w io.Writer, prizes paytable.Prizes) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for place := 1; place <= 3; place++ {
		amount := prizes.ForPlace(place)
		if amount == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", textutil.FormatPlace(place), textutil.FormatWhole(amount))
	}
	tw.Flush()
}

// readStructure reads a blind structure file: Oakleaf CSV if the name ends
// in .csv, otherwise one "DURATION -- LEVEL -- DESCRIPTION" per line.
func readStructure(path string) (*model.Structure, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ocsv.Import(f)
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	levels, err := model.ParseLevels(string(bytes))
	if err != nil {
		return nil, err
	}
	return &model.Structure{Levels: levels, RebuyUntilLevel: -1}, nil
}

func checkLevels(cmd *cobra.Command, args []string) error {
	s, err := readStructure(args[0])
	if err != nil {
		return err
	}
	printStructure(cmd.OutOrStdout(), s)
	return nil
}

func printStructure(w io.Writer, s *model.Structure) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, l := range s.Levels {
		kind := "LEVEL"
		if l.IsBreak {
			kind = "BREAK"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, textutil.FormatClock(l.Duration()), kind, l.Description)
	}
	tw.Flush()
	if s.RebuyUntilLevel >= 0 {
		fmt.Fprintf(w, "rebuys close after level %d\n", s.RebuyUntilLevel+1)
	}
}

func listTournaments(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, m *tournament.Manager) error {
		overview, err := m.FetchOverview(ctx, listOffset, listLimit)
		if err != nil {
			return err
		}
		printOverview(cmd.OutOrStdout(), overview)
		return nil
	})
}

func printOverview(w io.Writer, overview *model.Overview) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPLAYERS\tGAMES")
	for _, slug := range overview.Slugs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", slug.TournamentID, slug.Name, slug.Players, slug.Games)
	}
	tw.Flush()
}

func createTournament(cmd *cobra.Command, args []string) error {
	return withManager(func(ctx context.Context, m *tournament.Manager) error {
		paytableID := tournamentPaytableID
		if paytableID == 0 {
			paytableID = config.DefaultPaytableID()
		}
		t, err := m.CreateTournament(ctx, &tournament.TournamentSpec{
			Name:        args[0],
			Description: tournamentDescription,
			PaytableID:  paytableID,
			Players:     tournamentPlayers,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created tournament %d\n", t.TournamentID)
		return nil
	})
}

func showTournament(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withManager(func(ctx context.Context, m *tournament.Manager) error {
		t, err := m.FetchTournament(ctx, id)
		if err != nil {
			return err
		}
		printTournament(cmd.OutOrStdout(), t)
		return nil
	})
}

func printTournament(w io.Writer, t *model.Tournament) {
	created := t.CreatedAt
	fmt.Fprintf(w, "%s (#%d, version %d)\n", t.Name, t.TournamentID, t.Version)
	if t.Description != "" {
		fmt.Fprintln(w, t.Description)
	}
	fmt.Fprintf(w, "created %s, paytable %d\n", ts.Format(&created), t.PaytableID)

	fmt.Fprintln(w, "\nplayers:")
	for _, p := range t.Players {
		fmt.Fprintf(w, "  %s\n", p.Name)
	}

	for _, g := range t.Games {
		fmt.Fprintf(w, "\n%s: %s, buy-in %s, rebuy %s, %d entrants, %s\n",
			g.Name, g.Status, textutil.FormatWhole(g.BuyIn), textutil.FormatWhole(g.RebuyAmount),
			len(g.Entrants), g.Accounting.Kind)
		if g.Status == model.GameInProgress {
			fmt.Fprintf(w, "  %d remaining\n", g.Remaining())
		}
		if len(g.Results) == 0 {
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, r := range g.Results {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d pts\n", textutil.FormatPlace(r.Rank), r.Name, textutil.FormatWhole(r.Winnings), r.Points)
		}
		tw.Flush()
	}

	if t.Settlement != nil {
		fmt.Fprintln(w)
		printSettlement(w, t.Settlement)
	}
}

func deleteTournament(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withManager(func(ctx context.Context, m *tournament.Manager) error {
		if err := m.DeleteTournament(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted tournament %d\n", id)
		return nil
	})
}

func settleTournament(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withManager(func(ctx context.Context, m *tournament.Manager) error {
		s, err := m.Settle(ctx, id)
		if err != nil {
			return err
		}
		printSettlement(cmd.OutOrStdout(), s)
		return nil
	})
}

func printSettlement(w io.Writer, s *model.Settlement) {
	fmt.Fprintf(w, "settlement (%s", s.Mode)
	if s.Mode == model.AccountingPotBased {
		fmt.Fprintf(w, ", pot %s", textutil.FormatMoney(s.TotalPot))
	}
	fmt.Fprintln(w, "):")
	if len(s.Transactions) == 0 {
		fmt.Fprintln(w, "  nobody owes anything")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, tx := range s.Transactions {
		done := ""
		if tx.Completed {
			done = "paid"
		}
		fmt.Fprintf(tw, "  %d\t%s\t->\t%s\t%s\t%s\n", i, tx.FromName, tx.ToName, textutil.FormatMoney(tx.Amount), done)
	}
	tw.Flush()
	fmt.Fprintf(w, "outstanding: %s\n", textutil.FormatMoney(s.Outstanding()))
}

func showLedger(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withManager(func(ctx context.Context, m *tournament.Manager) error {
		l, err := m.Ledger(ctx, id)
		if err != nil {
			return err
		}
		printLedger(cmd.OutOrStdout(), l)
		return nil
	})
}

func printLedger(w io.Writer, l *ledger.Ledger) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range l.Balances {
		fmt.Fprintf(tw, "%s\t%s\n", b.Name, textutil.FormatMoney(b.Balance))
	}
	tw.Flush()
	if l.Mode == model.AccountingPotBased {
		fmt.Fprintf(w, "pot: %s\n", textutil.FormatMoney(l.TotalPot))
	}
	if err := l.Check(); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}
}

func showStandings(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withManager(func(ctx context.Context, m *tournament.Manager) error {
		standings, err := m.Standings(ctx, id)
		if err != nil {
			return err
		}
		printStandings(cmd.OutOrStdout(), standings)
		return nil
	})
}

func printStandings(w io.Writer, standings []ledger.Standing) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tPOINTS\tWINS\tWINNINGS\tNET")
	for _, s := range standings {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\n",
			s.Rank, s.Name, s.Points, s.Wins, textutil.FormatWhole(s.Winnings), textutil.FormatMoney(s.Net))
	}
	tw.Flush()
}
