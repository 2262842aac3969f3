package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	distPool       int64
	distSplit      string
	distPaytableID int64
	distPlayers    int

	tournamentDescription string
	tournamentPaytableID  int64
	tournamentPlayers     []string

	listOffset int
	listLimit  int
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Short:        "Home game administration tool",
		Use:          "homegameadmin",
		SilenceUsage: true,
	}

	initDBCmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create the database tables and triggers",
		Args:  cobra.NoArgs,
		RunE:  initDB,
	}

	distributeCmd := &cobra.Command{
		Use:   "distribute",
		Short: "Show how a prize pool would be paid out",
		Args:  cobra.NoArgs,
		RunE:  distribute,
	}
	distributeCmd.Flags().Int64Var(&distPool, "pool", 0, "Prize pool in whole dollars")
	distributeCmd.Flags().StringVar(&distSplit, "split", "", "Split like 60/25/15 (overrides --paytable)")
	distributeCmd.Flags().Int64Var(&distPaytableID, "paytable", 1, "Paytable ID")
	distributeCmd.Flags().IntVar(&distPlayers, "players", 0, "Number of entrants")
	_ = distributeCmd.MarkFlagRequired("pool")

	levelsCmd := &cobra.Command{
		Use:   "levels FILE",
		Short: "Check a blind structure file and print it",
		Args:  cobra.ExactArgs(1),
		RunE:  checkLevels,
	}

	tournamentCmd := &cobra.Command{
		Use:   "tournament",
		Short: "Manage tournaments",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tournaments",
		Args:  cobra.NoArgs,
		RunE:  listTournaments,
	}
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip this many tournaments")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Show at most this many tournaments")

	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a tournament",
		Args:  cobra.ExactArgs(1),
		RunE:  createTournament,
	}
	createCmd.Flags().StringVar(&tournamentDescription, "description", "", "Description")
	createCmd.Flags().Int64Var(&tournamentPaytableID, "paytable", 0, "Paytable ID (default from config)")
	createCmd.Flags().StringSliceVar(&tournamentPlayers, "player", nil, "Player name (repeatable)")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a tournament and its games",
		Args:  cobra.ExactArgs(1),
		RunE:  showTournament,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a tournament",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteTournament,
	}

	tournamentCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd)

	settleCmd := &cobra.Command{
		Use:   "settle ID",
		Short: "Compute and save who pays whom",
		Args:  cobra.ExactArgs(1),
		RunE:  settleTournament,
	}

	ledgerCmd := &cobra.Command{
		Use:   "ledger ID",
		Short: "Show every player's balance",
		Args:  cobra.ExactArgs(1),
		RunE:  showLedger,
	}

	standingsCmd := &cobra.Command{
		Use:   "standings ID",
		Short: "Show points and winnings across ended games",
		Args:  cobra.ExactArgs(1),
		RunE:  showStandings,
	}

	rootCmd.AddCommand(initDBCmd, distributeCmd, levelsCmd, tournamentCmd, settleCmd, ledgerCmd, standingsCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
