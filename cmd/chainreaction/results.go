package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chain-reaction/internal/storage"
)

var (
	flagLimit    int
	flagStrategy string
	flagClear    bool
)

var resultsCmd = &cobra.Command{
	Use:   "results [run-id]",
	Short: "Show stored simulation results",
	Long: `Display recent simulation runs, one run in detail, or how each strategy
fared across every stored run.

Examples:
  chainreaction results
  chainreaction results --limit 20
  chainreaction results 3f1c2b9e-...
  chainreaction results --strategy form-chains
  chainreaction results --clear`,
	Args: cobra.MaximumNArgs(1),
	Run:  runResults,
}

func init() {
	resultsCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of recent runs to show")
	resultsCmd.Flags().StringVar(&flagStrategy, "strategy", "", "Show total wins of one strategy")
	resultsCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all stored runs")
}

func runResults(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("loading config: %v", err)
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		fail("opening results database: %v", err)
	}
	defer store.Close()

	switch {
	case flagClear:
		if err := store.ClearRuns(); err != nil {
			fail("%v", err)
		}
		fmt.Println("All runs deleted.")

	case len(args) == 1:
		showRun(store, args[0])

	case flagStrategy != "":
		wins, err := store.StrategyWins(flagStrategy)
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("%s won %d games across all stored runs.\n", flagStrategy, wins)

	default:
		showRecent(store)
		fmt.Println()
		showStrategies(store)
	}
}

func showRecent(store *storage.Store) {
	runs, err := store.RecentRuns(flagLimit)
	if err != nil {
		fail("retrieving runs: %v", err)
	}

	fmt.Println("Recent Runs")
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'chainreaction simulate' to record the first one!")
		return
	}

	fmt.Printf("  %-8s  %-16s  %-5s  %-9s  %-30s  %s\n", "ID", "Date", "Board", "Games", "Players", "Tally")
	fmt.Printf("  %-8s  %-16s  %-5s  %-9s  %-30s  %s\n", "--", "----", "-----", "-----", "-------", "-----")

	for _, r := range runs {
		games := fmt.Sprintf("%d/%d", r.GamesPlayed, r.GamesRequested)
		if r.Cancelled {
			games += "*"
		}
		fmt.Printf("  %-8s  %-16s  %-5s  %-9s  %-30s  %s\n",
			r.RunID[:min(8, len(r.RunID))],
			r.CreatedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			games,
			truncate(strings.Join(r.Players, ","), 30),
			joinTally(r.Tally))
	}
	fmt.Println()
	fmt.Println("* stopped early")
}

func showRun(store *storage.Store, runID string) {
	r, err := store.RunByID(runID)
	if err != nil {
		fail("%v", err)
	}
	if r == nil {
		fail("no run %q", runID)
	}

	fmt.Printf("Run %s\n", r.RunID)
	fmt.Println()
	fmt.Printf("  Date:     %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Board:    %dx%d\n", r.Width, r.Height)
	fmt.Printf("  Games:    %d of %d\n", r.GamesPlayed, r.GamesRequested)
	fmt.Printf("  Duration: %v\n", r.Duration)
	if r.Cancelled {
		fmt.Println("  Stopped early")
	}
	fmt.Println()

	for seat, id := range r.Players {
		marker := " "
		if seat == r.Winner() {
			marker = "*"
		}
		fmt.Printf(" %s %d. %-16s %d\n", marker, seat+1, id, r.Tally[seat])
	}
}

func showStrategies(store *storage.Store) {
	stats, err := store.StrategyStats()
	if err != nil {
		fail("%v", err)
	}
	if len(stats) == 0 {
		return
	}

	fmt.Println("Strategies")
	fmt.Println()
	fmt.Printf("  %-16s  %6s  %6s  %6s  %6s\n", "Strategy", "Seats", "Games", "Wins", "Rate")
	fmt.Printf("  %-16s  %6s  %6s  %6s  %6s\n", "--------", "-----", "-----", "----", "----")
	for _, st := range stats {
		fmt.Printf("  %-16s  %6d  %6d  %6d  %5.1f%%\n",
			st.StrategyID, st.Seats, st.Games, st.Wins, 100*st.WinRate())
	}
}

func joinTally(tally []int) string {
	parts := make([]string, len(tally))
	for i, wins := range tally {
		parts[i] = fmt.Sprint(wins)
	}
	return strings.Join(parts, "-")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "."
}
