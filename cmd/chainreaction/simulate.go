package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/chain-reaction/internal/config"
	"github.com/vovakirdan/chain-reaction/internal/player"
	"github.com/vovakirdan/chain-reaction/internal/runner"
	"github.com/vovakirdan/chain-reaction/internal/storage"
	"github.com/vovakirdan/chain-reaction/internal/task"
)

var (
	flagWidth   int
	flagHeight  int
	flagRuns    int
	flagPlayers []string
	flagPace    string
	flagSave    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run many games between strategies",
	Long: `Play a series of games between bot strategies and tally the winners.

Board size, players and run count default to the config file. Press Ctrl+C
to stop early; the games finished so far are still reported and saved.

Pace presets (delays between visual steps):
  instant - No delays (default)
  fast    - Short delays
  normal  - Delays of the interactive game
  slow    - Long delays

Examples:
  chainreaction simulate
  chainreaction simulate --players random,avoid-others,form-chains --runs 500
  chainreaction simulate --width 8 --height 8 --seed 42 --save=false`,
	Args: cobra.NoArgs,
	Run:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagWidth, "width", 0, "Board width (default: from config)")
	simulateCmd.Flags().IntVar(&flagHeight, "height", 0, "Board height (default: from config)")
	simulateCmd.Flags().IntVar(&flagRuns, "runs", 0, "Number of games (default: from config)")
	simulateCmd.Flags().StringSliceVar(&flagPlayers, "players", nil, "Comma separated strategy IDs, one per seat")
	simulateCmd.Flags().StringVar(&flagPace, "pace", string(config.PaceInstant), "Pace preset: instant, fast, normal, slow")
	simulateCmd.Flags().BoolVar(&flagSave, "save", true, "Save the run summary to the results database")
}

// applyBoardFlags overrides the config with the board and player flags.
func applyBoardFlags(cfg *config.Config) {
	if flagWidth > 0 {
		cfg.Board.Width = flagWidth
	}
	if flagHeight > 0 {
		cfg.Board.Height = flagHeight
	}
	if flagRuns > 0 {
		cfg.Runs = flagRuns
	}
	if len(flagPlayers) > 0 {
		cfg.Players = flagPlayers
	}
}

func runSimulate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("loading config: %v", err)
	}
	applyBoardFlags(&cfg)

	if err := config.ApplyPacePreset(&cfg, config.PacePreset(flagPace)); err != nil {
		fail("%v", err)
	}
	if cfg.Pace.Manual {
		fail("manual pace needs the interactive game; use 'chainreaction play'")
	}
	if err := cfg.Validate(player.Exists); err != nil {
		fail("%v", err)
	}
	if slices.Contains(cfg.Players, player.IDHuman) {
		fail("simulate runs bots only; use 'chainreaction play' to join a game")
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fail("%v", err)
	}

	strategies, err := player.CreateAll(cfg.Players, player.Options{Rand: newRand(cfg.Seed, logger)})
	if err != nil {
		fail("%v", err)
	}

	r, err := runner.New(cfg.Board.Width, cfg.Board.Height, strategies,
		runner.WithLogger(logger),
		runner.WithPace(runner.Pace{
			Turn:      cfg.Pace.TurnDelay,
			Explosion: cfg.Pace.ExplosionDelay,
			Game:      cfg.Pace.GameDelay,
		}),
	)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Live progress only when a person is watching.
	progress := term.IsTerminal(int(os.Stderr.Fd()))

	res, err := simulate(ctx, r, cfg.Runs, func(winner, n int) {
		if progress {
			fmt.Fprintf(os.Stderr, "\rgame %d/%d  last winner: seat %d (%s)  ", n, cfg.Runs, winner+1, cfg.Players[winner])
		}
	})
	if err != nil {
		fail("%v", err)
	}
	if progress {
		fmt.Fprintln(os.Stderr)
	}

	printTally(cfg, res.tally, res.played, res.elapsed)

	if flagSave && res.played > 0 {
		saveRun(cfg, res)
	}

	if res.err != nil {
		fail("simulation stopped: %v", res.err)
	}
}

// outcome summarizes one simulate run.
type outcome struct {
	tally     []int
	played    int
	cancelled bool
	elapsed   time.Duration
	err       error
}

// simulate plays runs games on r and waits for them. The returned error is
// only for a run that could not start; a run stopped by a failure reports
// it in outcome.err.
func simulate(ctx context.Context, r *runner.Runner, runs int, onGame func(winner, n int)) (outcome, error) {
	var res outcome
	started := time.Now()

	t, err := r.Run(ctx, runs, func(winner, n int, _ []int) {
		res.played = n
		if onGame != nil {
			onGame(winner, n)
		}
	})
	if err != nil {
		return res, err
	}

	// The callback runs on the run goroutine; Wait synchronizes with it.
	res.tally, res.err = t.Wait()
	res.elapsed = time.Since(started)
	res.cancelled = interrupted(ctx, t)
	return res, nil
}

// interrupted reports whether the run was stopped by the user rather than
// finishing or failing.
func interrupted[T any](ctx context.Context, t *task.Task[T]) bool {
	return ctx.Err() != nil || t.Cancelled()
}

// printTally prints the wins per seat.
func printTally(cfg config.Config, tally []int, played int, elapsed time.Duration) {
	fmt.Printf("Results - %dx%d board, %d/%d games in %v\n",
		cfg.Board.Width, cfg.Board.Height, played, cfg.Runs, elapsed.Round(time.Millisecond))
	fmt.Println()

	// Calculate column widths
	maxIDLen := len("Player")
	for _, id := range cfg.Players {
		maxIDLen = max(maxIDLen, len(id))
	}

	fmt.Printf("  %-4s  %-*s  %6s  %6s\n", "Seat", maxIDLen, "Player", "Wins", "Rate")
	fmt.Printf("  %-4s  %-*s  %6s  %6s\n", "----", maxIDLen, strings.Repeat("-", 6), "----", "----")

	for seat, wins := range tally {
		rate := 0.0
		if played > 0 {
			rate = 100 * float64(wins) / float64(played)
		}
		fmt.Printf("  %-4d  %-*s  %6d  %5.1f%%\n", seat+1, maxIDLen, cfg.Players[seat], wins, rate)
	}
}

// runRecord builds the stored summary of a run.
func runRecord(cfg config.Config, res outcome) *storage.RunRecord {
	return &storage.RunRecord{
		Width:          cfg.Board.Width,
		Height:         cfg.Board.Height,
		Players:        cfg.Players,
		GamesRequested: cfg.Runs,
		GamesPlayed:    res.played,
		Tally:          res.tally,
		Cancelled:      res.cancelled,
		Duration:       res.elapsed,
	}
}

// saveRun stores the run summary. Failure only warns; the results were
// already printed.
func saveRun(cfg config.Config, res outcome) {
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open results database: %v\n", err)
		return
	}
	defer store.Close()

	run := runRecord(cfg, res)
	if _, err := store.SaveRun(run); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save run: %v\n", err)
		return
	}

	fmt.Println()
	fmt.Printf("Saved as %s\n", run.RunID)
}
