package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chain-reaction/internal/config"
	"github.com/vovakirdan/chain-reaction/internal/platform/tui"
	"github.com/vovakirdan/chain-reaction/internal/player"
)

var (
	flagPlayPace string
	flagSeat     int
	flagGames    int
	flagWatch    bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play against strategies in the terminal",
	Long: `Start an interactive game. You take one seat and the strategies given
with --players (default: from config) take the others. With --watch you only
watch the strategies play.

Controls:
  Arrows/HJKL/WASD - Move cursor
  Enter/Space      - Place a unit
  N                - Next step (manual pace)
  ?                - Toggle help
  Q/Ctrl+C         - Quit

Examples:
  chainreaction play
  chainreaction play --players random,form-chains --seat 2
  chainreaction play --watch --pace manual`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagWidth, "width", 0, "Board width (default: from config)")
	playCmd.Flags().IntVar(&flagHeight, "height", 0, "Board height (default: from config)")
	playCmd.Flags().StringSliceVar(&flagPlayers, "players", nil, "Comma separated opponent strategy IDs")
	playCmd.Flags().StringVar(&flagPlayPace, "pace", "", "Pace preset: instant, fast, normal, slow, manual (default: from config)")
	playCmd.Flags().IntVar(&flagSeat, "seat", 1, "Your seat, 1-based")
	playCmd.Flags().IntVar(&flagGames, "games", 1, "Number of games")
	playCmd.Flags().BoolVar(&flagWatch, "watch", false, "Only watch the strategies play")
}

func runPlay(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("loading config: %v", err)
	}
	applyBoardFlags(&cfg)
	cfg.Runs = flagGames

	if flagPlayPace != "" {
		if err := config.ApplyPacePreset(&cfg, config.PacePreset(flagPlayPace)); err != nil {
			fail("%v", err)
		}
	}

	// Seat the human among the opponents.
	seat := flagSeat - 1
	ids := slices.Clone(cfg.Players)
	if !flagWatch {
		if seat < 0 || seat > len(ids) {
			fail("seat %d not in 1..%d", flagSeat, len(ids)+1)
		}
		ids = slices.Insert(ids, seat, player.IDHuman)
	}
	cfg.Players = ids

	if err := cfg.Validate(player.Exists); err != nil {
		fail("%v", err)
	}

	// Logging to the terminal would tear the board view.
	logger := log.New(io.Discard)

	r, opts, err := tui.Prepare(cfg, player.Options{Rand: newRand(cfg.Seed, logger)}, logger)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tally, err := tui.Run(ctx, r, opts)
	if err != nil {
		fail("running game: %v", err)
	}

	for i, wins := range tally {
		fmt.Printf("%-16s %d\n", opts.Names[i], wins)
	}
}
