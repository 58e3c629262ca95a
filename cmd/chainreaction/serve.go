package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chain-reaction/internal/config"
	"github.com/vovakirdan/chain-reaction/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagServePace   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Chain Reaction SSH server",
	Long: `Start an SSH server that lets users connect and play in their terminal.

Each SSH connection gets its own game: the user takes seat 1 and the
strategies given with --players (default: from config) take the others.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.chainreaction/host_key

Examples:
  chainreaction serve                           # Listen on :23234 with auto-generated key
  chainreaction serve --ssh :2222               # Listen on port 2222
  chainreaction serve --players random,form-chains --games 3

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().IntVar(&flagWidth, "width", 0, "Board width (default: from config)")
	serveCmd.Flags().IntVar(&flagHeight, "height", 0, "Board height (default: from config)")
	serveCmd.Flags().StringSliceVar(&flagPlayers, "players", nil, "Comma separated opponent strategy IDs")
	serveCmd.Flags().StringVar(&flagServePace, "pace", "", "Pace preset: instant, fast, normal, slow, manual (default: from config)")
	serveCmd.Flags().IntVar(&flagGames, "games", 1, "Number of games per session")
}

func runServe(_ *cobra.Command, _ []string) {
	game, err := loadConfig()
	if err != nil {
		fail("loading config: %v", err)
	}
	applyBoardFlags(&game)
	game.Runs = flagGames

	if flagServePace != "" {
		if err := config.ApplyPacePreset(&game, config.PacePreset(flagServePace)); err != nil {
			fail("%v", err)
		}
	}

	logger, err := newLogger(game.Log.Level)
	if err != nil {
		fail("%v", err)
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		Game:        game,
	}

	server, err := tui.NewSSHServer(cfg, logger.WithPrefix("chainreaction-ssh"))
	if err != nil {
		fail("creating server: %v", err)
	}

	fmt.Printf("Starting Chain Reaction SSH server on %s\n", cfg.Address)
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fail("server: %v", err)
	}
}
