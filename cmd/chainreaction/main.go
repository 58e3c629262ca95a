// chainreaction runs Chain Reaction games between strategies, either as a
// headless simulation or in the terminal against a human.
//
// Usage:
//
//	chainreaction simulate           - Run many games between bots and tally winners
//	chainreaction play               - Play against bots in the terminal
//	chainreaction serve              - Serve games over SSH
//	chainreaction players            - List available strategies
//	chainreaction results [run-id]   - Show stored simulation results
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.chainreaction, ./configs)
//	--seed <value>      - RNG seed for reproducible runs
//	--db <path>         - Results database (default: ~/.chainreaction/results.db)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/chain-reaction/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     int64
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chainreaction",
	Short: "Chain Reaction - strategy simulator and terminal game",
	Long: `Chain Reaction is a turn-based cell capture game. Players add units to
cells; a cell holding as many units as it has neighbors explodes, spreading
to and capturing its neighbors. The last player with units on the board wins.

Available commands:
  simulate - Run many games between strategies and tally the winners
  play     - Play against strategies in the terminal
  serve    - Serve games over SSH, one per connection
  players  - List available strategies
  results  - Show stored simulation results

Examples:
  chainreaction simulate --players random,form-chains --runs 1000
  chainreaction play --players avoid-others --width 5 --height 5
  chainreaction results`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = from config, else time based)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to results database (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(resultsCmd)
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = config.DefaultDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// newLogger creates the CLI logger at the configured level.
func newLogger(level string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "chainreaction",
	})

	if level == "" {
		return logger, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// newRand returns the RNG shared by every strategy of a run.
// A zero seed picks one from the clock and reports it so the run can be
// repeated.
func newRand(seed int64, logger *log.Logger) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug("seeded", "seed", seed)
	return rand.New(rand.NewSource(seed))
}

// fail prints an error and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
