package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/chain-reaction/internal/player"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List all available strategies",
	Long:  `Shows every strategy that can take a seat in a simulation or game.`,
	Run:   runPlayers,
}

func runPlayers(cmd *cobra.Command, args []string) {
	infos := player.List()

	if len(infos) == 0 {
		fmt.Println("No strategies available.")
		return
	}

	fmt.Println("Available strategies:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, info := range infos {
		if len(info.ID) > maxIDLen {
			maxIDLen = len(info.ID)
		}
	}

	// Print header
	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Description")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----------")

	for _, info := range infos {
		fmt.Printf("  %-*s  %s\n", maxIDLen, info.ID, info.Description)
	}

	fmt.Println()
	fmt.Println("Run 'chainreaction simulate --players <id>,<id>' to compare strategies.")
}
