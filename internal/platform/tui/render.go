package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/game"
)

// playerColors holds one foreground color per seat, up to the maximum
// player count.
var playerColors = []lipgloss.Color{
	lipgloss.Color("9"),   // red
	lipgloss.Color("12"),  // blue
	lipgloss.Color("10"),  // green
	lipgloss.Color("11"),  // yellow
	lipgloss.Color("13"),  // magenta
	lipgloss.Color("14"),  // cyan
	lipgloss.Color("208"), // orange
	lipgloss.Color("15"),  // white
}

var (
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	latestStyle  = lipgloss.NewStyle().Underline(true)
	boardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// PlayerStyle returns the style of a seat.
func PlayerStyle(player int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(playerColors[player%len(playerColors)]).
		Bold(true)
}

// RenderBoard draws the snapshot as a grid. Cells one unit short of
// exploding are marked with '*'. cursor may be nil.
func RenderBoard(s game.Snapshot, geo *board.Geometry, cursor *board.XY) string {
	var sb strings.Builder

	for y := range s.Height {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := range s.Width {
			c := board.At(x, y)
			pos := geo.ToPos(c)
			cell := s.Cells[pos]

			text := " · "
			style := emptyStyle
			if cell.Owned {
				mark := " "
				if cell.Count >= geo.Capacity(pos)-1 {
					mark = "*"
				}
				text = fmt.Sprintf(" %d%s", cell.Count, mark)
				style = PlayerStyle(cell.Owner)
			}
			if pos == s.Latest {
				style = style.Inherit(latestStyle)
			}
			if cursor != nil && *cursor == c {
				style = style.Inherit(cursorStyle)
			}
			sb.WriteString(style.Render(text))
		}
	}

	return boardStyle.Render(sb.String())
}

// RenderScores lists every seat with its name, current mass and wins so far.
// The seat to move is marked with '>'.
func RenderScores(s game.Snapshot, names []string, tally []int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Players"))
	sb.WriteString("\n")

	for p, score := range s.Scores {
		marker := "  "
		if s.Active && p == s.Current {
			marker = "> "
		}
		name := fmt.Sprintf("Player %d", p+1)
		if p < len(names) {
			name = names[p]
		}
		wins := 0
		if p < len(tally) {
			wins = tally[p]
		}

		line := fmt.Sprintf("%s%-14s %3d  wins %d", marker, name, score, wins)
		if score == 0 && s.Turn >= len(s.Scores) {
			sb.WriteString(dimStyle.Render(line))
		} else {
			sb.WriteString(PlayerStyle(p).Render(line))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
