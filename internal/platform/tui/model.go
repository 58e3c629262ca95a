package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/game"
	"github.com/vovakirdan/chain-reaction/internal/player"
	"github.com/vovakirdan/chain-reaction/internal/runner"
	"github.com/vovakirdan/chain-reaction/internal/task"
)

// statusRate is how often the elapsed time is refreshed, per second.
const statusRate = 4

// Options configure the board view.
type Options struct {
	Names     []string           // display name per seat
	Games     int                // games to play
	Human     *player.HumanInput // nil when only bots play
	HumanSeat int                // seat driven by Human
	Step      *task.Gate         // manual pacing; nil for timed delays
}

// Model is the Bubble Tea model of a running game series.
type Model struct {
	snap   game.Snapshot
	geo    *board.Geometry
	opts   Options
	keys   KeyMap
	help   help.Model
	cursor board.XY
	cancel func()
	bridge *bridge // nil when messages are sent to the program directly

	waiting bool // human seat is waiting for a move
	played  int
	tally   []int
	status  string
	started time.Time
	now     time.Time
	done    bool
	err     error
	width   int

	quitting bool
}

// NewModel creates a board view starting from snap. cancel is called when
// the user quits.
func NewModel(snap game.Snapshot, opts Options, cancel func()) Model {
	if cancel == nil {
		cancel = func() {}
	}
	now := time.Now()
	return Model{
		snap:    snap,
		geo:     board.NewGeometry(snap.Width, snap.Height),
		opts:    opts,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		cancel:  cancel,
		tally:   make([]int, len(snap.Scores)),
		started: now,
		now:     now,
	}
}

// Init starts the status refresh and, for a started run, the listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(statusRate), m.listen())
}

// listen waits for the next run message.
func (m Model) listen() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return m.bridge.listen()
}

// Stop cancels the run and releases everything still sending to the model.
// Safe to call more than once.
func (m Model) Stop() {
	m.cancel()
	if m.bridge != nil {
		m.bridge.close()
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case SnapshotMsg:
		m.snap = game.Snapshot(msg)
		return m, m.listen()

	case WaitingMsg:
		m.waiting = true
		m.status = "Your move"
		return m, m.listen()

	case GameFinishedMsg:
		m.played = msg.Game
		m.tally = msg.Tally
		m.status = fmt.Sprintf("Game %d won by %s", msg.Game, m.name(msg.Winner))
		return m, m.listen()

	case RunDoneMsg:
		m.done = true
		m.waiting = false
		if msg.Tally != nil {
			m.tally = msg.Tally
		}
		m.err = msg.Err
		if m.err != nil {
			m.status = fmt.Sprintf("Run failed: %v", m.err)
		} else {
			m.status = "Run finished. Press q to quit."
		}
		return m, nil

	case TickMsg:
		m.now = time.Time(msg)
		if m.done {
			return m, nil
		}
		return m, tickCmd(statusRate)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Step):
		if m.opts.Step != nil {
			m.opts.Step.Open()
		}
		return m, nil

	case key.Matches(msg, m.keys.Place):
		m.place()
		return m, nil
	}

	m.cursor, _ = m.keys.MoveCursor(msg, m.cursor, m.snap.Width, m.snap.Height)
	return m, nil
}

// place submits the cursor position for the human seat.
func (m *Model) place() {
	if m.opts.Human == nil || !m.waiting || m.snap.Current != m.opts.HumanSeat {
		return
	}

	cell := m.snap.Cell(m.cursor)
	if cell.Owned && cell.Owner != m.opts.HumanSeat {
		m.status = fmt.Sprintf("Cell %v belongs to %s", m.cursor, m.name(cell.Owner))
		return
	}

	if m.opts.Human.Submit(m.cursor.X, m.cursor.Y) {
		m.waiting = false
		m.status = ""
	}
}

func (m Model) name(p int) string {
	if p >= 0 && p < len(m.opts.Names) {
		return m.opts.Names[p]
	}
	return fmt.Sprintf("Player %d", p+1)
}

// Cursor returns the board position under the cursor.
func (m Model) Cursor() board.XY {
	return m.cursor
}

// Tally returns the wins per seat seen so far.
func (m Model) Tally() []int {
	return m.tally
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := fmt.Sprintf("CHAIN REACTION  game %d/%d  turn %d  %s",
		min(m.played+1, max(m.opts.Games, 1)),
		m.opts.Games,
		m.snap.Turn,
		m.now.Sub(m.started).Truncate(time.Second))
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	var cursor *board.XY
	if m.opts.Human != nil {
		cursor = &m.cursor
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		RenderBoard(m.snap, m.geo, cursor),
		"  ",
		RenderScores(m.snap, m.opts.Names, m.tally),
	))
	b.WriteString("\n")

	if m.status != "" {
		style := dimStyle
		if m.err != nil {
			style = warningStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	if m.opts.Step != nil && !m.done {
		b.WriteString(dimStyle.Render("Manual pace: press n to advance"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// Run plays games on r inside a Bubble Tea program and returns the final
// tally. Quitting early cancels the run and returns the partial tally.
func Run(ctx context.Context, r *runner.Runner, opts Options) ([]int, error) {
	model, t, err := Start(ctx, r, opts)
	if err != nil {
		return nil, err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, runErr := p.Run()

	// The program may exit on its own (context, signal) without the quit key.
	model.Stop()
	tally, err := t.Wait()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return tally, runErr
	}
	return tally, err
}
