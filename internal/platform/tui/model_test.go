package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/game"
	"github.com/vovakirdan/chain-reaction/internal/player"
	"github.com/vovakirdan/chain-reaction/internal/runner"
	"github.com/vovakirdan/chain-reaction/internal/task"
)

func newEngine(t *testing.T, w, h, players int) *game.Engine {
	t.Helper()
	e, err := game.New(w, h, players)
	if err != nil {
		t.Fatalf("game.New() error = %v", err)
	}
	return e
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestRenderBoard(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	if err := e.Place(context.Background(), 0, 0); err != nil {
		t.Fatal(err)
	}

	out := RenderBoard(e.Snapshot(), board.NewGeometry(3, 3), nil)

	// The corner has capacity 2, so one unit is one short of exploding.
	if !strings.Contains(out, "1*") {
		t.Errorf("RenderBoard() missing critical marker:\n%s", out)
	}
	if got := strings.Count(out, "·"); got != 8 {
		t.Errorf("RenderBoard() has %d empty cells, expected 8", got)
	}
}

func TestRenderScores(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	out := RenderScores(e.Snapshot(), []string{"random", "human"}, []int{3, 1})

	for _, want := range []string{"random", "human", "wins 3", "wins 1", "> random"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderScores() missing %q:\n%s", want, out)
		}
	}
}

func TestModelCursorAndMessages(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	m := NewModel(e.Snapshot(), Options{Games: 3}, nil)

	m = update(m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor() != board.At(1, 2) {
		t.Errorf("Cursor() = %v, expected (1,2)", m.Cursor())
	}

	m = update(m, GameFinishedMsg{Winner: 1, Game: 1, Tally: []int{0, 1}})
	if m.Tally()[1] != 1 {
		t.Errorf("Tally() = %v after game finished", m.Tally())
	}

	m = update(m, RunDoneMsg{Tally: []int{1, 2}})
	if m.Tally()[1] != 2 {
		t.Errorf("Tally() = %v after run done", m.Tally())
	}
	if !strings.Contains(m.View(), "Run finished") {
		t.Error("View() should report the finished run")
	}
}

func TestModelQuitCancels(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	cancelled := false
	m := NewModel(e.Snapshot(), Options{Games: 1}, func() { cancelled = true })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !cancelled {
		t.Error("quit should cancel the run")
	}
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command should produce tea.QuitMsg")
	}
	if next.(Model).View() != "" {
		t.Error("View() should be empty after quitting")
	}
}

func TestModelStepOpensGate(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	gate := task.NewGate()
	m := NewModel(e.Snapshot(), Options{Games: 1, Step: gate}, nil)

	released := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		released <- gate.Wait(ctx)
	}()

	// Keep stepping until the waiter has armed on the gate.
	deadline := time.After(5 * time.Second)
	for {
		m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
		select {
		case err := <-released:
			if err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
			return
		case <-deadline:
			t.Fatal("step key did not open the gate")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestModelSubmitsHumanMove(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	if err := e.Place(context.Background(), 0, 0); err != nil {
		t.Fatal(err)
	}
	// Player 1 to move; (0,0) belongs to player 0.

	human := player.NewHumanInput()
	human.SetBoardSize(3, 3)

	type move struct {
		xy  board.XY
		err error
	}
	moves := make(chan move, 1)
	go func() {
		xy, err := human.Play(context.Background(), runner.NewContext(e, 1))
		moves <- move{xy, err}
	}()
	<-human.Waiting()

	m := NewModel(e.Snapshot(), Options{Games: 1, Human: human, HumanSeat: 1}, nil)
	m = update(m, WaitingMsg{})

	// The taken cell is refused before reaching the strategy.
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.View(), "belongs to") {
		t.Error("placing on a taken cell should explain why")
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyRight})

	deadline := time.After(5 * time.Second)
	for {
		m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
		select {
		case mv := <-moves:
			if mv.err != nil || mv.xy != board.At(1, 0) {
				t.Errorf("Play() = %v, %v, expected (1,0)", mv.xy, mv.err)
			}
			return
		case <-deadline:
			t.Fatal("human move was never delivered")
		case <-time.After(time.Millisecond):
		}
	}
}
