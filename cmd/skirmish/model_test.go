package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/icco/skirmish"
)

func snapshotFrame(t *testing.T, typ string, g *skirmish.Game) frameMsg {
	t.Helper()
	data, err := json.Marshal(g.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	return frameMsg{msg: serverMessage{Type: typ, Data: data}}
}

func newGame(t *testing.T) *skirmish.Game {
	t.Helper()
	g, err := skirmish.NewGame(skirmish.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitFrame(t *testing.T) {
	m := initialModel(nil, skirmish.PlayerA, "ws://test")
	if !strings.Contains(m.View(), "Connecting to ws://test") {
		t.Errorf("view before init:\n%s", m.View())
	}

	m = update(t, m, snapshotFrame(t, "init", newGame(t)))
	if m.game == nil {
		t.Fatal("init frame should set the game")
	}

	view := m.View()
	for _, want := range []string{"Your move", "A-P1", "B-H2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q:\n%s", want, view)
		}
	}
}

func TestMoveResultAndRejection(t *testing.T) {
	m := initialModel(nil, skirmish.PlayerB, "ws://test")
	g := newGame(t)
	m = update(t, m, snapshotFrame(t, "init", g))

	res, err := g.ApplyMove(skirmish.PlayerA, skirmish.Pos(4, 0), "P1:F")
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(moveResult{Piece: res.Piece.Name(), Move: res.Command.Text, From: res.From, To: res.To, CombatResult: res.Combat})
	if err != nil {
		t.Fatal(err)
	}
	m = update(t, m, frameMsg{msg: serverMessage{Type: "moveResult", Data: data}})
	m = update(t, m, snapshotFrame(t, "update", g))

	if len(m.history) != 1 || m.history[0] != "A-P1 P1:F 4,0 -> 3,0" {
		t.Errorf("history = %q", m.history)
	}
	if !strings.Contains(m.View(), "Your move") {
		t.Errorf("B should be to move:\n%s", m.View())
	}

	m = update(t, m, frameMsg{msg: serverMessage{Type: "invalidMove", Reason: "invalid move: out of bounds"}})
	if m.error != "invalid move: out of bounds" {
		t.Errorf("error = %q", m.error)
	}
}

func TestGameOverFrame(t *testing.T) {
	m := initialModel(nil, skirmish.PlayerA, "ws://test")
	g := newGame(t)
	g.Over = true
	g.Winner = skirmish.PlayerB

	m = update(t, m, snapshotFrame(t, "gameOver", g))
	if !strings.Contains(m.View(), "Game over, B wins") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestCommandInput(t *testing.T) {
	m := initialModel(nil, skirmish.PlayerA, "ws://test")
	m = update(t, m, snapshotFrame(t, "init", newGame(t)))

	if m.cursor != skirmish.Pos(4, 0) {
		t.Fatalf("cursor starts on %s, want 4,0", m.cursor)
	}

	m = update(t, m, key("right"))
	m = update(t, m, key("right"))
	m = update(t, m, key("enter"))
	if !m.input.Focused() {
		t.Fatal("enter should open the command input")
	}
	if m.input.Value() != "H1:" {
		t.Errorf("input prefilled with %q, want H1:", m.input.Value())
	}

	m = update(t, m, key("esc"))
	if m.input.Focused() || m.input.Value() != "" {
		t.Error("esc should close and clear the input")
	}

	// Keys move the cursor only while the input is closed.
	m = update(t, m, key("up"))
	if m.cursor != skirmish.Pos(3, 2) {
		t.Errorf("cursor = %s, want 3,2", m.cursor)
	}
}

func TestConnectionLost(t *testing.T) {
	m := initialModel(nil, skirmish.PlayerA, "ws://test")
	m = update(t, m, connErrMsg{err: errors.New("boom")})
	if !m.closed || !strings.Contains(m.error, "connection lost") {
		t.Errorf("closed=%v error=%q", m.closed, m.error)
	}
}
