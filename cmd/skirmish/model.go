package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/icco/skirmish"
)

const historySize = 6

type model struct {
	client    *client
	player    skirmish.Player
	serverURL string

	game    *skirmish.Snapshot
	history []string

	cursor skirmish.Position
	input  textinput.Model

	width  int
	height int
	error  string
	closed bool
}

func initialModel(c *client, player skirmish.Player, serverURL string) model {
	ti := textinput.New()
	ti.Placeholder = "P1:F"
	ti.Prompt = "move> "
	ti.CharLimit = 8

	// Start on the leftmost home square.
	row := 0
	if player == skirmish.PlayerA {
		row = skirmish.DefaultSize - 1
	}

	return model{
		client:    c,
		player:    player,
		serverURL: serverURL,
		cursor:    skirmish.Pos(row, 0),
		input:     ti,
	}
}

func (m model) Init() tea.Cmd {
	return m.client.listen()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		m = m.applyFrame(msg.msg)
		return m, m.client.listen()

	case connErrMsg:
		m.closed = true
		m.error = fmt.Sprintf("connection lost: %v", msg.err)
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateBoard(msg)
	}

	return m, nil
}

func (m model) applyFrame(msg serverMessage) model {
	switch msg.Type {
	case "init", "update", "gameOver":
		var snap skirmish.Snapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			m.error = fmt.Sprintf("bad %s frame: %v", msg.Type, err)
			return m
		}
		m.game = &snap
		if msg.Type == "init" {
			m.history = nil
		}
		m.error = ""
	case "moveResult":
		var res moveResult
		if err := json.Unmarshal(msg.Data, &res); err != nil {
			m.error = fmt.Sprintf("bad moveResult frame: %v", err)
			return m
		}
		line := fmt.Sprintf("%s %s %s -> %s", res.Piece, res.Move, res.From, res.To)
		if res.CombatResult.Captured && res.CombatResult.CapturedPiece != nil {
			line += " captures " + res.CombatResult.CapturedPiece.Name()
		}
		m.history = append(m.history, line)
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
	case "invalidMove":
		m.error = msg.Reason
	}
	return m
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	case "enter":
		command := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.input.SetValue("")
		if command == "" {
			return m, nil
		}
		return m, m.client.send(moveRequest{
			Type:   "move",
			Player: m.player.String(),
			Data:   &moveData{Command: command, From: m.cursor},
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	size := skirmish.DefaultSize
	if m.game != nil {
		size = m.game.Size
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor.Row > 0 {
			m.cursor.Row--
		}
	case "down", "j":
		if m.cursor.Row < size-1 {
			m.cursor.Row++
		}
	case "left", "h":
		if m.cursor.Col > 0 {
			m.cursor.Col--
		}
	case "right", "l":
		if m.cursor.Col < size-1 {
			m.cursor.Col++
		}
	case "r":
		m.error = ""
		return m, m.client.send(moveRequest{Type: "reset"})
	case "enter", " ", "m":
		// Prefill the kind of the piece under the cursor.
		m.input.SetValue("")
		if m.game != nil {
			if pc := m.game.At(m.cursor); pc != nil && pc.Owner == m.player {
				m.input.SetValue(pc.Kind.String() + ":")
			}
		}
		m.input.CursorEnd()
		m.error = ""
		return m, m.input.Focus()
	}

	return m, nil
}

func (m model) View() string {
	title := titleStyle.Render(fmt.Sprintf("Skirmish | you are %s", m.player))

	if m.game == nil {
		status := textStyle.Render(fmt.Sprintf("Connecting to %s...", m.serverURL))
		content := []string{title, "", status}
		if m.error != "" {
			content = append(content, "", errorStyle.Render(m.error))
		}
		return lipgloss.JoinVertical(lipgloss.Left, content...)
	}

	content := []string{title, "", textStyle.Render(m.status()), "", m.renderBoard()}

	if m.input.Focused() {
		content = append(content, "", textStyle.Render(fmt.Sprintf("from %s  ", m.cursor)+m.input.View()))
		content = append(content, textStyle.Render("Enter: send | Esc: cancel"))
	} else {
		content = append(content, "", textStyle.Render(fmt.Sprintf("Cursor: %s | arrows/hjkl: move | Enter: command | r: reset | q: quit", m.cursor)))
	}

	if len(m.history) > 0 {
		content = append(content, "", textStyle.Render("Recent moves:"))
		for _, line := range m.history {
			content = append(content, textStyle.Render("  "+line))
		}
	}

	if m.error != "" {
		content = append(content, "", errorStyle.Render(fmt.Sprintf("Error: %s", m.error)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, content...)
}

func (m model) status() string {
	counts := fmt.Sprintf("A: %d  B: %d", m.game.PlayerCounts[skirmish.PlayerA], m.game.PlayerCounts[skirmish.PlayerB])
	if m.game.GameOver && m.game.Winner != nil {
		return fmt.Sprintf("Game over, %s wins | %s | r to play again", *m.game.Winner, counts)
	}
	if m.game.CurrentPlayer == m.player {
		return fmt.Sprintf("Your move | %s", counts)
	}
	return fmt.Sprintf("%s to move | %s", m.game.CurrentPlayer, counts)
}

func (m model) renderBoard() string {
	size := m.game.Size
	var rows []string

	header := "   "
	for c := 0; c < size; c++ {
		header += cellStyle.Render(fmt.Sprint(c))
	}
	rows = append(rows, header)

	for r := 0; r < size; r++ {
		row := fmt.Sprintf("%2d ", r)
		for c := 0; c < size; c++ {
			row += m.renderCell(skirmish.Pos(r, c))
		}
		rows = append(rows, row)
	}

	return boardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m model) renderCell(p skirmish.Position) string {
	content := "·"
	bgColor, fgColor := "235", "240"

	if pc := m.game.At(p); pc != nil {
		content = pc.Name()
		bgColor = "240"
		if pc.Owner == skirmish.PlayerA {
			fgColor = "45"
		} else {
			fgColor = "214"
		}
	}

	if p == m.cursor {
		bgColor = "220"
		fgColor = "16"
	}

	return cellStyle.
		Background(lipgloss.Color(bgColor)).
		Foreground(lipgloss.Color(fgColor)).
		Render(content)
}
