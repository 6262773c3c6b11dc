package main

import (
	"context"
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/icco/skirmish"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// serverMessage is any frame the server sends.
type serverMessage struct {
	Type   string           `json:"type"`
	Data   json.RawMessage  `json:"data"`
	Winner *skirmish.Player `json:"winner"`
	Reason string           `json:"reason"`
}

type moveResult struct {
	Piece        string            `json:"piece"`
	Move         string            `json:"move"`
	From         skirmish.Position `json:"from"`
	To           skirmish.Position `json:"to"`
	CombatResult skirmish.Combat   `json:"combatResult"`
}

type moveRequest struct {
	Type   string    `json:"type"`
	Player string    `json:"player,omitempty"`
	Data   *moveData `json:"data,omitempty"`
}

type moveData struct {
	Command string            `json:"command"`
	From    skirmish.Position `json:"from"`
}

// Messages
type frameMsg struct {
	msg serverMessage
}

type connErrMsg struct {
	err error
}

type client struct {
	conn *websocket.Conn
}

func dial(ctx context.Context, url string) (*client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &client{conn: conn}, nil
}

func (c *client) close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// listen waits for the next frame. The model calls it again after every
// frame it handles.
func (c *client) listen() tea.Cmd {
	return func() tea.Msg {
		var msg serverMessage
		if err := wsjson.Read(context.Background(), c.conn, &msg); err != nil {
			return connErrMsg{err: err}
		}
		return frameMsg{msg: msg}
	}
}

func (c *client) send(req moveRequest) tea.Cmd {
	return func() tea.Msg {
		if err := wsjson.Write(context.Background(), c.conn, req); err != nil {
			return connErrMsg{err: err}
		}
		return nil
	}
}
