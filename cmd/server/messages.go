package main

import (
	"encoding/json"

	"github.com/icco/skirmish"
)

// Message types on the websocket.
const (
	msgMove        = "move"
	msgReset       = "reset"
	msgInit        = "init"
	msgUpdate      = "update"
	msgGameOver    = "gameOver"
	msgInvalidMove = "invalidMove"
	msgMoveResult  = "moveResult"
)

// InboundMessage is a frame sent by a client.
type InboundMessage struct {
	Type string `json:"type"`

	// Player is kept as text so an unknown side is a rejected move, not an
	// undecodable frame.
	Player string    `json:"player,omitempty"`
	Data   *MoveData `json:"data,omitempty"`
}

// MoveData is the payload of a move request.
type MoveData struct {
	Command string             `json:"command" example:"P1:F"`
	From    *skirmish.Position `json:"from"`
}

// OutboundMessage is a frame sent to clients. Data holds a snapshot for
// init, update and gameOver, and a MoveResultData for moveResult.
type OutboundMessage struct {
	Type   string           `json:"type"`
	Data   any              `json:"data,omitempty"`
	Winner *skirmish.Player `json:"winner,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

// MoveResultData announces an applied move.
type MoveResultData struct {
	Piece        string            `json:"piece" example:"A-P1"`
	Move         string            `json:"move" example:"P1:F"`
	From         skirmish.Position `json:"from"`
	To           skirmish.Position `json:"to"`
	CombatResult skirmish.Combat   `json:"combatResult"`
}

func snapshotMessage(typ string, snap *skirmish.Snapshot) OutboundMessage {
	msg := OutboundMessage{Type: typ, Data: snap}
	if snap.GameOver {
		msg.Type = msgGameOver
		msg.Winner = snap.Winner
	}
	return msg
}

func moveResultMessage(res *skirmish.Result) OutboundMessage {
	return OutboundMessage{
		Type: msgMoveResult,
		Data: MoveResultData{
			Piece:        res.Piece.Name(),
			Move:         res.Command.Text,
			From:         res.From,
			To:           res.To,
			CombatResult: res.Combat,
		},
	}
}

func invalidMoveMessage(err error) OutboundMessage {
	return OutboundMessage{Type: msgInvalidMove, Reason: err.Error()}
}

func encode(msg OutboundMessage) ([]byte, error) {
	return json.Marshal(msg)
}
