package skirmish

import "fmt"

// Turn is a single move recorded in a transcript.
type Turn struct {
	Number  int64    `json:"number"`
	Player  Player   `json:"player"`
	From    Position `json:"from"`
	Command Command  `json:"command"`
	Comment string   `json:"comment,omitempty"`
}

// Text returns the transcript line for the turn.
func (t *Turn) Text() string {
	var move string
	if t.Number > 0 {
		move = fmt.Sprintf("%d. %s %s %s", t.Number, t.Player, t.From, t.Command.Text)
	}

	if t.Comment != "" {
		if move != "" {
			move = fmt.Sprintf("%s { %s }", move, t.Comment)
		} else {
			move = fmt.Sprintf("{ %s }", t.Comment)
		}
	}

	return move
}

// Debug is a verbose dumping of the object and its sub objects.
func (t *Turn) Debug() string {
	return fmt.Sprintf("&{%d %s from:%s cmd:%+v Comment: %q}", t.Number, t.Player, t.From, t.Command, t.Comment)
}

// TurnFromResult records an applied move.
func TurnFromResult(res *Result) *Turn {
	t := &Turn{
		Number:  res.Number,
		Player:  res.Player,
		From:    res.From,
		Command: res.Command,
	}
	if res.Combat.Captured {
		t.Comment = "captures " + res.Combat.CapturedPiece.Name()
	}
	return t
}
