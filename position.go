package skirmish

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Player identifies one of the two sides.
type Player int

// The zero Player is "nobody" and is used for an absent winner.
const (
	NoPlayer Player = iota
	PlayerA
	PlayerB
)

// Players lists both sides in turn order.
var Players = []Player{PlayerA, PlayerB}

func (p Player) String() string {
	switch p {
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	default:
		return ""
	}
}

// Opponent returns the other side.
func (p Player) Opponent() Player {
	switch p {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return NoPlayer
	}
}

// Valid reports whether p is one of the two sides.
func (p Player) Valid() bool {
	return p == PlayerA || p == PlayerB
}

// ParsePlayer converts "A" or "B" to a Player.
func ParsePlayer(s string) (Player, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return PlayerA, nil
	case "B":
		return PlayerB, nil
	}
	return NoPlayer, fmt.Errorf("unknown player %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Player) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Player) UnmarshalText(b []byte) error {
	v, err := ParsePlayer(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// forward is the row delta of one step "forward" for p. Player A starts on
// the bottom row and moves up the board, Player B the opposite.
func (p Player) forward() int {
	if p == PlayerB {
		return 1
	}
	return -1
}

// Position is a square on the board, zero indexed from the top left.
type Position struct {
	Row int
	Col int
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Add returns the position offset by the given deltas.
func (p Position) Add(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// ParsePosition reads the "row,col" form produced by String.
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("position must be row,col: %q", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Position{}, fmt.Errorf("bad row in %q: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Position{}, fmt.Errorf("bad column in %q: %w", s, err)
	}
	return Pos(row, col), nil
}

// MarshalJSON encodes a position as a [row, col] pair.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Row, p.Col})
}

// UnmarshalJSON decodes a [row, col] pair.
func (p *Position) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("position must have two coordinates, got %d", len(pair))
	}
	p.Row, p.Col = pair[0], pair[1]
	return nil
}
