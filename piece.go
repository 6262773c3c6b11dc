package skirmish

import (
	"fmt"
)

// Kind is the type of a piece. It decides which directions the piece may
// move in and how far.
type Kind int

// Piece kinds.
const (
	NoKind Kind = iota
	Pawn
	Hero1
	Hero2
	Hero3
)

var kindTokens = map[Kind]string{
	Pawn:  "P1",
	Hero1: "H1",
	Hero2: "H2",
	Hero3: "H3",
}

func (k Kind) String() string {
	return kindTokens[k]
}

// ParseKind converts a command token such as "P1" or "H2" to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, tok := range kindTokens {
		if tok == s {
			return k, nil
		}
	}
	return NoKind, fmt.Errorf("unknown piece kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Direction is a symbolic move direction. Forward and backward are relative
// to the side that owns the piece.
type Direction int

// Directions. The two-letter diagonal and hook forms name the long leg first.
const (
	NoDirection Direction = iota
	Left
	Right
	Forward
	Backward
	ForwardLeft
	ForwardRight
	BackwardLeft
	BackwardRight
	LeftForward
	LeftBackward
	RightForward
	RightBackward
)

var directionTokens = map[Direction]string{
	Left:          "L",
	Right:         "R",
	Forward:       "F",
	Backward:      "B",
	ForwardLeft:   "FL",
	ForwardRight:  "FR",
	BackwardLeft:  "BL",
	BackwardRight: "BR",
	LeftForward:   "LF",
	LeftBackward:  "LB",
	RightForward:  "RF",
	RightBackward: "RB",
}

func (d Direction) String() string {
	return directionTokens[d]
}

// ParseDirection converts a command token such as "F" or "BL" to a Direction.
func ParseDirection(s string) (Direction, error) {
	for d, tok := range directionTokens {
		if tok == s {
			return d, nil
		}
	}
	return NoDirection, fmt.Errorf("unknown direction %q", s)
}

// leap is a displacement measured in forward rows and columns.
type leap struct {
	dir     Direction
	forward int
	col     int
}

var leaps = map[Kind][]leap{
	Pawn: {
		{Left, 0, -1},
		{Right, 0, 1},
		{Forward, 1, 0},
		{Backward, -1, 0},
	},
	Hero1: {
		{Left, 0, -2},
		{Right, 0, 2},
		{Forward, 2, 0},
		{Backward, -2, 0},
	},
	Hero2: {
		{ForwardLeft, 2, -2},
		{ForwardRight, 2, 2},
		{BackwardLeft, -2, -2},
		{BackwardRight, -2, 2},
	},
	Hero3: {
		{ForwardLeft, 2, -1},
		{ForwardRight, 2, 1},
		{BackwardLeft, -2, -1},
		{BackwardRight, -2, 1},
		{LeftForward, 1, -2},
		{LeftBackward, -1, -2},
		{RightForward, 1, 2},
		{RightBackward, -1, 2},
	},
}

// Directions lists the directions defined for k, in a stable order.
func (k Kind) Directions() []Direction {
	var out []Direction
	for _, l := range leaps[k] {
		out = append(out, l.dir)
	}
	return out
}

// Target computes where a piece of kind k owned by owner lands when it moves
// from in direction d. It returns false when k has no such direction. The
// result is not bounds checked.
func Target(k Kind, d Direction, from Position, owner Player) (Position, bool) {
	for _, l := range leaps[k] {
		if l.dir == d {
			return from.Add(l.forward*owner.forward(), l.col), true
		}
	}
	return Position{}, false
}

// Piece is a single piece on the board. ID is unique per owner, e.g. "P2".
type Piece struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"type"`
	Owner    Player   `json:"player"`
	Position Position `json:"position"`
}

// Name identifies the piece across both sides, e.g. "A-H1".
func (p *Piece) Name() string {
	return fmt.Sprintf("%s-%s", p.Owner, p.ID)
}

func (p *Piece) String() string {
	return fmt.Sprintf("%s(%s)@%s", p.Name(), p.Kind, p.Position)
}

// copy returns a detached snapshot of the piece.
func (p *Piece) copy() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
