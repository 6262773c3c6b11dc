package skirmish

import (
	"fmt"
	"strings"
)

// MaxBoardSize is the largest supported board.
const MaxBoardSize = 26

// Board is a square grid of optional pieces. It is the only record of which
// pieces are alive; per-player views are derived from it.
type Board struct {
	Size    int
	Squares [][]*Piece
}

// Init clears the board to Size x Size empty squares.
func (b *Board) Init() error {
	if b.Size < 2 || b.Size > MaxBoardSize {
		return fmt.Errorf("%w: board size %d not in [2, %d]", ErrInvalidConfig, b.Size, MaxBoardSize)
	}

	b.Squares = make([][]*Piece, b.Size)
	for i := range b.Squares {
		b.Squares[i] = make([]*Piece, b.Size)
	}
	return nil
}

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.Size && p.Col >= 0 && p.Col < b.Size
}

// At returns the piece on p, or nil for an empty or off-board square.
func (b *Board) At(p Position) *Piece {
	if !b.InBounds(p) {
		return nil
	}
	return b.Squares[p.Row][p.Col]
}

// Place puts pc on the board at pc.Position.
func (b *Board) Place(pc *Piece) error {
	if pc == nil || !pc.Owner.Valid() {
		return fmt.Errorf("%w: piece without owner", ErrInvalidConfig)
	}
	if !b.InBounds(pc.Position) {
		return fmt.Errorf("%w: %s is off the board", ErrInvalidConfig, pc.Position)
	}
	if occ := b.At(pc.Position); occ != nil {
		return fmt.Errorf("%w: %s already holds %s", ErrInvalidConfig, pc.Position, occ.Name())
	}
	if _, dup := b.Pieces(pc.Owner)[pc.ID]; dup {
		return fmt.Errorf("%w: duplicate piece id %s", ErrInvalidConfig, pc.Name())
	}

	b.Squares[pc.Position.Row][pc.Position.Col] = pc
	return nil
}

// move relocates the piece on from to to and returns whatever was on to
// before. Both squares must be on the board.
func (b *Board) move(from, to Position) *Piece {
	pc := b.Squares[from.Row][from.Col]
	prev := b.Squares[to.Row][to.Col]

	b.Squares[from.Row][from.Col] = nil
	b.Squares[to.Row][to.Col] = pc
	pc.Position = to

	return prev
}

// Pieces returns owner's live pieces keyed by piece id.
func (b *Board) Pieces(owner Player) map[string]*Piece {
	out := map[string]*Piece{}
	for _, row := range b.Squares {
		for _, pc := range row {
			if pc != nil && pc.Owner == owner {
				out[pc.ID] = pc
			}
		}
	}
	return out
}

// Count returns the number of owner's pieces on the board.
func (b *Board) Count(owner Player) int {
	n := 0
	for _, row := range b.Squares {
		for _, pc := range row {
			if pc != nil && pc.Owner == owner {
				n++
			}
		}
	}
	return n
}

// String draws the board one row per line, "." for empty squares.
func (b *Board) String() string {
	var sb strings.Builder
	for _, row := range b.Squares {
		cells := make([]string, len(row))
		for i, pc := range row {
			if pc == nil {
				cells[i] = "  .  "
				continue
			}
			cells[i] = fmt.Sprintf("%-5s", pc.Name())
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
