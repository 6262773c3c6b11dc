package skirmish

import (
	"fmt"
	"strings"
)

// DefaultSize is the board size of a standard match.
const DefaultSize = 5

// Config decides the board size and the home row arrangement. Both sides use
// the same left-to-right arrangement: Player A on the last row, Player B on
// the first.
//
// Piece ids count pieces by the first letter of their kind token, in column
// order, so every hero kind shares the H counter. An id is a label, not a
// kind: the row H2,H1 gives the Hero2 piece the id H1 and the Hero1 piece the
// id H2. Use Piece.Kind for the kind.
type Config struct {
	Size    int
	HomeRow []Kind
}

// DefaultConfig is the standard 5x5 match: pawn, pawn, hero1, hero2, pawn.
func DefaultConfig() Config {
	return Config{
		Size:    DefaultSize,
		HomeRow: []Kind{Pawn, Pawn, Hero1, Hero2, Pawn},
	}
}

// ParseHomeRow reads a comma separated list of kind tokens, e.g.
// "P1,P1,H1,H2,P1".
func ParseHomeRow(s string) ([]Kind, error) {
	var out []Kind
	for _, tok := range strings.Split(s, ",") {
		k, err := ParseKind(strings.ToUpper(strings.TrimSpace(tok)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		out = append(out, k)
	}
	return out, nil
}

// HomeRowText is the inverse of ParseHomeRow.
func (c Config) HomeRowText() string {
	toks := make([]string, len(c.HomeRow))
	for i, k := range c.HomeRow {
		toks[i] = k.String()
	}
	return strings.Join(toks, ",")
}

// Validate checks that the config describes a playable board.
func (c Config) Validate() error {
	if c.Size < 2 || c.Size > MaxBoardSize {
		return fmt.Errorf("%w: board size %d not in [2, %d]", ErrInvalidConfig, c.Size, MaxBoardSize)
	}
	if len(c.HomeRow) != c.Size {
		return fmt.Errorf("%w: home row has %d pieces for a board of size %d", ErrInvalidConfig, len(c.HomeRow), c.Size)
	}
	for i, k := range c.HomeRow {
		if _, ok := kindTokens[k]; !ok {
			return fmt.Errorf("%w: unknown kind in home row column %d", ErrInvalidConfig, i)
		}
	}
	return nil
}

// homeRow returns the row index where owner's pieces start.
func (c Config) homeRow(owner Player) int {
	if owner == PlayerB {
		return 0
	}
	return c.Size - 1
}

// layout builds owner's starting pieces. Ids count per token letter in column
// order, so the default row gives P1, P2, H1, H2, P3. Hero ids match hero
// kinds only when each hero kind appears once, in H1, H2, H3 order.
func (c Config) layout(owner Player) []*Piece {
	counts := map[byte]int{}
	row := c.homeRow(owner)

	pieces := make([]*Piece, 0, len(c.HomeRow))
	for col, k := range c.HomeRow {
		letter := k.String()[0]
		counts[letter]++
		pieces = append(pieces, &Piece{
			ID:       fmt.Sprintf("%c%d", letter, counts[letter]),
			Kind:     k,
			Owner:    owner,
			Position: Pos(row, col),
		})
	}
	return pieces
}
