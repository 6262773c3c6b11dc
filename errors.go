package skirmish

import (
	"errors"
	"fmt"
)

// Rejections. Every refused move returns one of these (possibly wrapped) and
// leaves the game untouched. The error text is what gets relayed to the
// player who asked for the move.
var (
	ErrInvalidCommand = errors.New("invalid move command format")
	ErrPieceMismatch  = errors.New("character does not exist or mismatch")
	ErrInvalidMove    = errors.New("invalid move")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameOver       = errors.New("game is over")
	ErrInvalidConfig  = errors.New("invalid configuration")

	ErrNoSuchMove   = fmt.Errorf("%w: no such direction for this piece", ErrInvalidMove)
	ErrOutOfBounds  = fmt.Errorf("%w: out of bounds", ErrInvalidMove)
	ErrFriendlyFire = fmt.Errorf("%w: square occupied by a friendly piece", ErrInvalidMove)
)

// IsRejection reports whether err is a move rejection rather than a failure
// of some other kind.
func IsRejection(err error) bool {
	for _, target := range []error{ErrInvalidCommand, ErrPieceMismatch, ErrInvalidMove, ErrNotYourTurn, ErrGameOver} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
