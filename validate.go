package skirmish

import (
	"fmt"
)

// Validate decides whether player may move the piece on from with cmd and
// returns the target square. Checks run in a fixed order and the first
// failure wins. Turn order is not checked here; see ApplyMove.
//
// Moves are leaps: squares between from and the target are never inspected.
func (g *Game) Validate(player Player, from Position, cmd Command) (Position, error) {
	if !commandRegex.MatchString(cmd.Text) {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Text)
	}

	pc := g.Board.At(from)
	if pc == nil || pc.Owner != player || cmd.Kind == NoKind || pc.Kind != cmd.Kind {
		return Position{}, fmt.Errorf("%w: no %s of player %s on %s", ErrPieceMismatch, kindToken(cmd), player, from)
	}

	to, ok := Target(pc.Kind, cmd.Direction, from, player)
	if !ok {
		return Position{}, fmt.Errorf("%w (%s)", ErrNoSuchMove, cmd.Text)
	}

	if !g.Board.InBounds(to) {
		return Position{}, fmt.Errorf("%w (%s -> %s)", ErrOutOfBounds, from, to)
	}

	if occ := g.Board.At(to); occ != nil && occ.Owner == player {
		return Position{}, fmt.Errorf("%w (%s on %s)", ErrFriendlyFire, occ.Name(), to)
	}

	return to, nil
}

// kindToken names the kind a command asked for, even when it is not a known
// kind.
func kindToken(cmd Command) string {
	if cmd.Kind != NoKind {
		return cmd.Kind.String()
	}
	if parts := commandRegex.FindStringSubmatch(cmd.Text); parts != nil {
		return parts[1]
	}
	return cmd.Text
}
