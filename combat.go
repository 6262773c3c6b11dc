package skirmish

// Combat describes what, if anything, a move captured.
type Combat struct {
	Captured      bool   `json:"captured"`
	CapturedPiece *Piece `json:"capturedPiece,omitempty"`
}

// resolveCombat settles the square the mover just landed on. displaced is
// whatever occupied it before the move; since the board is the only record
// of live pieces, overwriting it already removed it from its owner's set and
// count. Friendly pieces never get here because Validate refuses them.
func resolveCombat(displaced *Piece, mover Player) Combat {
	if displaced == nil || displaced.Owner == mover {
		return Combat{}
	}

	captured := displaced.copy()
	log.Infow("piece captured", "by", mover.String(), "piece", captured.Name(), "square", captured.Position.String())
	return Combat{Captured: true, CapturedPiece: captured}
}
