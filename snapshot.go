package skirmish

// Snapshot is a detached, serialisable copy of the game state. It is what
// gets sent to every viewer.
type Snapshot struct {
	Size          int                          `json:"size"`
	Board         [][]*Piece                   `json:"board"`
	CurrentPlayer Player                       `json:"currentPlayer"`
	Players       map[Player]map[string]*Piece `json:"players"`
	PlayerCounts  map[Player]int               `json:"playerCounts"`
	GameOver      bool                         `json:"gameOver"`
	Winner        *Player                      `json:"winner"`
}

// Snapshot copies the current state. Later moves do not affect it.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		Size:          g.Board.Size,
		Board:         make([][]*Piece, g.Board.Size),
		CurrentPlayer: g.Current,
		Players:       map[Player]map[string]*Piece{},
		PlayerCounts:  map[Player]int{},
		GameOver:      g.Over,
	}

	for _, p := range Players {
		s.Players[p] = map[string]*Piece{}
		s.PlayerCounts[p] = 0
	}

	for r, row := range g.Board.Squares {
		s.Board[r] = make([]*Piece, len(row))
		for c, pc := range row {
			if pc == nil {
				continue
			}
			cp := pc.copy()
			s.Board[r][c] = cp
			s.Players[cp.Owner][cp.ID] = cp
			s.PlayerCounts[cp.Owner]++
		}
	}

	if g.Over {
		w := g.Winner
		s.Winner = &w
	}

	return s
}

// At returns the piece on p in the snapshot, or nil.
func (s *Snapshot) At(p Position) *Piece {
	if p.Row < 0 || p.Row >= len(s.Board) || p.Col < 0 || p.Col >= len(s.Board[p.Row]) {
		return nil
	}
	return s.Board[p.Row][p.Col]
}
