package skirmish

import (
	"fmt"
)

// Game is the authoritative state of one match. It is not safe for
// concurrent use; callers must apply moves one at a time.
type Game struct {
	Board   *Board
	Current Player
	Over    bool
	Winner  Player

	// Moves counts applied moves since the last reset.
	Moves int64

	config Config
}

// Result describes an applied move.
type Result struct {
	Player  Player   `json:"player"`
	Piece   *Piece   `json:"piece"`
	Command Command  `json:"move"`
	From    Position `json:"from"`
	To      Position `json:"to"`
	Combat  Combat   `json:"combatResult"`

	// Number is the 1-based index of this move in the match.
	Number   int64  `json:"number"`
	GameOver bool   `json:"gameOver"`
	Winner   Player `json:"winner,omitempty"`
}

// NewGame creates a match in its starting position with Player A to move.
func NewGame(cfg Config) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Game{config: cfg}
	if err := g.Reset(); err != nil {
		return nil, err
	}
	return g, nil
}

// Config returns the configuration the game was created with.
func (g *Game) Config() Config {
	return g.config
}

// Reset throws the current position away and sets up a fresh one.
func (g *Game) Reset() error {
	board := &Board{Size: g.config.Size}
	if err := board.Init(); err != nil {
		return err
	}

	for _, p := range Players {
		for _, pc := range g.config.layout(p) {
			if err := board.Place(pc); err != nil {
				return err
			}
		}
	}

	g.Board = board
	g.Current = PlayerA
	g.Over = false
	g.Winner = NoPlayer
	g.Moves = 0
	return nil
}

// Pieces returns owner's live pieces keyed by id.
func (g *Game) Pieces(owner Player) map[string]*Piece {
	return g.Board.Pieces(owner)
}

// Count returns the number of owner's live pieces.
func (g *Game) Count(owner Player) int {
	return g.Board.Count(owner)
}

// GameOver returns the winner and whether the game has ended.
func (g *Game) GameOver() (Player, bool) {
	return g.Winner, g.Over
}

// ApplyMove is the single entry point for changing the game. It parses
// command, checks turn order and legality, moves the piece, resolves combat
// and then either ends the game or passes the turn. A rejected move returns
// an error and leaves the game untouched.
func (g *Game) ApplyMove(player Player, from Position, command string) (*Result, error) {
	if g.Over {
		return nil, fmt.Errorf("%w, winner: %s", ErrGameOver, g.Winner)
	}
	if player != g.Current {
		return nil, fmt.Errorf("%w: %s to move", ErrNotYourTurn, g.Current)
	}

	cmd, err := NewCommand(command)
	if err != nil {
		return nil, err
	}

	to, err := g.Validate(player, from, cmd)
	if err != nil {
		return nil, err
	}

	displaced := g.Board.move(from, to)
	combat := resolveCombat(displaced, player)
	g.Moves++

	res := &Result{
		Player:  player,
		Piece:   g.Board.At(to).copy(),
		Command: cmd,
		From:    from,
		To:      to,
		Combat:  combat,
		Number:  g.Moves,
	}

	if winner, over := g.checkGameOver(player); over {
		g.Over = true
		g.Winner = winner
		res.GameOver = true
		res.Winner = winner
		log.Infow("game over", "winner", winner.String(), "moves", g.Moves)
		return res, nil
	}

	g.Current = player.Opponent()
	return res, nil
}

// checkGameOver is the one place termination is decided. A side with no
// pieces left loses; mover breaks the impossible tie.
func (g *Game) checkGameOver(mover Player) (Player, bool) {
	a, b := g.Count(PlayerA), g.Count(PlayerB)
	switch {
	case a == 0 && b == 0:
		return mover, true
	case a == 0:
		return PlayerB, true
	case b == 0:
		return PlayerA, true
	}
	return NoPlayer, false
}
