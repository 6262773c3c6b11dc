package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/icco/skirmish"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// received is the client side view of an OutboundMessage.
type received struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Winner *string         `json:"winner"`
	Reason string          `json:"reason"`
}

func newTestHub(t *testing.T, game *skirmish.Game) *Hub {
	metrics, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return NewHub(game, nil, metrics, nil)
}

func fakeClient(buffer int) *Client {
	return &Client{id: uuid.New(), send: make(chan []byte, buffer)}
}

func drain(t *testing.T, c *Client) []received {
	t.Helper()
	var out []received
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return out
			}
			var msg received
			if err := json.Unmarshal(b, &msg); err != nil {
				t.Fatalf("bad frame %s: %v", b, err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func types(msgs []received) string {
	var ts []string
	for _, m := range msgs {
		ts = append(ts, m.Type)
	}
	return strings.Join(ts, ",")
}

func moveMsg(player string, row, col int, cmd string) *InboundMessage {
	from := skirmish.Pos(row, col)
	return &InboundMessage{Type: msgMove, Player: player, Data: &MoveData{Command: cmd, From: &from}}
}

func TestHubJoinSendsInit(t *testing.T) {
	h := newTestHub(t, mustGame(t))
	c := fakeClient(8)
	ctx := context.Background()

	h.handle(ctx, request{kind: reqJoin, client: c})

	msgs := drain(t, c)
	if types(msgs) != "init" {
		t.Fatalf("got %q, want init", types(msgs))
	}

	var snap skirmish.Snapshot
	if err := json.Unmarshal(msgs[0].Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.CurrentPlayer != skirmish.PlayerA {
		t.Errorf("current player = %s, want A", snap.CurrentPlayer)
	}
	if snap.PlayerCounts[skirmish.PlayerB] != 5 {
		t.Errorf("B has %d pieces, want 5", snap.PlayerCounts[skirmish.PlayerB])
	}
}

func TestHubMoveIsBroadcast(t *testing.T) {
	h := newTestHub(t, mustGame(t))
	a, b := fakeClient(8), fakeClient(8)
	ctx := context.Background()

	h.handle(ctx, request{kind: reqJoin, client: a})
	h.handle(ctx, request{kind: reqJoin, client: b})
	drain(t, a)
	drain(t, b)

	h.handle(ctx, request{kind: reqMessage, client: a, msg: moveMsg("A", 4, 0, "P1:F")})

	for name, c := range map[string]*Client{"a": a, "b": b} {
		msgs := drain(t, c)
		if types(msgs) != "moveResult,update" {
			t.Fatalf("%s got %q, want moveResult,update", name, types(msgs))
		}

		var res MoveResultData
		if err := json.Unmarshal(msgs[0].Data, &res); err != nil {
			t.Fatal(err)
		}
		if res.Piece != "A-P1" || res.Move != "P1:F" {
			t.Errorf("%s: moveResult = %+v", name, res)
		}
		if res.To != skirmish.Pos(3, 0) || res.CombatResult.Captured {
			t.Errorf("%s: moveResult = %+v", name, res)
		}
	}
}

func TestHubRejectionGoesToRequesterOnly(t *testing.T) {
	game := mustGame(t)
	h := newTestHub(t, game)
	a, b := fakeClient(8), fakeClient(8)
	ctx := context.Background()

	h.handle(ctx, request{kind: reqJoin, client: a})
	h.handle(ctx, request{kind: reqJoin, client: b})
	drain(t, a)
	drain(t, b)
	before := game.Board.String()

	for _, tc := range []struct {
		name   string
		msg    *InboundMessage
		reason string
	}{
		{"out of turn", moveMsg("B", 0, 0, "P1:F"), "not your turn"},
		{"unknown player", moveMsg("Z", 4, 0, "P1:F"), "not your turn"},
		{"bad command", moveMsg("A", 4, 0, "P1-F"), "invalid move command format"},
		{"wrong piece", moveMsg("A", 4, 0, "H1:F"), "character does not exist or mismatch"},
		{"unknown kind", moveMsg("A", 4, 0, "X9:F"), "character does not exist or mismatch"},
		{"unknown direction", moveMsg("A", 4, 0, "P1:Z"), "invalid move: no such direction"},
		{"markup in command", moveMsg("A", 4, 0, "<script>x</script>P1:F"), "invalid move command format"},
		{"escaped command", moveMsg("A", 4, 0, "P1:F&amp;"), "invalid move command format"},
		{"off board", moveMsg("A", 4, 0, "P1:L"), "invalid move"},
		{"no data", &InboundMessage{Type: msgMove, Player: "A"}, "invalid move command format"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h.handle(ctx, request{kind: reqMessage, client: b, msg: tc.msg})

			msgs := drain(t, b)
			if types(msgs) != "invalidMove" {
				t.Fatalf("got %q, want invalidMove", types(msgs))
			}
			if !strings.HasPrefix(msgs[0].Reason, tc.reason) {
				t.Errorf("reason = %q, want prefix %q", msgs[0].Reason, tc.reason)
			}
			if others := drain(t, a); len(others) != 0 {
				t.Errorf("bystander got %q", types(others))
			}
		})
	}

	if after := game.Board.String(); after != before {
		t.Errorf("rejected moves changed the board:\n%s\nwant\n%s", after, before)
	}
}

func TestHubReset(t *testing.T) {
	game := mustGame(t)
	h := newTestHub(t, game)
	c := fakeClient(8)
	ctx := context.Background()

	h.handle(ctx, request{kind: reqJoin, client: c})
	h.handle(ctx, request{kind: reqMessage, client: c, msg: moveMsg("A", 4, 0, "P1:F")})
	drain(t, c)

	h.handle(ctx, request{kind: reqMessage, client: c, msg: &InboundMessage{Type: msgReset}})

	if types(drain(t, c)) != "update" {
		t.Fatal("reset should broadcast an update")
	}
	if game.Current != skirmish.PlayerA || game.Moves != 0 {
		t.Errorf("after reset current=%s moves=%d", game.Current, game.Moves)
	}
	if game.Board.At(skirmish.Pos(4, 0)) == nil {
		t.Error("A-P1 should be back on its home square")
	}
}

func TestHubGameOver(t *testing.T) {
	cfg := skirmish.Config{Size: 3, HomeRow: []skirmish.Kind{skirmish.Pawn, skirmish.Pawn, skirmish.Pawn}}
	game, err := skirmish.NewGame(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h := newTestHub(t, game)
	c := fakeClient(16)
	ctx := context.Background()
	h.handle(ctx, request{kind: reqJoin, client: c})
	drain(t, c)

	// Clear the board down to one piece each, facing each other.
	for _, p := range game.Board.Pieces(skirmish.PlayerA) {
		if p.ID != "P1" {
			game.Board.Squares[p.Position.Row][p.Position.Col] = nil
		}
	}
	for _, p := range game.Board.Pieces(skirmish.PlayerB) {
		if p.ID != "P1" {
			game.Board.Squares[p.Position.Row][p.Position.Col] = nil
		}
	}

	h.handle(ctx, request{kind: reqMessage, client: c, msg: moveMsg("A", 2, 0, "P1:F")})
	drain(t, c)
	h.handle(ctx, request{kind: reqMessage, client: c, msg: moveMsg("B", 0, 0, "P1:F")})

	msgs := drain(t, c)
	if types(msgs) != "moveResult,gameOver" {
		t.Fatalf("got %q, want moveResult,gameOver", types(msgs))
	}
	if msgs[1].Winner == nil || *msgs[1].Winner != "B" {
		t.Errorf("winner = %v, want B", msgs[1].Winner)
	}

	var res MoveResultData
	if err := json.Unmarshal(msgs[0].Data, &res); err != nil {
		t.Fatal(err)
	}
	if !res.CombatResult.Captured || res.CombatResult.CapturedPiece.Name() != "A-P1" {
		t.Errorf("combat = %+v, want A-P1 captured", res.CombatResult)
	}

	if winner, over := game.GameOver(); !over || winner != skirmish.PlayerB {
		t.Fatalf("game over = %v winner = %s", over, winner)
	}
}

func TestHubJoinFinishedGame(t *testing.T) {
	game := mustGame(t)
	game.Over = true
	game.Winner = skirmish.PlayerB
	h := newTestHub(t, game)
	c := fakeClient(8)

	h.handle(context.Background(), request{kind: reqJoin, client: c})

	msgs := drain(t, c)
	if types(msgs) != "gameOver" {
		t.Fatalf("got %q, want gameOver", types(msgs))
	}
	if msgs[0].Winner == nil || *msgs[0].Winner != "B" {
		t.Errorf("winner = %v, want B", msgs[0].Winner)
	}

	h.handle(context.Background(), request{kind: reqMessage, client: c, msg: moveMsg("A", 4, 0, "P1:F")})
	msgs = drain(t, c)
	if types(msgs) != "invalidMove" || !strings.HasPrefix(msgs[0].Reason, "game is over") {
		t.Errorf("got %+v, want a game is over rejection", msgs)
	}
}

func TestHubSlowClientDropsMessages(t *testing.T) {
	h := newTestHub(t, mustGame(t))
	slow, fast := fakeClient(1), fakeClient(8)
	ctx := context.Background()

	h.handle(ctx, request{kind: reqJoin, client: slow})
	h.handle(ctx, request{kind: reqJoin, client: fast})
	drain(t, fast)

	// slow still holds its init, so both broadcasts are dropped for it.
	h.handle(ctx, request{kind: reqMessage, client: fast, msg: moveMsg("A", 4, 0, "P1:F")})

	if got := types(drain(t, fast)); got != "moveResult,update" {
		t.Errorf("fast got %q", got)
	}
	if got := types(drain(t, slow)); got != "init" {
		t.Errorf("slow got %q, want only init", got)
	}
}

func TestHubLeaveClosesSend(t *testing.T) {
	h := newTestHub(t, mustGame(t))
	c := fakeClient(8)
	ctx := context.Background()

	h.handle(ctx, request{kind: reqJoin, client: c})
	h.handle(ctx, request{kind: reqLeave, client: c})
	// A second leave must not close the channel twice.
	h.handle(ctx, request{kind: reqLeave, client: c})

	drain(t, c)
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
	if len(h.clients) != 0 {
		t.Errorf("%d clients left", len(h.clients))
	}
}

func TestHubSnapshotAfterStop(t *testing.T) {
	h := newTestHub(t, mustGame(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	if _, err := h.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	cancel()
	<-done

	if _, err := h.Snapshot(context.Background()); err != errHubClosed {
		t.Errorf("got %v, want errHubClosed", err)
	}
}

func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string) received {
	t.Helper()
	for {
		var msg received
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestWebsocketRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	playerA, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer playerA.CloseNow()
	playerB, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer playerB.CloseNow()

	readUntil(ctx, t, playerA, msgInit)
	readUntil(ctx, t, playerB, msgInit)

	// Garbage is ignored and the connection stays usable.
	if err := playerB.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	if err := wsjson.Write(ctx, playerB, moveMsg("B", 0, 0, "P1:F")); err != nil {
		t.Fatal(err)
	}
	rejected := readUntil(ctx, t, playerB, msgInvalidMove)
	if !strings.HasPrefix(rejected.Reason, "not your turn") {
		t.Errorf("reason = %q", rejected.Reason)
	}

	if err := wsjson.Write(ctx, playerA, moveMsg("A", 4, 0, "P1:F")); err != nil {
		t.Fatal(err)
	}
	for _, conn := range []*websocket.Conn{playerA, playerB} {
		readUntil(ctx, t, conn, msgMoveResult)
		update := readUntil(ctx, t, conn, msgUpdate)

		var snap skirmish.Snapshot
		if err := json.Unmarshal(update.Data, &snap); err != nil {
			t.Fatal(err)
		}
		if snap.CurrentPlayer != skirmish.PlayerB {
			t.Errorf("current player = %s, want B", snap.CurrentPlayer)
		}
		if snap.At(skirmish.Pos(3, 0)) == nil {
			t.Error("A-P1 should be on 3,0")
		}
	}

	snap, err := s.hub.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.CurrentPlayer != skirmish.PlayerB {
		t.Errorf("hub current player = %s, want B", snap.CurrentPlayer)
	}
}
