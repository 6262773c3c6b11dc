package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/icco/skirmish"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	sendBuffer = 64
	pingPeriod = 15 * time.Second
	writeWait  = 10 * time.Second
)

var errHubClosed = errors.New("hub is not running")

// Client is one websocket connection.
type Client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

type requestKind int

const (
	reqJoin requestKind = iota
	reqLeave
	reqMessage
	reqState
)

type request struct {
	kind   requestKind
	client *Client
	msg    *InboundMessage
	reply  chan *skirmish.Snapshot
}

// Hub owns the match. Every change to the game, and every read of it, goes
// through the Run goroutine, so moves are applied strictly one at a time in
// the order they arrive.
type Hub struct {
	game    *skirmish.Game
	archive *Archive
	metrics *Metrics
	origins []string

	clients  map[*Client]struct{}
	requests chan request
	done     chan struct{}
}

// NewHub creates a hub for game. archive may be nil.
func NewHub(game *skirmish.Game, archive *Archive, metrics *Metrics, origins []string) *Hub {
	return &Hub{
		game:     game,
		archive:  archive,
		metrics:  metrics,
		origins:  origins,
		clients:  map[*Client]struct{}{},
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// Run processes requests until ctx is cancelled. It then closes every
// client's send channel, which ends their writers.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if err := h.archive.StartMatch(h.game.Config()); err != nil {
		log.Errorw("could not archive match", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			return
		case req := <-h.requests:
			h.handle(ctx, req)
		}
	}
}

// submit hands req to the run loop. It reports false when the hub has
// stopped or ctx ended first.
func (h *Hub) submit(ctx context.Context, req request) bool {
	select {
	case h.requests <- req:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Snapshot returns a copy of the current state.
func (h *Hub) Snapshot(ctx context.Context) (*skirmish.Snapshot, error) {
	reply := make(chan *skirmish.Snapshot, 1)
	if !h.submit(ctx, request{kind: reqState, reply: reply}) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errHubClosed
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) handle(ctx context.Context, req request) {
	switch req.kind {
	case reqJoin:
		h.clients[req.client] = struct{}{}
		h.metrics.clientConnected()
		log.Infow("client connected", "client", req.client.id.String(), "clients", len(h.clients))

		typ := msgInit
		if _, over := h.game.GameOver(); over {
			typ = msgGameOver
		}
		h.sendTo(req.client, snapshotMessage(typ, h.game.Snapshot()))
	case reqLeave:
		if _, ok := h.clients[req.client]; ok {
			h.remove(req.client)
			log.Infow("client disconnected", "client", req.client.id.String(), "clients", len(h.clients))
		}
	case reqState:
		req.reply <- h.game.Snapshot()
	case reqMessage:
		switch req.msg.Type {
		case msgMove:
			h.handleMove(ctx, req.client, req.msg)
		case msgReset:
			h.handleReset()
		default:
			log.Warnw("unhandled message type", "client", req.client.id.String(), "type", ugcPolicy.Sanitize(req.msg.Type))
		}
	}
}

func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.metrics.clientDisconnected()
}

func (h *Hub) handleMove(ctx context.Context, c *Client, msg *InboundMessage) {
	player, _ := skirmish.ParsePlayer(msg.Player)

	var (
		res *skirmish.Result
		err error
	)
	switch {
	case msg.Data == nil:
		err = skirmish.ErrInvalidCommand
	case msg.Data.From == nil:
		err = skirmish.ErrPieceMismatch
	default:
		res, err = h.game.ApplyMove(player, *msg.Data.From, msg.Data.Command)
	}

	if err != nil {
		var command string
		if msg.Data != nil {
			command = ugcPolicy.Sanitize(msg.Data.Command)
		}
		if skirmish.IsRejection(err) {
			log.Infow("move rejected", "client", c.id.String(), "player", player.String(), "command", command, zap.String("reason", ugcPolicy.Sanitize(err.Error())))
		} else {
			log.Errorw("move failed", "client", c.id.String(), "player", player.String(), "command", command, zap.Error(err))
		}
		h.metrics.moveRejected(ctx, err)
		h.sendTo(c, invalidMoveMessage(err))
		return
	}

	h.metrics.moveApplied(ctx, res)
	if err := h.archive.RecordMove(res); err != nil {
		log.Errorw("could not archive move", "number", res.Number, zap.Error(err))
	}
	if res.GameOver {
		if err := h.archive.FinishMatch(res.Winner); err != nil {
			log.Errorw("could not archive result", zap.Error(err))
		}
	}

	h.broadcast(moveResultMessage(res))
	h.broadcast(snapshotMessage(msgUpdate, h.game.Snapshot()))
}

func (h *Hub) handleReset() {
	if err := h.game.Reset(); err != nil {
		log.Errorw("could not reset game", zap.Error(err))
		return
	}
	log.Infow("game reset")

	if err := h.archive.StartMatch(h.game.Config()); err != nil {
		log.Errorw("could not archive match", zap.Error(err))
	}

	h.broadcast(snapshotMessage(msgUpdate, h.game.Snapshot()))
}

func (h *Hub) sendTo(c *Client, msg OutboundMessage) {
	b, err := encode(msg)
	if err != nil {
		log.Errorw("could not encode message", "type", msg.Type, zap.Error(err))
		return
	}

	select {
	case c.send <- b:
	default:
		log.Warnw("client too slow, dropping message", "client", c.id.String(), "type", msg.Type)
	}
}

func (h *Hub) broadcast(msg OutboundMessage) {
	b, err := encode(msg)
	if err != nil {
		log.Errorw("could not encode message", "type", msg.Type, zap.Error(err))
		return
	}

	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			log.Warnw("client too slow, dropping message", "client", c.id.String(), "type", msg.Type)
		}
	}
}

// ServeWS upgrades the request and pumps frames until either side closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		log.Warnw("websocket accept failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &Client{id: uuid.New(), conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.submit(ctx, request{kind: reqJoin, client: client}) {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go h.writePump(ctx, client)
	h.readPump(ctx, client)

	h.submit(context.Background(), request{kind: reqLeave, client: client})
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Debugw("websocket read failed", "client", c.id.String(), zap.Error(err))
			}
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnw("undecodable frame", "client", c.id.String(), zap.Error(err))
			continue
		}

		if !h.submit(ctx, request{kind: reqMessage, client: c, msg: &msg}) {
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *Client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
