// Liarbox Liar Game
//
// One phone (or laptop) is passed around the table. The facilitator picks a player
// count and the server deals one liar, one troll when there are more than three
// players, and citizens for everyone else, along with a secret topic. Each player
// in turn presses reveal, reads their role, and hands the device on. The liar sees
// only the number range, never the question. After everyone has looked, the table
// votes on who the liar is.
//
// Features:
// - WebSockets per table ID: /liar/:tableid and /liar/:tableid/ws
// - First cookie to connect owns the table; other cookies are refused
// - All actions for a table are serialised through the table's run loop
// - Snapshots only ever carry the current player's role while roles are checked
// - Optional explicit topic selection instead of a random hidden topic
// - Tables auto-reaped after configurable idle timeout
// - Random 8-char table IDs via crypto/rand, with server-side collision check

package main

import (
	"context"
	"crypto/rand"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Seednode/liarbox/games/liar"
	"github.com/Seednode/liarbox/topics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

var errNotOwner = errors.New("this table belongs to another device")

// Messages coming from clients
type ClientMessage struct {
	Type    string `json:"type"`              // "assign", "reveal", "advance", "vote", "restart"
	Players int    `json:"players,omitempty"` // assign
	Topic   int    `json:"topic,omitempty"`   // assign: 1-based topic number, 0 for random
	Accused int    `json:"accused,omitempty"` // vote
}

// StateMessage carries everything the table screen may currently show.
type StateMessage struct {
	Type   string        `json:"type"`   // "state"
	State  liar.Snapshot `json:"state"`  // current round view
	Topics int           `json:"topics"` // number of stored topics
}

// ErrorMessage is sent only to the client whose action was rejected.
type ErrorMessage struct {
	Type    string `json:"type"`    // "error"
	Kind    string `json:"kind"`    // e.g. "InvalidPhase", "EmptyField"
	Message string `json:"message"` // user-facing text
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Table struct {
	id      string
	ctx     context.Context
	owner   string
	clients map[*Client]bool
	session *liar.Session
	store   topics.Store

	register chan *Client
	unreg    chan *Client
	commands chan command
	done     chan struct{}
	stop     sync.Once

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newTable(ctx context.Context, tableID string, store topics.Store) *Table {
	now := time.Now()
	return &Table{
		id:         tableID,
		ctx:        ctx,
		clients:    make(map[*Client]bool),
		session:    liar.NewSession(nil),
		store:      store,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (t *Table) touch() {
	t.mu.Lock()
	t.lastActive = time.Now()
	t.mu.Unlock()
}

func (t *Table) idleSince() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastActive
}

func (t *Table) close() {
	t.stop.Do(func() {
		close(t.done)
	})
}

func (t *Table) run(cfg *Config) {
	defer t.closeAll()

	for {
		select {
		case c := <-t.register:
			t.handleRegister(cfg, c)

		case c := <-t.unreg:
			t.touch()
			if _, ok := t.clients[c]; ok {
				delete(t.clients, c)
				close(c.send)
			}

		case cmd := <-t.commands:
			t.handle(cfg, cmd)

		case <-t.done:
			return
		}
	}
}

func (t *Table) handleRegister(cfg *Config, c *Client) {
	t.touch()

	// First connection owns the table
	if t.owner == "" {
		t.owner = c.playerID
		logf(cfg, "GAMES: Table %s claimed", t.id)
	}

	if c.playerID != t.owner {
		c.send <- ErrorMessage{
			Type:    "error",
			Kind:    "NotOwner",
			Message: errNotOwner.Error(),
		}
		close(c.send)
		return
	}

	t.clients[c] = true
	t.sendTo(c, t.stateMessage())
}

// handle applies one client action to the session. Rejected actions leave the
// round untouched and are reported only to the sender.
func (t *Table) handle(cfg *Config, cmd command) {
	t.touch()

	c := cmd.client
	msg := cmd.msg

	// Only registered clients, all of which share the owner's cookie, may act.
	if !t.clients[c] {
		return
	}

	var err error

	switch msg.Type {
	case "assign":
		err = t.assign(msg)
		if err == nil {
			logf(cfg, "GAMES: Dealt %d players at table %s", msg.Players, t.id)
		}
	case "reveal":
		_, err = t.session.Reveal()
	case "advance":
		err = t.session.Advance()
	case "vote":
		var outcome liar.Outcome
		outcome, err = t.session.Vote(msg.Accused)
		if err == nil {
			logf(cfg, "GAMES: Table %s accused player %d: %s", t.id, msg.Accused, outcome)
		}
	case "restart":
		t.session.Restart()
		logf(cfg, "GAMES: Table %s restarted", t.id)
	default:
		return
	}

	if err != nil {
		zap.L().Debug("rejected action",
			zap.String("table", t.id),
			zap.String("action", msg.Type),
			zap.Error(err),
		)
		t.sendError(c, err)
	}

	t.broadcastState()
}

func (t *Table) assign(msg ClientMessage) error {
	ctx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()

	list, err := t.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load topics: %w", err)
	}

	if msg.Topic == 0 {
		return t.session.Assign(msg.Players, list)
	}

	if len(list) == 0 {
		return liar.ErrInsufficientTopics
	}
	if msg.Topic < 1 || msg.Topic > len(list) {
		return fmt.Errorf("topic %d of %d: %w", msg.Topic, len(list), liar.ErrOutOfRange)
	}

	return t.session.AssignTopic(msg.Players, list[msg.Topic-1])
}

func (t *Table) topicCount() int {
	ctx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()

	list, err := t.store.List(ctx)
	if err != nil {
		zap.L().Warn("could not count topics", zap.String("table", t.id), zap.Error(err))
		return 0
	}
	return len(list)
}

func (t *Table) stateMessage() StateMessage {
	return StateMessage{
		Type:   "state",
		State:  t.session.Snapshot(),
		Topics: t.topicCount(),
	}
}

func (t *Table) sendTo(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(t.clients, c)
		close(c.send)
	}
}

func (t *Table) sendError(c *Client, err error) {
	t.sendTo(c, ErrorMessage{
		Type:    "error",
		Kind:    liar.Kind(err),
		Message: err.Error(),
	})
}

func (t *Table) broadcastState() {
	msg := t.stateMessage()
	for client := range t.clients {
		t.sendTo(client, msg)
	}
}

// closeAll disconnects every client of this table. Only called from run.
func (t *Table) closeAll() {
	for c := range t.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(t.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const playerCookieName = "liarbox_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id, err := uuid.NewV7()
	if err != nil {
		zap.S().Errorw("GAMES: could not generate player id", "error", err)
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id.String()
}

// TableManager holds a set of tables keyed by table ID, so each $path/$tableid
// is its own isolated session.
type TableManager struct {
	ctx         context.Context
	store       topics.Store
	mu          sync.Mutex
	tables      map[string]*Table
	idleTimeout time.Duration
}

func newTableManager(ctx context.Context, store topics.Store, idleTimeout time.Duration) *TableManager {
	tm := &TableManager{
		ctx:         ctx,
		store:       store,
		tables:      make(map[string]*Table),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go tm.reaperLoop()
	}
	return tm
}

func (tm *TableManager) getTable(cfg *Config, tableID string) *Table {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if table, ok := tm.tables[tableID]; ok {
		return table
	}

	table := newTable(tm.ctx, tableID, tm.store)
	tm.tables[tableID] = table
	go table.run(cfg)
	return table
}

// newTableID generates a crypto-random table ID and ensures it doesn't
// collide with existing tables.
func (tm *TableManager) newTableID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		tm.mu.Lock()
		_, exists := tm.tables[id]
		tm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically closes tables that have been idle longer than idleTimeout.
func (tm *TableManager) reaperLoop() {
	ticker := time.NewTicker(tm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-tm.ctx.Done():
			tm.closeAll()
			return
		case <-ticker.C:
			tm.reap(time.Now().Add(-tm.idleTimeout))
		}
	}
}

func (tm *TableManager) reap(cutoff time.Time) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for id, table := range tm.tables {
		if table.idleSince().Before(cutoff) {
			delete(tm.tables, id)
			table.close()
			zap.L().Debug("reaped idle table", zap.String("table", id))
		}
	}
}

func (tm *TableManager) closeAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for id, table := range tm.tables {
		delete(tm.tables, id)
		table.close()
	}
}

// WebSocket handler that picks the table based on :tableid
func serveWSForManager(cfg *Config, tm *TableManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tableID := ps.ByName("tableid")
		if tableID == "" {
			http.Error(w, "missing table id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		table := tm.getTable(cfg, tableID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			zap.S().Debugw("GAMES: websocket upgrade failed", "table", tableID, "error", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case table.register <- client:
		case <-table.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(table)
	}
}

func (c *Client) readPump(t *Table) {
	defer func() {
		select {
		case t.unreg <- c:
		case <-t.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case t.commands <- command{client: c, msg: msg}:
		case <-t.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

//go:embed assets/liar/index.html
var liarIndexHTML []byte

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_ = getOrSetPlayerID(w, r)

		if _, err := writeCached(cfg, w, "index.html", liarIndexHTML); err != nil {
			errs <- err
		}
	}
}

// redirectNewTable handles GET /path by generating a new random table ID
// (with server-side collision detection) and redirecting to /path/:tableid.
func redirectNewTable(cfg *Config, path string, tm *TableManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		tableID := tm.newTableID()
		logf(cfg, "GAMES: Created table %s%s/%s", cfg.prefix, path, tableID)
		http.Redirect(w, r, cfg.prefix+path+"/"+tableID, http.StatusTemporaryRedirect)
	}
}

// registerLiarGame sets up routes so that:
//   - $path                  → redirects to new random table (8-char ID)
//   - $path/:tableid         → HTML client
//   - $path/:tableid/ws      → WebSocket for that table
func registerLiarGame(ctx context.Context, cfg *Config, path string, store topics.Store, mux *httprouter.Router, errs chan<- error) *TableManager {
	tm := newTableManager(ctx, store, cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewTable(cfg, path, tm))

	mux.GET(cfg.prefix+path+"/:tableid", getIndexHandler(cfg, errs))

	mux.GET(cfg.prefix+path+"/:tableid/ws", serveWSForManager(cfg, tm))

	return tm
}
