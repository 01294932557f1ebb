package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Seednode/liarbox/games/liar"
	"github.com/Seednode/liarbox/topics"
)

func testStore(t *testing.T, entries ...liar.Topic) topics.Store {
	t.Helper()

	store := topics.NewFileStore(filepath.Join(t.TempDir(), "topics.json"))
	for _, e := range entries {
		if err := store.Append(context.Background(), e.Question, e.NumberRange); err != nil {
			t.Fatalf("seed topic: %v", err)
		}
	}
	return store
}

func testClient(playerID string) *Client {
	return &Client{send: make(chan any, 16), playerID: playerID}
}

func recv(t *testing.T, c *Client) any {
	t.Helper()

	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return msg
	default:
		t.Fatal("expected a message for client")
	}
	return nil
}

func recvState(t *testing.T, c *Client) StateMessage {
	t.Helper()

	msg, ok := recv(t, c).(StateMessage)
	if !ok {
		t.Fatalf("expected state message, got %#v", msg)
	}
	return msg
}

func recvError(t *testing.T, c *Client) ErrorMessage {
	t.Helper()

	msg, ok := recv(t, c).(ErrorMessage)
	if !ok {
		t.Fatalf("expected error message, got %#v", msg)
	}
	return msg
}

func TestTable_RegisterSendsState(t *testing.T) {
	store := testStore(t, liar.Topic{Question: "Q1", NumberRange: "1~50"})
	table := newTable(context.Background(), "TEST0001", store)
	cfg := &Config{}

	owner := testClient("owner")
	table.handleRegister(cfg, owner)

	msg := recvState(t, owner)
	if msg.State.Phase != liar.PhaseNotStarted {
		t.Fatalf("expected not started, got %s", msg.State.Phase)
	}
	if msg.Topics != 1 {
		t.Fatalf("expected 1 topic, got %d", msg.Topics)
	}
}

func TestTable_RefusesOtherDevices(t *testing.T) {
	table := newTable(context.Background(), "TEST0002", testStore(t))
	cfg := &Config{}

	owner := testClient("owner")
	table.handleRegister(cfg, owner)
	recvState(t, owner)

	other := testClient("other")
	table.handleRegister(cfg, other)

	if msg := recvError(t, other); msg.Kind != "NotOwner" {
		t.Fatalf("expected NotOwner, got %s", msg.Kind)
	}
	if _, ok := <-other.send; ok {
		t.Fatal("refused client channel should be closed")
	}

	// Actions from an unregistered client are dropped without touching the round.
	table.handle(cfg, command{client: other, msg: ClientMessage{Type: "restart"}})
	if len(owner.send) != 0 {
		t.Fatal("owner should not hear about a refused client's action")
	}
}

func TestTable_FullRound(t *testing.T) {
	topic := liar.Topic{Question: "How many pets have you had?", NumberRange: "0~20"}
	table := newTable(context.Background(), "TEST0003", testStore(t, topic))
	cfg := &Config{}

	owner := testClient("owner")
	table.handleRegister(cfg, owner)
	recvState(t, owner)

	table.handle(cfg, command{client: owner, msg: ClientMessage{Type: "assign", Players: 4, Topic: 1}})
	msg := recvState(t, owner)
	if msg.State.Phase != liar.PhaseRoleCheck || msg.State.PlayerCount != 4 || msg.State.CurrentPlayer != 1 {
		t.Fatalf("unexpected state after assign: %+v", msg.State)
	}
	if msg.State.Reveal != nil {
		t.Fatal("role shown before reveal")
	}

	for player := 1; player <= 4; player++ {
		table.handle(cfg, command{client: owner, msg: ClientMessage{Type: "reveal"}})
		msg = recvState(t, owner)

		view := msg.State.Reveal
		if view == nil || view.Player != player {
			t.Fatalf("expected reveal for player %d, got %+v", player, view)
		}
		if view.Role == liar.RoleLiar && view.Question != "" {
			t.Fatal("liar was shown the question")
		}
		if view.Role != liar.RoleLiar && view.Question != topic.Question {
			t.Fatalf("%s expected question %q, got %q", view.Role, topic.Question, view.Question)
		}

		table.handle(cfg, command{client: owner, msg: ClientMessage{Type: "advance"}})
		recvState(t, owner)
	}

	if table.session.Phase() != liar.PhaseVoting {
		t.Fatalf("expected voting, got %s", table.session.Phase())
	}

	table.handle(cfg, command{client: owner, msg: ClientMessage{Type: "vote", Accused: 2}})
	msg = recvState(t, owner)
	if msg.State.Phase != liar.PhaseResolved || msg.State.Result == nil {
		t.Fatalf("expected resolved state, got %+v", msg.State)
	}
	if msg.State.Result.Topic != topic || msg.State.Result.Accused != 2 {
		t.Fatalf("unexpected result %+v", msg.State.Result)
	}

	table.handle(cfg, command{client: owner, msg: ClientMessage{Type: "restart"}})
	if msg = recvState(t, owner); msg.State.Phase != liar.PhaseNotStarted {
		t.Fatalf("expected not started after restart, got %s", msg.State.Phase)
	}
}

func TestTable_RejectedActions(t *testing.T) {
	tests := map[string]struct {
		Topics []liar.Topic
		Setup  []ClientMessage
		Action ClientMessage
		Kind   string
	}{
		"no topics": {
			Action: ClientMessage{Type: "assign", Players: 5},
			Kind:   "InsufficientTopics",
		},
		"too many players": {
			Topics: []liar.Topic{{Question: "Q1", NumberRange: "1~50"}},
			Action: ClientMessage{Type: "assign", Players: 11},
			Kind:   "InvalidPlayerCount",
		},
		"unknown topic number": {
			Topics: []liar.Topic{{Question: "Q1", NumberRange: "1~50"}},
			Action: ClientMessage{Type: "assign", Players: 5, Topic: 2},
			Kind:   "OutOfRange",
		},
		"advance before reveal": {
			Topics: []liar.Topic{{Question: "Q1", NumberRange: "1~50"}},
			Setup:  []ClientMessage{{Type: "assign", Players: 3}},
			Action: ClientMessage{Type: "advance"},
			Kind:   "AdvanceBeforeReveal",
		},
		"vote during role check": {
			Topics: []liar.Topic{{Question: "Q1", NumberRange: "1~50"}},
			Setup:  []ClientMessage{{Type: "assign", Players: 3}},
			Action: ClientMessage{Type: "vote", Accused: 1},
			Kind:   "InvalidPhase",
		},
		"reveal before assign": {
			Action: ClientMessage{Type: "reveal"},
			Kind:   "InvalidPhase",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			table := newTable(context.Background(), "TEST0004", testStore(t, test.Topics...))
			cfg := &Config{}

			owner := testClient("owner")
			table.handleRegister(cfg, owner)
			recvState(t, owner)

			for _, msg := range test.Setup {
				table.handle(cfg, command{client: owner, msg: msg})
				recvState(t, owner)
			}

			before := table.session.Snapshot()

			table.handle(cfg, command{client: owner, msg: test.Action})
			if msg := recvError(t, owner); msg.Kind != test.Kind {
				t.Fatalf("expected %s, got %s (%s)", test.Kind, msg.Kind, msg.Message)
			}

			after := recvState(t, owner).State
			if after.Phase != before.Phase || after.CurrentPlayer != before.CurrentPlayer || after.Revealed != before.Revealed {
				t.Fatalf("rejected action changed state: %+v -> %+v", before, after)
			}
		})
	}
}

func TestTableManager_ReapsIdleTables(t *testing.T) {
	tm := newTableManager(context.Background(), testStore(t), 0)
	cfg := &Config{}

	table := tm.getTable(cfg, "IDLE0001")
	if again := tm.getTable(cfg, "IDLE0001"); again != table {
		t.Fatal("expected the same table for the same id")
	}

	tm.reap(time.Now().Add(-time.Hour))
	if _, ok := tm.tables["IDLE0001"]; !ok {
		t.Fatal("active table was reaped")
	}

	tm.reap(time.Now().Add(time.Minute))
	if _, ok := tm.tables["IDLE0001"]; ok {
		t.Fatal("idle table was not reaped")
	}

	select {
	case <-table.done:
	case <-time.After(time.Second):
		t.Fatal("reaped table was not stopped")
	}
}

func TestTableManager_NewTableID(t *testing.T) {
	tm := newTableManager(context.Background(), testStore(t), 0)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := tm.newTableID()
		if len(id) != 8 {
			t.Fatalf("expected 8 character id, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
