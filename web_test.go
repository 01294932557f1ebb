package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/liarbox/games/liar"
	"github.com/Seednode/liarbox/topics"
	"github.com/gorilla/websocket"
)

func testServer(t *testing.T, store topics.Store) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 64)
	go drainErrors(errs, ctx.Done())

	srv := httptest.NewServer(newRouter(ctx, &Config{}, store, errs))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return srv
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func TestRoutes_Static(t *testing.T) {
	srv := testServer(t, testStore(t))

	tests := map[string]struct {
		Path        string
		ContentType string
		Contains    string
	}{
		"health":   {Path: "/healthz", ContentType: "text/plain", Contains: "Ok"},
		"version":  {Path: "/version", ContentType: "text/plain", Contains: "liarbox v" + releaseVersion},
		"home":     {Path: "/", ContentType: "text/html", Contains: "Start a game"},
		"robots":   {Path: "/robots.txt", Contains: "Disallow: /liar/"},
		"script":   {Path: "/assets/liar/app.js", ContentType: "text/javascript", Contains: "WebSocket"},
		"favicon":  {Path: "/favicons/favicon.svg", ContentType: "image/svg+xml", Contains: "<svg"},
		"manifest": {Path: "/favicons/site.webmanifest", ContentType: "application/manifest+json", Contains: "liarbox"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + test.Path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if !strings.HasPrefix(resp.Header.Get("Content-Type"), test.ContentType) {
				t.Errorf("expected content type %s, got %s", test.ContentType, resp.Header.Get("Content-Type"))
			}
			if !strings.Contains(string(body), test.Contains) {
				t.Errorf("expected body to contain %q", test.Contains)
			}
			if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers missing")
			}
		})
	}
}

func TestRoutes_MissingAsset(t *testing.T) {
	srv := testServer(t, testStore(t))

	resp, err := http.Get(srv.URL + "/assets/liar/missing.js")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRoutes_AddTopic(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, store)
	client := &http.Client{CheckRedirect: noRedirect}

	resp, err := client.PostForm(srv.URL+"/topics", url.Values{"question": {"Q1"}, "range": {"1~50"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/topics?added=1" {
		t.Fatalf("expected redirect to /topics?added=1, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, err = http.Get(srv.URL + "/topics.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got []liar.Topic
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != (liar.Topic{Question: "Q1", NumberRange: "1~50"}) {
		t.Fatalf("unexpected topics %v", got)
	}

	page, err := http.Get(srv.URL + "/topics")
	if err != nil {
		t.Fatal(err)
	}
	defer page.Body.Close()

	body, _ := io.ReadAll(page.Body)
	if !strings.Contains(string(body), "<li>Q1 / 1~50</li>") {
		t.Fatalf("topic missing from page:\n%s", body)
	}
}

func TestRoutes_AddTopicRejectsBlank(t *testing.T) {
	store := testStore(t, liar.Topic{Question: "Q1", NumberRange: "1~50"})
	srv := testServer(t, store)

	resp, err := http.PostForm(srv.URL+"/topics", url.Values{"question": {"   "}, "range": {"1~50"}})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Please fill in both") {
		t.Fatal("expected validation message")
	}

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("blank topic changed the store: %v", list)
	}
}

func TestRoutes_TopicsQR(t *testing.T) {
	srv := testServer(t, testStore(t))

	resp, err := http.Get(srv.URL + "/topics/qr")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %s", resp.Header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatal("body is not a png")
	}
}

func TestRoutes_NewTableRedirect(t *testing.T) {
	srv := testServer(t, testStore(t))
	client := &http.Client{CheckRedirect: noRedirect}

	resp, err := client.Get(srv.URL + "/liar")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	loc := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusTemporaryRedirect || !strings.HasPrefix(loc, "/liar/") || len(loc) != len("/liar/")+8 {
		t.Fatalf("unexpected redirect %d %q", resp.StatusCode, loc)
	}

	page, err := client.Get(srv.URL + loc)
	if err != nil {
		t.Fatal(err)
	}
	page.Body.Close()

	if page.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for table page, got %d", page.StatusCode)
	}

	var found bool
	for _, c := range page.Cookies() {
		if c.Name == playerCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("table page did not set a player cookie")
	}
}

func readWS(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read websocket: %v", err)
	}
	return msg
}

func TestWebsocket_Round(t *testing.T) {
	srv := testServer(t, testStore(t, liar.Topic{Question: "Q1", NumberRange: "1~50"}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/liar/WSTEST01/ws"

	header := http.Header{}
	header.Set("Cookie", playerCookieName+"=owner-device")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	msg := readWS(t, conn)
	if msg["type"] != "state" {
		t.Fatalf("expected initial state, got %v", msg)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "assign", Players: 3}); err != nil {
		t.Fatal(err)
	}
	msg = readWS(t, conn)
	state := msg["state"].(map[string]any)
	if state["phase"] != string(liar.PhaseRoleCheck) {
		t.Fatalf("expected role check, got %v", state["phase"])
	}

	if err := conn.WriteJSON(ClientMessage{Type: "advance"}); err != nil {
		t.Fatal(err)
	}
	if msg = readWS(t, conn); msg["type"] != "error" || msg["kind"] != "AdvanceBeforeReveal" {
		t.Fatalf("expected AdvanceBeforeReveal error, got %v", msg)
	}
	readWS(t, conn)

	other := http.Header{}
	other.Set("Cookie", playerCookieName+"=someone-else")

	intruder, _, err := websocket.DefaultDialer.Dial(wsURL, other)
	if err != nil {
		t.Fatal(err)
	}
	defer intruder.Close()

	if msg = readWS(t, intruder); msg["type"] != "error" || msg["kind"] != "NotOwner" {
		t.Fatalf("expected NotOwner for second device, got %v", msg)
	}
}
