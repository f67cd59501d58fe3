package dispatch_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/obrien-tchaleu/crosscircle-server/internal/dispatch"
	"github.com/obrien-tchaleu/crosscircle-server/internal/registry"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
	"github.com/obrien-tchaleu/crosscircle-server/internal/transport"
	"github.com/obrien-tchaleu/crosscircle-server/internal/turn"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New()
	ctrl := turn.New()
	disp := dispatch.New(reg, ctrl, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := transport.Upgrade(w, r)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		disp.HandleConnection(conn)
	})

	server := httptest.NewServer(mux)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	return server, wsURL
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType constants.MessageType, payload interface{}) {
	t.Helper()
	envelope := models.Envelope{Type: msgType, Payload: payload}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) models.RawEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw models.RawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return raw
}

func readSession(t *testing.T, conn *websocket.Conn) models.Session {
	t.Helper()
	raw := readEnvelope(t, conn)
	if raw.Type != constants.MsgGameStateUpdate {
		t.Fatalf("expected gameStateUpdate, got %s", raw.Type)
	}
	var s models.Session
	if err := json.Unmarshal(raw.Payload, &s); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	return s
}

func TestCreateJoinAndStartGameOverWebSocket(t *testing.T) {
	server, wsURL := newTestServer(t)
	defer server.Close()

	host := dial(t, wsURL)
	defer host.Close()

	send(t, host, constants.MsgCreateGame, models.CreateGamePayload{PlayerID: "p1", PlayerName: "Alice"})
	hostState := readSession(t, host)
	if len(hostState.Players) != 1 {
		t.Fatalf("expected 1 player after createGame, got %d", len(hostState.Players))
	}
	gameID := hostState.GameID

	guest := dial(t, wsURL)
	defer guest.Close()

	send(t, guest, constants.MsgJoinGame, models.JoinGamePayload{GameID: gameID, PlayerID: "p2", PlayerName: "Bob"})

	// joinGame broadcasts to everyone in the room, so both sockets see it.
	hostState = readSession(t, host)
	guestState := readSession(t, guest)
	if len(hostState.Players) != 2 || len(guestState.Players) != 2 {
		t.Fatalf("expected 2 players after joinGame, host=%d guest=%d", len(hostState.Players), len(guestState.Players))
	}

	send(t, guest, constants.MsgStartGame, models.StartGamePayload{GameID: gameID, PlayerID: "p2"})
	errEnvelope := readEnvelope(t, guest)
	if errEnvelope.Type != constants.MsgError {
		t.Fatalf("expected error for non-host startGame, got %s", errEnvelope.Type)
	}

	send(t, host, constants.MsgStartGame, models.StartGamePayload{GameID: gameID, PlayerID: "p1"})
	hostState = readSession(t, host)
	guestState = readSession(t, guest)
	if hostState.GameStatus != constants.StatusPlaying || guestState.GameStatus != constants.StatusPlaying {
		t.Fatalf("expected Playing after host starts the game")
	}
	if hostState.CurrentTurnPlayerID != "p1" {
		t.Fatalf("expected p1 (seat 0) to act first, got %s", hostState.CurrentTurnPlayerID)
	}
}

func TestJoinUnknownGameReturnsNotFoundError(t *testing.T) {
	server, wsURL := newTestServer(t)
	defer server.Close()

	conn := dial(t, wsURL)
	defer conn.Close()

	send(t, conn, constants.MsgJoinGame, models.JoinGamePayload{GameID: "ZZZZZZ", PlayerID: "p1", PlayerName: "Alice"})
	raw := readEnvelope(t, conn)
	if raw.Type != constants.MsgError {
		t.Fatalf("expected error envelope, got %s", raw.Type)
	}
}

func TestChatMessageBroadcastsToRoom(t *testing.T) {
	server, wsURL := newTestServer(t)
	defer server.Close()

	host := dial(t, wsURL)
	defer host.Close()
	send(t, host, constants.MsgCreateGame, models.CreateGamePayload{PlayerID: "p1", PlayerName: "Alice"})
	hostState := readSession(t, host)
	gameID := hostState.GameID

	send(t, host, constants.MsgChatMessage, models.ChatMessagePayload{GameID: gameID, PlayerID: "p1", Text: "gg"})
	hostState = readSession(t, host)
	if len(hostState.ChatMessages) != 1 || hostState.ChatMessages[0].Text != "gg" {
		t.Fatalf("expected chat message to be appended and broadcast, got %+v", hostState.ChatMessages)
	}
}
