// Package hub is the Broadcast Hub (spec §4.6): it holds the set of live
// connections for one room and fans a serialized snapshot out to every
// one of them. Each connection gets its own bounded outbound channel;
// a slow or stuck client never blocks the room goroutine or its peers —
// a full channel just drops the message for that one client, the same
// best-effort policy the rest of the corpus's hubs use.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
)

// SendBuffer is the per-connection outbound queue depth that
// internal/transport sizes its writer-pump channel to.
const SendBuffer = 32

// Conn is anything the hub can hand a pre-marshaled frame to. The real
// implementation lives in internal/transport; tests use a fake.
type Conn interface {
	Send(data []byte)
	Close()
}

// Hub tracks the connections for a single room, keyed by playerID.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
	log   *slog.Logger
}

// New creates an empty Hub.
func New(log *slog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		log:   log,
	}
}

// Register attaches a connection for playerID, replacing any previous one
// (a reconnect under the same playerID supersedes the stale socket).
func (h *Hub) Register(playerID string, conn Conn) {
	h.mu.Lock()
	old, existed := h.conns[playerID]
	h.conns[playerID] = conn
	h.mu.Unlock()

	if existed {
		old.Close()
	}
}

// Unregister removes playerID's connection, if it is still the one given
// (a superseded connection unregistering itself must not clobber its
// replacement).
func (h *Hub) Unregister(playerID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.conns[playerID]; ok && current == conn {
		delete(h.conns, playerID)
	}
}

// ConnectionCount reports how many connections are currently registered.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast marshals the session snapshot once and fans it out to every
// registered connection (spec §4.6: "every seated player's own connection
// receives the identical wire representation").
func (h *Hub) Broadcast(session *models.Session) {
	frame, err := json.Marshal(models.Envelope{
		Type:    constants.MsgGameStateUpdate,
		Payload: session,
	})
	if err != nil {
		h.log.Error("marshal gameStateUpdate", "gameId", session.GameID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns {
		conn.Send(frame)
	}
}

// SendError delivers a one-off error frame to a single connected player.
// It is a no-op if that player has no live connection (spec §4.5: errors
// are only deliverable, never guaranteed).
func (h *Hub) SendError(playerID string, message string) {
	frame, err := json.Marshal(models.Envelope{
		Type:    constants.MsgError,
		Payload: models.ErrorPayload{Message: message},
	})
	if err != nil {
		h.log.Error("marshal error frame", "error", err)
		return
	}

	h.mu.RLock()
	conn, ok := h.conns[playerID]
	h.mu.RUnlock()
	if ok {
		conn.Send(frame)
	}
}

// CloseAll closes every registered connection, used when a room is torn
// down (spec §4.6 lifecycle end).
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for playerID, conn := range h.conns {
		conn.Close()
		delete(h.conns, playerID)
	}
}
