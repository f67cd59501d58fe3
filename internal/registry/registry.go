// Package registry is the Room Registry (spec §4.4): it maps gameId to
// the room owning that game's state, and gives each room its own
// serialized event loop. The registry's own map is guarded by a single
// sync.RWMutex independent of any room's internal state — looking a room
// up never contends with that room's goroutine processing a move.
package registry

import (
	"sync"
	"time"

	"github.com/obrien-tchaleu/crosscircle-server/internal/hub"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
	"github.com/obrien-tchaleu/crosscircle-server/pkg/idgen"
)

// defaultJobQueueDepth bounds how many pending jobs (client intents and
// fired timers) a room will buffer before Submit starts blocking its
// caller, unless the Registry that creates it is configured otherwise.
const defaultJobQueueDepth = 128

// Room owns one Session and the single goroutine allowed to touch it.
// Every mutation — an incoming client message, a fired timer — is
// submitted as a closure and runs serialized on that goroutine, so
// neither Session nor the rule engine it drives ever need locking.
type Room struct {
	Session *models.Session
	Hub     *hub.Hub

	jobs chan func()
	done chan struct{}
}

// NewRoom constructs a Room around a fresh session and hub, with its job
// queue sized to depth (a non-positive depth gets defaultJobQueueDepth).
// Call Run in its own goroutine to start processing.
func NewRoom(session *models.Session, h *hub.Hub, depth int) *Room {
	if depth <= 0 {
		depth = defaultJobQueueDepth
	}
	return &Room{
		Session: session,
		Hub:     h,
		jobs:    make(chan func(), depth),
		done:    make(chan struct{}),
	}
}

// Submit enqueues fn to run on the room's goroutine. It blocks only if
// the queue is saturated; it never runs fn inline, preserving ordering.
func (r *Room) Submit(fn func()) {
	select {
	case r.jobs <- fn:
	case <-r.done:
	}
}

// Schedule runs fn on the room's goroutine after d elapses. It satisfies
// internal/turn.Scheduler. Firing after the room has closed is a no-op.
func (r *Room) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		r.Submit(fn)
	})
}

// Run drains submitted jobs one at a time until Close is called. The
// caller is expected to invoke this in its own goroutine.
func (r *Room) Run() {
	for {
		select {
		case job := <-r.jobs:
			job()
		case <-r.done:
			return
		}
	}
}

// Close stops Run and closes every connection attached to the room's hub.
func (r *Room) Close() {
	select {
	case <-r.done:
		// already closed
	default:
		close(r.done)
	}
	r.Hub.CloseAll()
}

// Registry is the process-wide gameId -> Room map.
type Registry struct {
	mu            sync.RWMutex
	rooms         map[string]*Room
	jobQueueDepth int
}

// New creates an empty Registry whose rooms get the default job queue
// depth. Use NewWithJobQueueDepth to size it from configuration.
func New() *Registry {
	return NewWithJobQueueDepth(defaultJobQueueDepth)
}

// NewWithJobQueueDepth creates an empty Registry whose NewRoom helper
// sizes every room's job queue to depth.
func NewWithJobQueueDepth(depth int) *Registry {
	if depth <= 0 {
		depth = defaultJobQueueDepth
	}
	return &Registry{rooms: make(map[string]*Room), jobQueueDepth: depth}
}

// NewRoom builds a Room sized per this registry's configured job queue
// depth. It does not register or start the room — call Register next.
func (reg *Registry) NewRoom(session *models.Session, h *hub.Hub) *Room {
	return NewRoom(session, h, reg.jobQueueDepth)
}

// NewGameID mints a fresh 6-character id guaranteed not to collide with
// any currently active room (spec §3).
func (reg *Registry) NewGameID() string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for {
		id := idgen.GameID(constants.GameIDLength)
		if _, exists := reg.rooms[id]; !exists {
			return id
		}
	}
}

// Register adds room under its session's gameId and starts its event
// loop. The caller must not have started Run itself.
func (reg *Registry) Register(room *Room) {
	reg.mu.Lock()
	reg.rooms[room.Session.GameID] = room
	reg.mu.Unlock()
	go room.Run()
}

// Get looks up a room by gameId.
func (reg *Registry) Get(gameID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[gameID]
	return room, ok
}

// Remove closes and forgets a room. The dispatcher never calls it, so a
// room is kept after its last connection has left.
func (reg *Registry) Remove(gameID string) {
	reg.mu.Lock()
	room, ok := reg.rooms[gameID]
	if ok {
		delete(reg.rooms, gameID)
	}
	reg.mu.Unlock()

	if ok {
		room.Close()
	}
}

// Count reports the number of active rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
