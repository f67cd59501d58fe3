// Package dispatch is the Message Dispatcher (spec §4.5): it decodes the
// {type, payload} envelope off one WebSocket connection, checks the
// precondition for that message type, and submits the resulting mutation
// onto the owning room's serialized event loop.
package dispatch

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/obrien-tchaleu/crosscircle-server/internal/hub"
	"github.com/obrien-tchaleu/crosscircle-server/internal/registry"
	"github.com/obrien-tchaleu/crosscircle-server/internal/session"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
	"github.com/obrien-tchaleu/crosscircle-server/internal/transport"
	"github.com/obrien-tchaleu/crosscircle-server/internal/turn"
	"github.com/obrien-tchaleu/crosscircle-server/pkg/idgen"
)

// Dispatcher wires one process-wide Registry and Turn Controller to any
// number of connections.
type Dispatcher struct {
	Registry *registry.Registry
	Turn     *turn.Controller
	Log      *slog.Logger
}

// New constructs a Dispatcher.
func New(reg *registry.Registry, ctrl *turn.Controller, log *slog.Logger) *Dispatcher {
	return &Dispatcher{Registry: reg, Turn: ctrl, Log: log}
}

// binding tracks which room/playerId a single connection is currently
// acting as, so a later socket close can be treated as that player's
// leave. It is only ever touched by the goroutine running HandleConnection.
type binding struct {
	room     *registry.Room
	playerID string
}

// HandleConnection owns one WebSocket connection end to end: it blocks
// reading frames until the socket closes, then unbinds.
func (d *Dispatcher) HandleConnection(conn *transport.Conn) {
	b := &binding{}
	conn.Listen(
		func(data []byte) { d.handleFrame(conn, b, data) },
		func() { d.handleDisconnect(conn, b) },
	)
}

func (d *Dispatcher) handleFrame(conn *transport.Conn, b *binding, data []byte) {
	var raw models.RawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		d.Log.Warn("malformed frame", "error", err)
		return
	}

	switch raw.Type {
	case constants.MsgCreateGame:
		d.handleCreateGame(conn, b, raw.Payload)
	case constants.MsgJoinGame:
		d.handleJoinGame(conn, b, raw.Payload)
	case constants.MsgStartGame:
		d.handleStartGame(raw.Payload)
	case constants.MsgRollDice:
		d.handleRollDice(raw.Payload)
	case constants.MsgMovePiece:
		d.handleMovePiece(raw.Payload)
	case constants.MsgChatMessage:
		d.handleChatMessage(raw.Payload)
	case constants.MsgLeaveGame:
		d.handleLeaveGame(conn, raw.Payload)
	case constants.MsgResetGame, constants.MsgForceSync:
		d.handleHostAction(raw.Payload)
	default:
		d.Log.Debug("unrecognized message type, dropping", "type", raw.Type)
	}
}

func (d *Dispatcher) marshalError(message string) []byte {
	data, err := json.Marshal(models.Envelope{
		Type:    constants.MsgError,
		Payload: models.ErrorPayload{Message: message},
	})
	if err != nil {
		d.Log.Error("marshal error frame", "error", err)
		return nil
	}
	return data
}

func (d *Dispatcher) handleCreateGame(conn *transport.Conn, b *binding, payload json.RawMessage) {
	var p models.CreateGamePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.PlayerID == "" || p.PlayerName == "" {
		d.Log.Warn("malformed createGame", "error", err)
		return
	}

	gameID := d.Registry.NewGameID()
	sess := models.NewSession(gameID)
	if _, err := session.AddPlayer(sess, p.PlayerID, p.PlayerName); err != nil {
		d.Log.Error("createGame: seating host", "error", err)
		return
	}

	h := hub.New(d.Log)
	room := d.Registry.NewRoom(sess, h)
	d.Registry.Register(room)

	b.room = room
	b.playerID = p.PlayerID

	room.Submit(func() {
		h.Register(p.PlayerID, conn)
		h.Broadcast(sess)
	})
}

func (d *Dispatcher) handleJoinGame(conn *transport.Conn, b *binding, payload json.RawMessage) {
	var p models.JoinGamePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.GameID == "" || p.PlayerID == "" {
		d.Log.Warn("malformed joinGame", "error", err)
		return
	}

	room, ok := d.Registry.Get(p.GameID)
	if !ok {
		conn.Send(d.marshalError(constants.GameNotFoundMessage(p.GameID)))
		return
	}

	b.room = room
	b.playerID = p.PlayerID

	room.Submit(func() {
		if existing, _ := session.FindPlayer(room.Session, p.PlayerID); existing != nil {
			room.Hub.Register(p.PlayerID, conn)
			existing.IsConnected = true
			room.Hub.Broadcast(room.Session)
			return
		}

		if _, err := session.AddPlayer(room.Session, p.PlayerID, p.PlayerName); err != nil {
			conn.Send(d.marshalError(err.Error()))
			return
		}

		room.Hub.Register(p.PlayerID, conn)
		room.Hub.Broadcast(room.Session)
	})
}

func (d *Dispatcher) handleStartGame(payload json.RawMessage) {
	var p models.StartGamePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.GameID == "" || p.PlayerID == "" {
		d.Log.Warn("malformed startGame", "error", err)
		return
	}

	room, ok := d.Registry.Get(p.GameID)
	if !ok {
		d.Log.Debug("startGame: room not found", "gameId", p.GameID)
		return
	}

	room.Submit(func() {
		if err := d.Turn.StartGame(room, room.Hub, room.Session, p.PlayerID); err != nil {
			room.Hub.SendError(p.PlayerID, err.Error())
		}
	})
}

func (d *Dispatcher) handleRollDice(payload json.RawMessage) {
	var p models.RollDicePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.GameID == "" || p.PlayerID == "" {
		d.Log.Warn("malformed rollDice", "error", err)
		return
	}

	room, ok := d.Registry.Get(p.GameID)
	if !ok {
		d.Log.Debug("rollDice: room not found", "gameId", p.GameID)
		return
	}

	room.Submit(func() {
		// A roll while one is already in flight is silently ignored.
		if err := d.Turn.RollDice(room, room.Hub, room.Session, p.PlayerID); err != nil && err != turn.ErrAlreadyRolling {
			room.Hub.SendError(p.PlayerID, err.Error())
		}
	})
}

func (d *Dispatcher) handleMovePiece(payload json.RawMessage) {
	var p models.MovePiecePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.GameID == "" || p.PlayerID == "" {
		d.Log.Warn("malformed movePiece", "error", err)
		return
	}

	room, ok := d.Registry.Get(p.GameID)
	if !ok {
		d.Log.Debug("movePiece: room not found", "gameId", p.GameID)
		return
	}

	room.Submit(func() {
		// A move of a piece outside movablePieces (including a move with no
		// dice rolled, when movablePieces is empty) is silently ignored.
		err := d.Turn.MovePiece(room, room.Hub, room.Session, p.PlayerID, p.PieceID)
		if err != nil && err != turn.ErrPieceNotMovable && err != turn.ErrNoDiceRolled {
			room.Hub.SendError(p.PlayerID, err.Error())
		}
	})
}

func (d *Dispatcher) handleChatMessage(payload json.RawMessage) {
	var p models.ChatMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.GameID == "" || p.PlayerID == "" {
		d.Log.Warn("malformed chatMessage", "error", err)
		return
	}

	room, ok := d.Registry.Get(p.GameID)
	if !ok {
		d.Log.Debug("chatMessage: room not found", "gameId", p.GameID)
		return
	}

	room.Submit(func() {
		player, _ := session.FindPlayer(room.Session, p.PlayerID)
		if player == nil {
			room.Hub.SendError(p.PlayerID, session.ErrPlayerNotSeated.Error())
			return
		}

		session.AppendChat(room.Session, &models.ChatMessage{
			ID:        idgen.ChatMessageID(),
			PlayerID:  p.PlayerID,
			Name:      player.Name,
			Color:     player.Color,
			Text:      p.Text,
			Timestamp: time.Now(),
		})
		room.Hub.Broadcast(room.Session)
	})
}

func (d *Dispatcher) handleLeaveGame(conn *transport.Conn, payload json.RawMessage) {
	var p models.LeaveGamePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.GameID == "" || p.PlayerID == "" {
		d.Log.Warn("malformed leaveGame", "error", err)
		return
	}

	room, ok := d.Registry.Get(p.GameID)
	if !ok {
		d.Log.Debug("leaveGame: room not found", "gameId", p.GameID)
		return
	}

	room.Submit(func() {
		wasCurrent, found := session.RemovePlayer(room.Session, p.PlayerID)
		room.Hub.Unregister(p.PlayerID, conn)
		if !found {
			return
		}
		if wasCurrent {
			d.Turn.AdvanceTurn(room, room.Hub, room.Session)
			return
		}
		room.Hub.Broadcast(room.Session)
	})
}

func (d *Dispatcher) handleHostAction(payload json.RawMessage) {
	var p models.HostActionPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.GameID == "" || p.PlayerID == "" {
		d.Log.Warn("malformed host action", "error", err)
		return
	}

	room, ok := d.Registry.Get(p.GameID)
	if !ok {
		d.Log.Debug("host action: room not found", "gameId", p.GameID)
		return
	}

	room.Submit(func() {
		if !session.IsHost(room.Session, p.PlayerID) {
			room.Hub.SendError(p.PlayerID, session.ErrNotHost.Error())
			return
		}
		d.Turn.AdvanceTurn(room, room.Hub, room.Session)
	})
}

// handleDisconnect treats a closed socket exactly like leaveGame (spec
// §9 scenario 7): the seat is marked removed, the turn advances if it
// was theirs, and the connection is unbound.
func (d *Dispatcher) handleDisconnect(conn *transport.Conn, b *binding) {
	if b.room == nil || b.playerID == "" {
		return
	}
	room := b.room
	playerID := b.playerID

	room.Submit(func() {
		wasCurrent, found := session.RemovePlayer(room.Session, playerID)
		room.Hub.Unregister(playerID, conn)
		if !found {
			return
		}
		if wasCurrent {
			d.Turn.AdvanceTurn(room, room.Hub, room.Session)
			return
		}
		room.Hub.Broadcast(room.Session)
	})
}
