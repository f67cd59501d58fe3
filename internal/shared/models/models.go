// Package models holds the wire-visible data model: the entities listed
// in spec §3 (Piece, Player, Session, ChatMessage) and the envelope /
// payload shapes described in spec §4.5 and §6.
package models

import (
	"encoding/json"
	"time"

	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
)

// Piece is a single token belonging to a Player. Position -1 means Home;
// Position in [1,52] is a shared-loop cell; Position >= FinishStart is a
// home-stretch cell (see constants.FinishStart).
type Piece struct {
	ID       int                   `json:"id"`
	Color    constants.PlayerColor `json:"color"`
	State    constants.PieceState  `json:"state"`
	Position int                   `json:"position"`
}

// Player is one seated participant in a Session.
type Player struct {
	PlayerID      string                `json:"playerId"`
	Name          string                `json:"name"`
	Color         constants.PlayerColor `json:"color"`
	SeatIndex     int                   `json:"seatIndex"`
	Pieces        [4]*Piece             `json:"pieces"`
	HasFinished   bool                  `json:"hasFinished"`
	InactiveTurns int                   `json:"inactiveTurns"`
	IsRemoved     bool                  `json:"isRemoved"`
	IsHost        bool                  `json:"isHost"`
	IsConnected   bool                  `json:"isConnected"`
}

// ChatMessage is one append-only entry in a Session's chat log.
type ChatMessage struct {
	ID        string                `json:"id"`
	PlayerID  string                `json:"playerId"`
	Name      string                `json:"name"`
	Color     constants.PlayerColor `json:"color"`
	Text      string                `json:"text"`
	Timestamp time.Time             `json:"timestamp"`
}

// Session is the full canonical state of one room, exactly what is
// broadcast as a gameStateUpdate snapshot (spec §3, §4.6).
type Session struct {
	GameID              string                `json:"gameId"`
	HostID              string                `json:"hostId"`
	Players             []*Player             `json:"players"`
	CurrentPlayerIndex  int                   `json:"currentPlayerIndex"`
	CurrentTurnPlayerID string                `json:"currentTurnPlayerId"`
	DiceValue           *int                  `json:"diceValue"`
	GameStatus          constants.GameStatus  `json:"gameStatus"`
	Winner              string                `json:"winner,omitempty"`
	Message             string                `json:"message"`
	MovablePieces       []int                 `json:"movablePieces"`
	IsRolling           bool                  `json:"isRolling"`
	IsAnimating         bool                  `json:"isAnimating"`
	TurnTimeLeft        int                   `json:"turnTimeLeft"`
	ChatMessages        []*ChatMessage        `json:"chatMessages"`

	// Epoch invalidates stale scheduled timer events (spec §5). Never
	// serialized: it is a server-internal bookkeeping field, not part of
	// the client-visible snapshot.
	Epoch uint64 `json:"-"`
}

// NewPiece creates a piece at Home for the given color/id.
func NewPiece(id int, color constants.PlayerColor) *Piece {
	return &Piece{
		ID:       id,
		Color:    color,
		State:    constants.PieceHome,
		Position: -1,
	}
}

// NewPlayer creates a seated player with four fresh Home pieces.
// pieceIDBase is the first of four consecutive, room-unique piece ids
// (spec §3: "id (0..15, unique per room)").
func NewPlayer(playerID, name string, color constants.PlayerColor, seatIndex, pieceIDBase int) *Player {
	var pieces [4]*Piece
	for i := 0; i < constants.TokensPerPlayer; i++ {
		pieces[i] = NewPiece(pieceIDBase+i, color)
	}

	return &Player{
		PlayerID:    playerID,
		Name:        name,
		Color:       color,
		SeatIndex:   seatIndex,
		Pieces:      pieces,
		IsConnected: true,
	}
}

// NewSession creates an empty Setup-state session with the given gameId.
func NewSession(gameID string) *Session {
	return &Session{
		GameID:        gameID,
		Players:       make([]*Player, 0, constants.MaxPlayers),
		GameStatus:    constants.StatusSetup,
		MovablePieces: make([]int, 0),
		ChatMessages:  make([]*ChatMessage, 0),
	}
}

// Envelope is the generic {type, payload} message frame (spec §6).
type Envelope struct {
	Type    constants.MessageType `json:"type"`
	Payload interface{}           `json:"payload"`
}

// RawEnvelope is the decode-side counterpart: Payload is kept as raw JSON
// until the dispatcher knows, from Type, which concrete payload struct to
// unmarshal it into.
type RawEnvelope struct {
	Type    constants.MessageType `json:"type"`
	Payload json.RawMessage       `json:"payload"`
}

// Client -> server payloads.

type CreateGamePayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type JoinGamePayload struct {
	GameID     string `json:"gameId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type StartGamePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type RollDicePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

type MovePiecePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	PieceID  int    `json:"pieceId"`
}

type ChatMessagePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Text     string `json:"text"`
}

type LeaveGamePayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// HostActionPayload covers resetGame and forceSync, both of which take
// only gameId/playerId and require the caller to be host (spec §4.5).
type HostActionPayload struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

// Server -> client payloads.

type ErrorPayload struct {
	Message string `json:"message"`
}
