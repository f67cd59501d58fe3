// Package session implements pure mutations over a *models.Session (spec
// §4.2): joining/leaving players, turn-order bookkeeping, and chat. These
// functions assume they are only ever called from the single goroutine
// that owns a room (see internal/registry.Room) — they do no locking of
// their own.
package session

import (
	"errors"

	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
)

var (
	ErrGameFull        = errors.New(constants.ErrGameFull)
	ErrAlreadySeated   = errors.New("player already seated")
	ErrNotHost         = errors.New(constants.ErrOnlyHostCanStart)
	ErrNotYourTurn     = errors.New(constants.ErrNotYourTurn)
	ErrAlreadyStarted  = errors.New("game already started")
	ErrPlayerNotSeated = errors.New("player not seated in this game")
)

// AddPlayer seats a new player, assigning the next color in canonical
// order (spec §3: "color assigned by position in the canonical color
// order list"). The first seated player becomes host.
func AddPlayer(s *models.Session, playerID, name string) (*models.Player, error) {
	if existing, _ := FindPlayer(s, playerID); existing != nil {
		return nil, ErrAlreadySeated
	}
	if len(s.Players) >= constants.MaxPlayers {
		return nil, ErrGameFull
	}

	seatIndex := len(s.Players)
	color := constants.ColorOrder[seatIndex]
	pieceIDBase := seatIndex * constants.TokensPerPlayer

	player := models.NewPlayer(playerID, name, color, seatIndex, pieceIDBase)
	if seatIndex == 0 {
		player.IsHost = true
		s.HostID = playerID
	}

	s.Players = append(s.Players, player)
	return player, nil
}

// FindPlayer returns the seated player with the given id, or nil if none.
func FindPlayer(s *models.Session, playerID string) (*models.Player, int) {
	for i, p := range s.Players {
		if p.PlayerID == playerID {
			return p, i
		}
	}
	return nil, -1
}

// IsHost reports whether playerID is the session's host.
func IsHost(s *models.Session, playerID string) bool {
	return s.HostID == playerID
}

// IsCurrentTurn reports whether playerID is the player whose turn it is.
func IsCurrentTurn(s *models.Session, playerID string) bool {
	return s.CurrentTurnPlayerID == playerID
}

// RemovePlayer marks a seated player removed (spec §3: players are never
// spliced out, only flagged). It reports whether the removed player was
// the current turn holder, so the caller knows whether a turn advance is
// needed.
func RemovePlayer(s *models.Session, playerID string) (wasCurrent bool, ok bool) {
	player, _ := FindPlayer(s, playerID)
	if player == nil {
		return false, false
	}

	player.IsRemoved = true
	player.IsConnected = false
	wasCurrent = s.CurrentTurnPlayerID == playerID

	if s.HostID == playerID {
		for _, p := range s.Players {
			if !p.IsRemoved {
				s.HostID = p.PlayerID
				p.IsHost = true
				break
			}
		}
	}

	return wasCurrent, true
}

// nextUnremovedIndex finds the next seat index after `from`, wrapping
// modulo len(Players), whose player is not removed. Returns -1 if every
// player is removed.
func nextUnremovedIndex(s *models.Session, from int) int {
	n := len(s.Players)
	if n == 0 {
		return -1
	}
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if !s.Players[idx].IsRemoved {
			return idx
		}
	}
	return -1
}

// AdvanceTurn moves play to the next non-removed seat (spec §4.3),
// clearing per-turn fields. It is a no-op if no non-removed player
// exists. It does not touch Epoch or schedule any timer — orchestration
// of those belongs to internal/turn, which calls this as its first step.
func AdvanceTurn(s *models.Session) bool {
	next := nextUnremovedIndex(s, s.CurrentPlayerIndex)
	if next == -1 {
		return false
	}

	s.CurrentPlayerIndex = next
	player := s.Players[next]
	s.CurrentTurnPlayerID = player.PlayerID
	s.DiceValue = nil
	s.IsRolling = false
	s.MovablePieces = s.MovablePieces[:0]
	s.TurnTimeLeft = constants.TurnTimeLeftStart
	s.Message = player.Name + "'s turn."
	return true
}

// SetCurrentPlayer seats the given index as current without searching
// (used once, at startGame, to seat index 0). It does not check
// IsRemoved: a seat-0 player who left during Setup is still seated as
// current.
func SetCurrentPlayer(s *models.Session, index int) {
	s.CurrentPlayerIndex = index
	player := s.Players[index]
	s.CurrentTurnPlayerID = player.PlayerID
	s.DiceValue = nil
	s.IsRolling = false
	s.MovablePieces = s.MovablePieces[:0]
	s.TurnTimeLeft = constants.TurnTimeLeftStart
	s.Message = player.Name + "'s turn."
}

// AppendChat appends a chat entry to the session's append-only log.
func AppendChat(s *models.Session, msg *models.ChatMessage) {
	s.ChatMessages = append(s.ChatMessages, msg)
}

// FindPiece returns the piece with the given id owned by playerID, if any.
func FindPiece(s *models.Session, playerID string, pieceID int) *models.Piece {
	player, _ := FindPlayer(s, playerID)
	if player == nil {
		return nil
	}
	for _, piece := range player.Pieces {
		if piece.ID == pieceID {
			return piece
		}
	}
	return nil
}

// AllPlayers returns every seated player, removed or not — used by the
// rule engine's capture pass, which needs every color's pieces on the
// board regardless of connection state.
func AllPlayers(s *models.Session) []*models.Player {
	return s.Players
}

// ContainsMovable reports whether pieceID is present in movablePieces.
func ContainsMovable(s *models.Session, pieceID int) bool {
	for _, id := range s.MovablePieces {
		if id == pieceID {
			return true
		}
	}
	return false
}
