// Package turn is the Turn Controller (spec §4.3, §5): it drives a
// Session through RollPending -> Rolling -> Rolled -> (Moving | AutoPass)
// and back, scheduling the two mandatory timers (roll resolution and
// auto-pass) plus an optional watchdog, all guarded by an epoch counter
// so a stale timer firing after the turn has already moved on is a
// harmless no-op.
package turn

import (
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/obrien-tchaleu/crosscircle-server/internal/engine"
	"github.com/obrien-tchaleu/crosscircle-server/internal/session"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
)

var (
	ErrNotYourTurn     = errors.New(constants.ErrNotYourTurn)
	ErrAlreadyRolling  = errors.New("dice already rolling")
	ErrNoDiceRolled    = errors.New("no dice value to move with")
	ErrPieceNotMovable = errors.New("that piece cannot move")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrAlreadyPlaying  = errors.New("game already started")
)

// Scheduler lets the controller defer work onto the room goroutine that
// owns the session being mutated. internal/registry.Room satisfies this.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

// Broadcaster publishes the session snapshot after each state change.
// internal/hub.Hub satisfies this.
type Broadcaster interface {
	Broadcast(session *models.Session)
}

// Controller drives turn transitions for any number of sessions; it
// holds no per-session state itself, only the (stubbable) dice source.
type Controller struct {
	rollDice func() int
}

// New returns a Controller using a real, time-seeded dice source.
func New() *Controller {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Controller{
		rollDice: func() int { return rng.Intn(constants.DiceMax-constants.DiceMin+1) + constants.DiceMin },
	}
}

// NewWithDiceSource returns a Controller whose dice values come from fn —
// used by tests that need a deterministic roll (spec §9 test scenarios).
func NewWithDiceSource(fn func() int) *Controller {
	return &Controller{rollDice: fn}
}

// StartGame transitions a Setup session to Playing, seating seat 0 first
// and beginning its roll cycle (spec §4.3).
func (c *Controller) StartGame(sch Scheduler, bc Broadcaster, s *models.Session, callerPlayerID string) error {
	if s.GameStatus != constants.StatusSetup {
		return ErrAlreadyPlaying
	}
	if !session.IsHost(s, callerPlayerID) {
		return session.ErrNotHost
	}
	if len(s.Players) < constants.MinPlayers {
		return ErrNotEnoughPlayers
	}

	s.GameStatus = constants.StatusPlaying
	session.SetCurrentPlayer(s, 0)
	c.beginRollCycle(sch, bc, s)
	return nil
}

// RollDice rolls the dice for the current player and schedules the
// roll-resolution timer (spec §4.3, §5: resolved 1000ms later so the
// client can play a rolling animation).
func (c *Controller) RollDice(sch Scheduler, bc Broadcaster, s *models.Session, callerPlayerID string) error {
	if s.GameStatus != constants.StatusPlaying {
		return ErrAlreadyPlaying
	}
	if !session.IsCurrentTurn(s, callerPlayerID) {
		return ErrNotYourTurn
	}
	if s.IsRolling || s.DiceValue != nil {
		return ErrAlreadyRolling
	}

	s.IsRolling = true
	bc.Broadcast(s)

	epoch := s.Epoch
	sch.Schedule(constants.RollResolutionDelay, func() {
		if s.Epoch != epoch {
			return
		}
		c.resolveRoll(sch, bc, s)
	})
	return nil
}

// resolveRoll picks the dice value, computes movable pieces, and either
// waits for a move or, when no piece can move, schedules the auto-pass
// that advances the turn after AutoPassDelay.
func (c *Controller) resolveRoll(sch Scheduler, bc Broadcaster, s *models.Session) {
	dice := c.rollDice()
	player, _ := session.FindPlayer(s, s.CurrentTurnPlayerID)
	if player == nil {
		return
	}

	s.IsRolling = false
	s.DiceValue = &dice
	s.MovablePieces = engine.Movability(player, dice)

	if len(s.MovablePieces) == 0 {
		s.Message = player.Name + " rolled " + strconv.Itoa(dice) + " with no legal move."
		bc.Broadcast(s)

		epoch := s.Epoch
		sch.Schedule(constants.AutoPassDelay, func() {
			if s.Epoch != epoch {
				return
			}
			c.AdvanceTurn(sch, bc, s)
		})
		return
	}

	s.Message = player.Name + " rolled " + strconv.Itoa(dice) + "."
	bc.Broadcast(s)
}

// MovePiece applies a previously-resolved roll to one of the current
// player's pieces: advances it, resolves any capture, checks for a win,
// then either grants a bonus turn or advances to the next player (spec
// §4.1, §4.3).
func (c *Controller) MovePiece(sch Scheduler, bc Broadcaster, s *models.Session, callerPlayerID string, pieceID int) error {
	if s.GameStatus != constants.StatusPlaying {
		return ErrAlreadyPlaying
	}
	if !session.IsCurrentTurn(s, callerPlayerID) {
		return ErrNotYourTurn
	}
	if s.DiceValue == nil {
		return ErrNoDiceRolled
	}
	if !session.ContainsMovable(s, pieceID) {
		return ErrPieceNotMovable
	}

	player, _ := session.FindPlayer(s, callerPlayerID)
	piece := session.FindPiece(s, callerPlayerID, pieceID)
	if player == nil || piece == nil {
		return ErrPieceNotMovable
	}

	dice := *s.DiceValue
	newPos, newState := engine.Advance(piece, dice)
	piece.Position = newPos
	piece.State = newState

	var captured []*models.Piece
	if newState == constants.PieceActive {
		captured = engine.ResolveCapture(session.AllPlayers(s), player.Color, newPos)
	}

	if engine.HasFinished(player) {
		player.HasFinished = true
		s.GameStatus = constants.StatusFinished
		s.Winner = player.PlayerID
		s.Message = player.Name + " wins!"
		s.DiceValue = nil
		s.MovablePieces = s.MovablePieces[:0]
		bc.Broadcast(s)
		return nil
	}

	if engine.IsBonusRoll(dice, captured) {
		s.Message = player.Name + " gets another turn."
		c.grantBonusTurn(sch, bc, s)
		return nil
	}

	c.AdvanceTurn(sch, bc, s)
	return nil
}

// AdvanceTurn ends the current player's turn, hands play to the next
// non-removed seat, and begins that seat's roll cycle. It is exported so
// the dispatcher can call it directly for leaveGame/resetGame/forceSync
// (spec §4.5), which also force a turn advance.
func (c *Controller) AdvanceTurn(sch Scheduler, bc Broadcaster, s *models.Session) {
	if !session.AdvanceTurn(s) {
		bc.Broadcast(s)
		return
	}
	c.beginRollCycle(sch, bc, s)
}

// grantBonusTurn keeps the same player current but starts a fresh roll
// cycle (and thus a fresh epoch), so any timer from the turn just
// completed is invalidated exactly like a real advance.
func (c *Controller) grantBonusTurn(sch Scheduler, bc Broadcaster, s *models.Session) {
	c.beginRollCycle(sch, bc, s)
}

// beginRollCycle resets per-roll fields, bumps the epoch, and arms the
// optional watchdog (spec §9 REDESIGN FLAG): if the seated player never
// rolls or never moves within TurnWatchdog, the turn is force-advanced.
func (c *Controller) beginRollCycle(sch Scheduler, bc Broadcaster, s *models.Session) {
	s.Epoch++
	s.DiceValue = nil
	s.IsRolling = false
	s.MovablePieces = s.MovablePieces[:0]
	s.TurnTimeLeft = constants.TurnTimeLeftStart
	if player, _ := session.FindPlayer(s, s.CurrentTurnPlayerID); player != nil {
		s.Message = player.Name + "'s turn."
	}
	bc.Broadcast(s)

	epoch := s.Epoch
	sch.Schedule(constants.TurnWatchdog, func() {
		if s.Epoch != epoch {
			return
		}
		c.AdvanceTurn(sch, bc, s)
	})
}

