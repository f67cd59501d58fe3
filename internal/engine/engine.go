// Package engine is the pure Rule Engine (spec §4.1): piece advancement,
// movability, capture resolution, and win detection. Nothing here does
// I/O, keeps package-level mutable state, or locks. Advance and
// Movability only compute: applying a moved piece's new Position/State is
// left to the caller. ResolveCapture is the one function that mutates its
// arguments: it sends the captured opposing pieces Home itself.
package engine

import (
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
)

// Advance computes the position/state a piece would have after rolling
// dice, without mutating the piece. An unchanged (position, state) pair
// means the move is illegal — callers must treat that as "not movable"
// (spec §4.1).
func Advance(piece *models.Piece, dice int) (int, constants.PieceState) {
	switch piece.State {
	case constants.PieceHome:
		if dice == constants.DiceMax {
			return constants.StartSquare[piece.Color], constants.PieceActive
		}
		return piece.Position, piece.State

	case constants.PieceActive:
		if piece.Position >= constants.FinishStart {
			k := piece.Position - constants.FinishStart
			k2 := k + dice
			if k2 < constants.HomeStretchLen {
				if k2 == constants.HomeStretchLen-1 {
					return constants.FinishStart + k2, constants.PieceFinished
				}
				return constants.FinishStart + k2, constants.PieceActive
			}
			return piece.Position, piece.State
		}

		preHome := constants.PreHomeSquare[piece.Color]
		distToPreHome := ((preHome - piece.Position) + constants.TotalLoopCells) % constants.TotalLoopCells
		if dice > distToPreHome {
			homeIdx := dice - distToPreHome - 1
			if homeIdx < constants.HomeStretchLen {
				if homeIdx == constants.HomeStretchLen-1 {
					return constants.FinishStart + homeIdx, constants.PieceFinished
				}
				return constants.FinishStart + homeIdx, constants.PieceActive
			}
			return piece.Position, piece.State
		}

		next := piece.Position + dice
		if next > constants.TotalLoopCells {
			next = next % constants.TotalLoopCells
		}
		return next, constants.PieceActive

	default: // Finished is terminal
		return piece.Position, piece.State
	}
}

// CanAdvance reports whether Advance would actually move the piece.
func CanAdvance(piece *models.Piece, dice int) bool {
	pos, state := Advance(piece, dice)
	return pos != piece.Position || state != piece.State
}

// Movability returns the ids of the player's pieces that can legally move
// given dice, applying the blockade rule (spec §4.1): a move landing on a
// shared-loop square already occupied by two or more of the player's own
// active pieces is disallowed.
func Movability(player *models.Player, dice int) []int {
	movable := make([]int, 0, len(player.Pieces))

	for _, piece := range player.Pieces {
		if piece.State == constants.PieceFinished {
			continue
		}
		if !CanAdvance(piece, dice) {
			continue
		}

		newPos, newState := Advance(piece, dice)
		if newState == constants.PieceActive && newPos < constants.FinishStart {
			if ownOccupancy(player, piece.ID, newPos) >= 2 {
				continue
			}
		}

		movable = append(movable, piece.ID)
	}

	return movable
}

func ownOccupancy(player *models.Player, excludingPieceID, position int) int {
	count := 0
	for _, other := range player.Pieces {
		if other.ID == excludingPieceID {
			continue
		}
		if other.State == constants.PieceActive && other.Position == position {
			count++
		}
	}
	return count
}

// ResolveCapture sends any opposing piece sitting on a non-safe
// shared-loop destination back Home, returning the captured pieces (spec
// §4.1). It is a no-op for home-stretch or Home destinations, and for
// safe squares.
func ResolveCapture(players []*models.Player, moverColor constants.PlayerColor, destination int) []*models.Piece {
	if destination < 1 || destination >= constants.FinishStart {
		return nil
	}
	if constants.SafeSquares[destination] {
		return nil
	}

	var captured []*models.Piece
	for _, p := range players {
		if p.Color == moverColor {
			continue
		}
		for _, piece := range p.Pieces {
			if piece.State == constants.PieceActive && piece.Position == destination {
				piece.State = constants.PieceHome
				piece.Position = -1
				captured = append(captured, piece)
			}
		}
	}
	return captured
}

// HasFinished reports whether every one of the player's pieces is
// Finished (spec §4.1 win condition).
func HasFinished(player *models.Player) bool {
	for _, piece := range player.Pieces {
		if piece.State != constants.PieceFinished {
			return false
		}
	}
	return true
}

// IsBonusRoll reports whether a dice value/capture combination grants the
// current player another turn (spec §4.1): rolling a 6, or capturing at
// least one opposing piece.
func IsBonusRoll(dice int, captured []*models.Piece) bool {
	return dice == constants.DiceMax || len(captured) > 0
}
