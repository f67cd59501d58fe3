package engine

import (
	"testing"

	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/constants"
	"github.com/obrien-tchaleu/crosscircle-server/internal/shared/models"
)

func TestAdvanceIdentityOnZeroDice(t *testing.T) {
	piece := &models.Piece{ID: 0, Color: constants.ColorGreen, State: constants.PieceActive, Position: 5}
	pos, state := Advance(piece, 0)
	if pos != piece.Position || state != piece.State {
		t.Fatalf("advance(piece, 0) = (%d, %s), want identity", pos, state)
	}
}

func TestAdvanceHomePieceNeedsSix(t *testing.T) {
	piece := &models.Piece{ID: 0, Color: constants.ColorGreen, State: constants.PieceHome, Position: -1}
	for dice := 1; dice <= 5; dice++ {
		pos, state := Advance(piece, dice)
		if pos != -1 || state != constants.PieceHome {
			t.Fatalf("dice=%d: home piece moved, want identity", dice)
		}
	}

	pos, state := Advance(piece, 6)
	if pos != constants.StartSquare[constants.ColorGreen] || state != constants.PieceActive {
		t.Fatalf("dice=6: got (%d, %s), want (%d, Active)", pos, state, constants.StartSquare[constants.ColorGreen])
	}
}

func TestAdvanceFinishesOnExactCount(t *testing.T) {
	// Green home-stretch index 4 (FinishStart+4), dice=1 -> index 5 -> Finished.
	piece := &models.Piece{ID: 0, Color: constants.ColorGreen, State: constants.PieceActive, Position: constants.FinishStart + 4}
	pos, state := Advance(piece, 1)
	if pos != constants.FinishStart+5 || state != constants.PieceFinished {
		t.Fatalf("got (%d, %s), want (%d, Finished)", pos, state, constants.FinishStart+5)
	}
}

func TestAdvanceOvershootIsIllegal(t *testing.T) {
	piece := &models.Piece{ID: 0, Color: constants.ColorGreen, State: constants.PieceActive, Position: constants.FinishStart + 4}
	pos, state := Advance(piece, 6) // index 4+6=10 >= 6: overshoot
	if pos != piece.Position || state != piece.State {
		t.Fatalf("overshoot should be illegal, got (%d, %s)", pos, state)
	}
}

func TestAdvanceEntersHomeStretchFromLoop(t *testing.T) {
	// Green pre-home is 51. From 49 with dice=4: distToPreHome=2, dice>2,
	// homeIdx = 4-2-1 = 1 -> FinishStart+1, Active.
	piece := &models.Piece{ID: 0, Color: constants.ColorGreen, State: constants.PieceActive, Position: 49}
	pos, state := Advance(piece, 4)
	if pos != constants.FinishStart+1 || state != constants.PieceActive {
		t.Fatalf("got (%d, %s), want (%d, Active)", pos, state, constants.FinishStart+1)
	}
}

func TestAdvanceWrapsAtSquare52(t *testing.T) {
	piece := &models.Piece{ID: 0, Color: constants.ColorRed, State: constants.PieceActive, Position: 50}
	// Red pre-home is 12, far away; from 50 with dice=3: distToPreHome = (12-50+52)%52 = 14, dice(3) <= 14, stays on loop.
	pos, state := Advance(piece, 3)
	if state != constants.PieceActive {
		t.Fatalf("expected Active, got %s", state)
	}
	want := ((50 - 1 + 3) % 52) + 1
	if pos != want {
		t.Fatalf("got %d, want %d", pos, want)
	}
	if pos != 1 {
		t.Fatalf("expected wrap to square 1, got %d", pos)
	}
}

func TestMovabilityBlockade(t *testing.T) {
	player := &models.Player{Color: constants.ColorGreen}
	player.Pieces = [4]*models.Piece{
		{ID: 4, Color: constants.ColorGreen, State: constants.PieceActive, Position: 20},
		{ID: 5, Color: constants.ColorGreen, State: constants.PieceActive, Position: 20},
		{ID: 6, Color: constants.ColorGreen, State: constants.PieceActive, Position: 14},
		{ID: 7, Color: constants.ColorGreen, State: constants.PieceHome, Position: -1},
	}

	movable := Movability(player, 6)
	for _, id := range movable {
		if id == 6 {
			t.Fatalf("piece 6 should be blocked by its own blockade on square 20, movable=%v", movable)
		}
	}
}

func TestMovabilityHomeExitOnSix(t *testing.T) {
	player := &models.Player{Color: constants.ColorGreen}
	player.Pieces = [4]*models.Piece{
		{ID: 4, Color: constants.ColorGreen, State: constants.PieceHome, Position: -1},
		{ID: 5, Color: constants.ColorGreen, State: constants.PieceHome, Position: -1},
		{ID: 6, Color: constants.ColorGreen, State: constants.PieceHome, Position: -1},
		{ID: 7, Color: constants.ColorGreen, State: constants.PieceHome, Position: -1},
	}

	movable := Movability(player, 6)
	if len(movable) != 4 {
		t.Fatalf("expected all 4 pieces movable on a 6 from Home, got %v", movable)
	}
}

func TestResolveCaptureSkipsSafeSquare(t *testing.T) {
	green := &models.Player{Color: constants.ColorGreen}
	red := &models.Player{Color: constants.ColorRed}
	red.Pieces = [4]*models.Piece{
		{ID: 0, Color: constants.ColorRed, State: constants.PieceActive, Position: 9}, // safe square
	}

	captured := ResolveCapture([]*models.Player{green, red}, constants.ColorGreen, 9)
	if len(captured) != 0 {
		t.Fatalf("expected no capture on safe square, got %v", captured)
	}
	if red.Pieces[0].State != constants.PieceActive || red.Pieces[0].Position != 9 {
		t.Fatalf("safe-square piece should be untouched")
	}
}

func TestResolveCaptureSendsPieceHome(t *testing.T) {
	green := &models.Player{Color: constants.ColorGreen}
	red := &models.Player{Color: constants.ColorRed}
	red.Pieces = [4]*models.Piece{
		{ID: 0, Color: constants.ColorRed, State: constants.PieceActive, Position: 10},
		{ID: 1, Color: constants.ColorRed, State: constants.PieceHome, Position: -1},
		{ID: 2, Color: constants.ColorRed, State: constants.PieceHome, Position: -1},
		{ID: 3, Color: constants.ColorRed, State: constants.PieceHome, Position: -1},
	}

	captured := ResolveCapture([]*models.Player{green, red}, constants.ColorGreen, 10)
	if len(captured) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(captured))
	}
	if red.Pieces[0].State != constants.PieceHome || red.Pieces[0].Position != -1 {
		t.Fatalf("captured piece should be sent Home, got state=%s position=%d", red.Pieces[0].State, red.Pieces[0].Position)
	}
}

func TestHasFinished(t *testing.T) {
	player := &models.Player{}
	player.Pieces = [4]*models.Piece{
		{State: constants.PieceFinished},
		{State: constants.PieceFinished},
		{State: constants.PieceFinished},
		{State: constants.PieceActive},
	}
	if HasFinished(player) {
		t.Fatalf("expected not finished with one Active piece left")
	}

	player.Pieces[3].State = constants.PieceFinished
	if !HasFinished(player) {
		t.Fatalf("expected finished once all four pieces are Finished")
	}
}

func TestIsBonusRoll(t *testing.T) {
	if !IsBonusRoll(6, nil) {
		t.Fatalf("rolling a 6 should grant a bonus turn")
	}
	if !IsBonusRoll(3, []*models.Piece{{}}) {
		t.Fatalf("a capture should grant a bonus turn")
	}
	if IsBonusRoll(3, nil) {
		t.Fatalf("no bonus expected for a plain 3 with no capture")
	}
}
