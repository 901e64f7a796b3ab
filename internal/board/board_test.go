package board

import "testing"

// totalCheckers sums every slot owned by the given sign, trays included.
// ApplyStep and UndoStep keep tray slots in lockstep with the bear-off
// counters, so this must be 15 after any sequence of legal operations.
func totalCheckers(b Board, sign int) int {
	total := 0
	for i := 0; i < len(b); i++ {
		if b[i]*sign > 0 {
			total += b[i] * sign
		}
	}
	return total
}

func TestInitialBoard(t *testing.T) {
	b := Initial()

	wantWhite := map[int]int{24: 2, 13: 5, 8: 3, 6: 5}
	for point, count := range wantWhite {
		if b[point] != count {
			t.Errorf("white point %d = %d, want %d", point, b[point], count)
		}
	}

	wantBlack := map[int]int{1: -2, 12: -5, 17: -3, 19: -5}
	for point, count := range wantBlack {
		if b[point] != count {
			t.Errorf("black point %d = %d, want %d", point, b[point], count)
		}
	}

	for _, slot := range []int{TrayWhite, BarWhite, TrayBlack, BarBlack} {
		if b[slot] != 0 {
			t.Errorf("slot %d = %d, want empty", slot, b[slot])
		}
	}

	if got := totalCheckers(b, White); got != 15 {
		t.Errorf("white checkers = %d, want 15", got)
	}
	if got := totalCheckers(b, Black); got != 15 {
		t.Errorf("black checkers = %d, want 15", got)
	}
}

func TestApplyStepRegular(t *testing.T) {
	b := Initial()
	next := ApplyStep(b, Step{From: 24, To: 18}, White)

	if next[24] != 1 {
		t.Errorf("source = %d, want 1", next[24])
	}
	if next[18] != 1 {
		t.Errorf("destination = %d, want 1", next[18])
	}
	if b[24] != 2 {
		t.Error("ApplyStep mutated its input")
	}
}

func TestApplyStepHit(t *testing.T) {
	b := Initial()
	b[18] = -1 // black blot in white's path

	next := ApplyStep(b, Step{From: 24, To: 18}, White)

	if next[18] != 1 {
		t.Errorf("destination = %d, want 1 white checker", next[18])
	}
	if next[BarBlack] != -1 {
		t.Errorf("black bar = %d, want -1", next[BarBlack])
	}
}

func TestApplyStepBearOff(t *testing.T) {
	var b Board
	b[3] = 1
	b[19] = -15
	b[TrayWhite] = 14

	next := ApplyStep(b, Step{From: 3, To: TrayWhite}, White)

	if next[3] != 0 {
		t.Errorf("source = %d, want 0", next[3])
	}
	if next[TrayWhite] != 15 {
		t.Errorf("tray = %d, want 15", next[TrayWhite])
	}
}

func TestUndoStepRoundTrip(t *testing.T) {
	hitBoard := Initial()
	hitBoard[18] = -1

	bearBoard := Board{}
	bearBoard[3] = 1
	bearBoard[2] = 1
	bearBoard[1] = 3
	bearBoard[TrayWhite] = 10
	bearBoard[19] = -15

	blackBoard := Initial()

	tests := []struct {
		name  string
		board Board
		step  Step
		sign  int
		dice  []int
	}{
		{"white regular", Initial(), Step{From: 24, To: 18}, White, []int{6, 5}},
		{"white hit", hitBoard, Step{From: 24, To: 18}, White, []int{6, 5}},
		{"white bear-off exact", bearBoard, Step{From: 1, To: TrayWhite}, White, []int{6, 1}},
		{"white bear-off overshoot", bearBoard, Step{From: 3, To: TrayWhite}, White, []int{6, 1}},
		{"black regular", blackBoard, Step{From: 1, To: 3}, Black, []int{2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			borneWhite := tt.board[TrayWhite]
			borneBlack := -tt.board[TrayBlack]

			turns := EnumerateTurns(tt.board, tt.dice, tt.sign)
			valid, dieUsed, wasBlot := MoveDetails(tt.board, tt.dice, tt.sign, tt.step, turns)
			if !valid {
				t.Fatalf("step %v not legal in this position", tt.step)
			}

			applied := ApplyStep(tt.board, tt.step, tt.sign)
			newBorneWhite, newBorneBlack := borneWhite, borneBlack
			if tt.sign == White && tt.step.To == TrayWhite {
				newBorneWhite++
			} else if tt.sign == Black && tt.step.To == TrayBlack {
				newBorneBlack++
			}

			rec := MoveRecord{Step: tt.step, DieUsed: dieUsed, WasBlot: wasBlot}
			restored, rw, rb := UndoStep(applied, rec, tt.sign, newBorneWhite, newBorneBlack)

			if restored != tt.board {
				t.Errorf("board not restored:\n got %v\nwant %v", restored, tt.board)
			}
			if rw != borneWhite || rb != borneBlack {
				t.Errorf("counters not restored: got (%d,%d), want (%d,%d)", rw, rb, borneWhite, borneBlack)
			}

			if got := totalCheckers(applied, tt.sign); got != 15 {
				t.Errorf("conservation broken after apply: %d checkers", got)
			}
		})
	}
}

func TestWinner(t *testing.T) {
	tests := []struct {
		borneWhite, borneBlack, want int
	}{
		{0, 0, 0},
		{14, 14, 0},
		{15, 0, White},
		{0, 15, Black},
	}
	for _, tt := range tests {
		if got := Winner(tt.borneWhite, tt.borneBlack); got != tt.want {
			t.Errorf("Winner(%d, %d) = %d, want %d", tt.borneWhite, tt.borneBlack, got, tt.want)
		}
	}
}

func TestBarAndTrayLookup(t *testing.T) {
	if Bar(White) != BarWhite || Bar(Black) != BarBlack {
		t.Error("bar lookup wrong")
	}
	if Tray(White) != TrayWhite || Tray(Black) != TrayBlack {
		t.Error("tray lookup wrong")
	}
}

func TestPipCount(t *testing.T) {
	b := Initial()

	// 2*24 + 5*13 + 3*8 + 5*6 = 167, the standard opening pip count.
	if got := PipCount(b, White); got != 167 {
		t.Errorf("white opening pip count = %d, want 167", got)
	}
	if got := PipCount(b, Black); got != 167 {
		t.Errorf("black opening pip count = %d, want 167", got)
	}

	var empty Board
	if got := PipCount(empty, White); got != 0 {
		t.Errorf("empty board pip count = %d, want 0", got)
	}

	// A lone checker on the bar is worth the full 25 pips.
	empty[BarWhite] = 1
	if got := PipCount(empty, White); got != 25 {
		t.Errorf("bar checker pip count = %d, want 25", got)
	}

	// Black mirrors White: a checker on point 20 is 5 pips from home.
	var mirrored Board
	mirrored[20] = Black
	if got := PipCount(mirrored, Black); got != 5 {
		t.Errorf("black pip count = %d, want 5", got)
	}
}
