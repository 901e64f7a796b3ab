package board

import (
	"testing"
)

func turnsContain(turns []Turn, want Turn) bool {
	for _, turn := range turns {
		if len(turn) != len(want) {
			continue
		}
		match := true
		for i := range turn {
			if turn[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func anyStartsWith(turns []Turn, s Step) bool {
	for _, turn := range turns {
		if len(turn) > 0 && turn[0] == s {
			return true
		}
	}
	return false
}

// Opening position, White rolls 6-5: the lover's leap 24/18 18/13 must be
// enumerated, and every returned sequence must use both dice.
func TestOpeningRollSixFive(t *testing.T) {
	turns := EnumerateTurns(Initial(), []int{6, 5}, White)

	if len(turns) == 0 {
		t.Fatal("no turns enumerated for the opening roll")
	}

	leap := Turn{{From: 24, To: 18}, {From: 18, To: 13}}
	if !turnsContain(turns, leap) {
		t.Errorf("expected %v in enumerated turns", leap)
	}

	for _, turn := range turns {
		if len(turn) != 2 {
			t.Errorf("length-%d sequence returned when full plays exist: %v", len(turn), turn)
		}
	}
}

// When only one die of a non-double pair can be played and the larger one
// is playable, the smaller die must not appear in the result.
func TestForcedLargerDie(t *testing.T) {
	var b Board
	b[24] = 1
	b[1] = 14
	b[22] = -2 // blocks 24/22 (the 2)
	b[18] = -2 // blocks 20/18 after 24/20
	b[19] = -11

	turns := EnumerateTurns(b, []int{2, 4}, White)

	want := Turn{{From: 24, To: 20}}
	if len(turns) != 1 || !turnsContain(turns, want) {
		t.Fatalf("turns = %v, want exactly [%v]", turns, want)
	}
}

// The mirror case: the larger die is blocked everywhere, so the single
// smaller-die play is returned.
func TestForcedLargerDieNotPlayable(t *testing.T) {
	var b Board
	b[24] = 1
	b[1] = 14
	b[20] = -2 // blocks the 4
	b[18] = -2 // blocks 22/18 after 24/22
	b[19] = -11

	turns := EnumerateTurns(b, []int{2, 4}, White)

	want := Turn{{From: 24, To: 22}}
	if len(turns) != 1 || !turnsContain(turns, want) {
		t.Fatalf("turns = %v, want exactly [%v]", turns, want)
	}
}

// White on the bar with 3-1: entry on the blot at 22 is legal and hits;
// entry on 24 is blocked by a made point.
func TestBarReentry(t *testing.T) {
	var b Board
	b[BarWhite] = 1
	b[6] = 5
	b[8] = 5
	b[13] = 4
	b[22] = -1  // black blot
	b[24] = -2  // black point
	b[19] = -12

	turns := EnumerateTurns(b, []int{3, 1}, White)

	if len(turns) == 0 {
		t.Fatal("no turns enumerated")
	}
	for _, turn := range turns {
		if turn[0].From != BarWhite {
			t.Errorf("sequence does not start from the bar: %v", turn)
		}
	}
	if !anyStartsWith(turns, Step{From: BarWhite, To: 22}) {
		t.Error("bar/22 entry missing")
	}
	if anyStartsWith(turns, Step{From: BarWhite, To: 24}) {
		t.Error("bar/24 entry should be blocked")
	}

	valid, dieUsed, wasBlot := MoveDetails(b, []int{3, 1}, White, Step{From: BarWhite, To: 22}, turns)
	if !valid || dieUsed != 3 || !wasBlot {
		t.Errorf("MoveDetails = (%v, %d, %v), want (true, 3, true)", valid, dieUsed, wasBlot)
	}

	next := ApplyStep(b, Step{From: BarWhite, To: 22}, White)
	if next[22] != 1 {
		t.Errorf("point 22 = %d, want 1", next[22])
	}
	if next[BarBlack] != -1 {
		t.Errorf("black bar = %d, want -1 after the hit", next[BarBlack])
	}
}

// Bear-off with overshoot: checkers on 3, 2, 1 rolling 6-1. The 6 may only
// bear off from 3 (the farthest point); the 1 bears off exactly from 1.
func TestBearOffOvershoot(t *testing.T) {
	var b Board
	b[3] = 1
	b[2] = 1
	b[1] = 3
	b[TrayWhite] = 10
	b[19] = -15

	turns := EnumerateTurns(b, []int{6, 1}, White)

	if !turnsContain(turns, Turn{{From: 3, To: TrayWhite}, {From: 1, To: TrayWhite}}) {
		t.Errorf("expected 3/off 1/off in %v", turns)
	}
	if anyStartsWith(turns, Step{From: 2, To: TrayWhite}) {
		t.Error("overshoot bear-off from 2 is illegal while 3 is occupied")
	}
	if anyStartsWith(turns, Step{From: 1, To: TrayWhite}) {
		// Legal: the 1 is exact from point 1.
		valid, dieUsed, _ := MoveDetails(b, []int{6, 1}, White, Step{From: 1, To: TrayWhite}, turns)
		if !valid || dieUsed != 1 {
			t.Errorf("1/off should consume the 1, got die %d", dieUsed)
		}
	}

	valid, dieUsed, _ := MoveDetails(b, []int{6, 1}, White, Step{From: 3, To: TrayWhite}, turns)
	if !valid || dieUsed != 6 {
		t.Errorf("3/off should consume the 6, got (valid=%v, die=%d)", valid, dieUsed)
	}
}

// Doubles give four plays, but only as many as the position allows. Two
// white checkers on 24 against a made 14-point can each run 24/19 and no
// further, so the unique maximal sequence has length two.
func TestDoublesPartiallyPlayable(t *testing.T) {
	var b Board
	b[24] = 2
	b[1] = 13
	b[14] = -2
	b[13] = -13

	turns := EnumerateTurns(b, []int{5, 5, 5, 5}, White)

	want := Turn{{From: 24, To: 19}, {From: 24, To: 19}}
	if len(turns) != 1 {
		t.Fatalf("got %d turns %v, want exactly one", len(turns), turns)
	}
	if !turnsContain(turns, want) {
		t.Errorf("turns = %v, want [%v]", turns, want)
	}
}

// A dance: white on the bar, every entry point made by black.
func TestNoMovesReturnsNil(t *testing.T) {
	var b Board
	b[BarWhite] = 1
	b[6] = 14
	b[19] = -2
	b[20] = -2
	b[21] = -2
	b[22] = -2
	b[23] = -2
	b[24] = -2
	b[1] = -3

	turns := EnumerateTurns(b, []int{6, 5}, White)
	if turns != nil {
		t.Errorf("turns = %v, want nil", turns)
	}
	if MovesAvailable(turns) {
		t.Error("MovesAvailable should be false")
	}
}

// Playing the smaller die first can be the only way to use both dice; the
// maximal sequence must still be found.
func TestPlayMaximumOrdering(t *testing.T) {
	var b Board
	b[24] = 1
	b[1] = 14
	b[18] = -2 // blocks the direct 6
	b[17] = -13

	turns := EnumerateTurns(b, []int{6, 5}, White)

	want := Turn{{From: 24, To: 19}, {From: 19, To: 13}}
	if len(turns) != 1 || !turnsContain(turns, want) {
		t.Fatalf("turns = %v, want exactly [%v]", turns, want)
	}
}

func TestBlackDirectionAndBarEntry(t *testing.T) {
	b := Initial()
	turns := EnumerateTurns(b, []int{3, 1}, Black)

	// Black moves upward: 1 -> 4 with the 3.
	if !anyStartsWith(turns, Step{From: 1, To: 4}) {
		t.Error("expected black 1/4 with the 3")
	}

	var barBoard Board
	barBoard[BarBlack] = -1
	barBoard[19] = -14
	barBoard[6] = 15

	barTurns := EnumerateTurns(barBoard, []int{4, 2}, Black)
	for _, turn := range barTurns {
		if turn[0].From != BarBlack {
			t.Errorf("black bar-first violated: %v", turn)
		}
	}
	if !anyStartsWith(barTurns, Step{From: BarBlack, To: 4}) {
		t.Error("expected black bar entry on 4")
	}
}

func TestMoveDetailsRejectsIllegalStep(t *testing.T) {
	b := Initial()
	turns := EnumerateTurns(b, []int{6, 5}, White)

	valid, _, _ := MoveDetails(b, []int{6, 5}, White, Step{From: 24, To: 20}, turns)
	if valid {
		t.Error("24/20 is not reachable with 6-5")
	}
}

func TestEnumerateTurnsDeduplicates(t *testing.T) {
	// Both checkers on the same point with doubles: the identical
	// two-step sequence must appear once, not once per die ordering.
	var b Board
	b[24] = 2
	b[1] = 13
	b[14] = -2
	b[13] = -13

	turns := EnumerateTurns(b, []int{5, 5, 5, 5}, White)
	seen := map[string]int{}
	for _, turn := range turns {
		seen[turnKey(turn)]++
	}
	for key, n := range seen {
		if n > 1 {
			t.Errorf("sequence %q enumerated %d times", key, n)
		}
	}
}
