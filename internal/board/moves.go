package board

import (
	"sort"
	"strconv"
	"strings"
)

// EnumerateTurns returns every distinct full legal turn for the given
// position, dice vector, and mover. Three constraints shape the result:
//
//   - Play maximum: only sequences using the most dice are kept.
//   - Play the larger die: when a non-double pair allows only a single
//     step and the larger die is playable, smaller-die steps are dropped.
//   - Bar first: with a checker on the bar, every sequence starts there.
//
// Returns nil when no step is playable.
func EnumerateTurns(b Board, dice []int, sign int) []Turn {
	if len(dice) == 0 {
		return nil
	}

	type node struct {
		path      Turn
		diceUsed  []int
		remaining []int
		pos       Board
	}

	type terminal struct {
		path     Turn
		diceUsed []int
	}

	stack := []node{{remaining: dice, pos: b}}
	var terminals []terminal

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		expanded := false
		for _, die := range distinctDice(n.remaining) {
			for _, s := range singleSteps(n.pos, die, sign) {
				expanded = true
				next := node{
					path:      append(append(Turn{}, n.path...), s),
					diceUsed:  append(append([]int{}, n.diceUsed...), die),
					remaining: removeDie(n.remaining, die),
					pos:       ApplyStep(n.pos, s, sign),
				}
				stack = append(stack, next)
			}
		}

		if !expanded {
			terminals = append(terminals, terminal{path: n.path, diceUsed: n.diceUsed})
		}
	}

	maxLen := 0
	for _, t := range terminals {
		if len(t.path) > maxLen {
			maxLen = len(t.path)
		}
	}
	if maxLen == 0 {
		return nil
	}

	full := terminals[:0]
	for _, t := range terminals {
		if len(t.path) == maxLen {
			full = append(full, t)
		}
	}

	// Larger-die rule: only for a non-double pair where a single step is
	// the most that can be played.
	if !isDouble(dice) && len(dice) == 2 && maxLen == 1 {
		higher := dice[0]
		if dice[1] > higher {
			higher = dice[1]
		}

		higherPlayable := false
		for _, t := range full {
			if t.diceUsed[0] == higher {
				higherPlayable = true
				break
			}
		}

		if higherPlayable {
			kept := full[:0]
			for _, t := range full {
				if t.diceUsed[0] == higher {
					kept = append(kept, t)
				}
			}
			full = kept
		}
	}

	seen := make(map[string]struct{}, len(full))
	turns := make([]Turn, 0, len(full))
	for _, t := range full {
		key := turnKey(t.path)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		turns = append(turns, t.path)
	}
	return turns
}

// MovesAvailable reports whether any enumerated turn exists.
func MovesAvailable(turns []Turn) bool {
	return len(turns) > 0
}

// MoveDetails validates a single proposed step against the enumerated
// turns. A step is valid iff some turn begins with it. On success it
// also resolves which die the step consumes and whether it hits a blot.
func MoveDetails(b Board, dice []int, sign int, s Step, turns []Turn) (valid bool, dieUsed int, wasBlot bool) {
	for _, turn := range turns {
		if len(turn) > 0 && turn[0] == s {
			valid = true
			break
		}
	}
	if !valid {
		return false, 0, false
	}

	if IsPoint(s.To) && b[s.To] == -sign {
		wasBlot = true
	}

	for _, die := range distinctDice(dice) {
		for _, candidate := range singleSteps(b, die, sign) {
			if candidate == s {
				return true, die, wasBlot
			}
		}
	}

	// Unreachable when turns were enumerated from (b, dice, sign).
	return false, 0, false
}

// singleSteps enumerates every legal single step for one die. With a
// checker on the bar only the re-entry step is considered.
func singleSteps(b Board, die, sign int) []Step {
	var steps []Step

	bar := Bar(sign)
	if b[bar]*sign > 0 {
		var to int
		if sign == White {
			to = BarWhite - die
		} else {
			to = die
		}
		if b[to]*sign >= -1 {
			steps = append(steps, Step{From: bar, To: to})
		}
		return steps
	}

	allHome := true
	for _, i := range outerRange(sign) {
		if b[i]*sign > 0 {
			allHome = false
			break
		}
	}

	tray := Tray(sign)

	for from := Point1; from <= Point24; from++ {
		if b[from]*sign <= 0 {
			continue
		}

		to := from - die*sign

		if IsPoint(to) && b[to]*sign >= -1 {
			steps = append(steps, Step{From: from, To: to})
			continue
		}

		if !allHome {
			continue
		}

		whiteOff := sign == White && to <= TrayWhite
		blackOff := sign == Black && to > Point24
		if !whiteOff && !blackOff {
			continue
		}

		exact := (sign == White && from == die) || (sign == Black && from == Point24-die+1)
		if exact {
			steps = append(steps, Step{From: from, To: tray})
			continue
		}

		// Overshoot bear-off is legal only from the farthest occupied point.
		furthest := true
		if sign == White {
			for i := from + 1; i <= Point24; i++ {
				if b[i]*sign > 0 {
					furthest = false
					break
				}
			}
		} else {
			for i := Point1; i < from; i++ {
				if b[i]*sign > 0 {
					furthest = false
					break
				}
			}
		}
		if furthest {
			steps = append(steps, Step{From: from, To: tray})
		}
	}

	return steps
}

// outerRange returns the points outside the mover's home board.
func outerRange(sign int) []int {
	var lo, hi int
	if sign == White {
		lo, hi = 7, Point24
	} else {
		lo, hi = Point1, 18
	}
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

func distinctDice(dice []int) []int {
	seen := [7]bool{}
	var out []int
	for _, d := range dice {
		if d >= 1 && d <= 6 && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

func removeDie(dice []int, die int) []int {
	out := make([]int, 0, len(dice)-1)
	removed := false
	for _, d := range dice {
		if !removed && d == die {
			removed = true
			continue
		}
		out = append(out, d)
	}
	return out
}

func isDouble(dice []int) bool {
	if len(dice) <= 2 {
		return false
	}
	for _, d := range dice[1:] {
		if d != dice[0] {
			return false
		}
	}
	return true
}

func turnKey(t Turn) string {
	var sb strings.Builder
	for _, s := range t {
		sb.WriteString(strconv.Itoa(s.From))
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(s.To))
		sb.WriteByte(' ')
	}
	return sb.String()
}
