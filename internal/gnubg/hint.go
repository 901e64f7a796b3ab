package gnubg

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lox/gammond/internal/board"
)

// hintSentinel marks the line of engine output carrying the top-ranked move.
const hintSentinel = "1. Cubeful"

// moveIslandRE matches a run of slash chains such as "24/18 13/11(2) bar/22*".
var moveIslandRE = regexp.MustCompile(`(?i)((?:\b(?:bar|off|\d{1,2})\*?(?:/(?:bar|off|\d{1,2})\*?)+(?:\(\d+\))?\s*)+)`)

var (
	chainCountRE = regexp.MustCompile(`\((\d+)\)\s*$`)
	segmentRE    = regexp.MustCompile(`^(\w+)/(\w+)`)
)

// findHintLine scans engine output for the first line containing the
// hint sentinel.
func findHintLine(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, hintSentinel) {
			return line, true
		}
	}
	return "", false
}

// extractMoveIsland pulls the move text out of a hint line. The move sits
// left of the equity separator; everything after it is evaluation noise.
func extractMoveIsland(line string) (string, bool) {
	idx := strings.LastIndex(line, "Eq.:")
	if idx < 0 {
		return "", false
	}
	left := strings.TrimRight(line[:idx], " \t")
	m := moveIslandRE.FindStringSubmatch(left)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// expandChain splits one chain token into from/to segments. A chain like
// "8/5/3(2)" expands to its adjacent pairs repeated by the multiplier:
// 8/5 5/3 8/5 5/3. Two-node chains keep their hit marker and are simply
// repeated.
func expandChain(token string) []string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	count := 1
	if m := chainCountRE.FindStringSubmatchIndex(token); m != nil {
		n, err := strconv.Atoi(token[m[2]:m[3]])
		if err == nil {
			count = n
		}
		token = strings.TrimSpace(token[:m[0]])
	}

	parts := strings.Split(token, "/")
	if len(parts) <= 2 {
		out := make([]string, 0, count)
		for i := 0; i < count; i++ {
			out = append(out, token)
		}
		return out
	}

	type pointNode struct {
		name string
		hit  bool
	}
	nodes := make([]pointNode, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		hit := strings.HasSuffix(p, "*")
		if hit {
			p = strings.TrimSuffix(p, "*")
		}
		nodes = append(nodes, pointNode{name: p, hit: hit})
	}

	segs := make([]string, 0, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		seg := nodes[i].name + "/" + nodes[i+1].name
		if nodes[i+1].hit {
			seg += "*"
		}
		segs = append(segs, seg)
	}

	out := make([]string, 0, len(segs)*count)
	for i := 0; i < count; i++ {
		out = append(out, segs...)
	}
	return out
}

// parseSteps turns a move island into atomic steps in board coordinates
// for the given mover. The engine always speaks mover-relative: bar is 25
// and off is 0; for Black every point p maps to 25-p, bar to 27, off to 26.
func parseSteps(moveText string, sign int) []board.Step {
	var segments []string
	for _, tok := range strings.Fields(moveText) {
		if strings.Contains(tok, "/") {
			segments = append(segments, expandChain(tok)...)
		}
	}

	steps := make([]board.Step, 0, len(segments))
	for _, seg := range segments {
		m := segmentRE.FindStringSubmatch(strings.TrimSpace(seg))
		if m == nil {
			continue
		}

		from, ok := parsePoint(m[1], board.BarWhite, -1)
		if !ok {
			continue
		}
		to, ok := parsePoint(m[2], -1, 0)
		if !ok {
			continue
		}

		steps = append(steps, board.Step{From: from, To: to})
	}

	if sign == board.Black {
		for i, s := range steps {
			steps[i] = board.Step{From: blackPoint(s.From), To: blackPoint(s.To)}
		}
	}
	return steps
}

// parsePoint resolves one engine point token. barValue and offValue are
// the slot to substitute for the word, or -1 when the word is not legal
// in that slot.
func parsePoint(token string, barValue, offValue int) (int, bool) {
	switch strings.ToLower(token) {
	case "bar":
		if barValue < 0 {
			return 0, false
		}
		return barValue, true
	case "off":
		if offValue < 0 {
			return 0, false
		}
		return offValue, true
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}

func blackPoint(p int) int {
	switch {
	case p == board.BarWhite:
		return board.BarBlack
	case p == 0:
		return board.TrayBlack
	case p >= board.Point1 && p <= board.Point24:
		return 25 - p
	default:
		return p
	}
}
