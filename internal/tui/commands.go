package tui

import (
	"strconv"
	"strings"

	"github.com/lox/gammond/internal/board"
)

type commandKind int

const (
	cmdUnknown commandKind = iota
	cmdEmpty
	cmdRoll
	cmdStep
	cmdUndo
	cmdDone
	cmdResign
	cmdQuit
)

type gameCommand struct {
	kind commandKind
	step board.Step
}

// parseGameCommand reads one input line. Steps are "<from> <to>" where the
// slots are point numbers or the keywords bar and off for the given player.
func parseGameCommand(input string, sign int) gameCommand {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return gameCommand{kind: cmdEmpty}
	}

	switch fields[0] {
	case "roll", "r":
		return gameCommand{kind: cmdRoll}
	case "undo", "u":
		return gameCommand{kind: cmdUndo}
	case "done", "end":
		return gameCommand{kind: cmdDone}
	case "resign", "giveup":
		return gameCommand{kind: cmdResign}
	case "quit", "exit":
		return gameCommand{kind: cmdQuit}
	}

	if len(fields) == 2 {
		from, okFrom := parseSlot(fields[0], sign)
		to, okTo := parseSlot(fields[1], sign)
		if okFrom && okTo {
			return gameCommand{kind: cmdStep, step: board.Step{From: from, To: to}}
		}
	}
	return gameCommand{kind: cmdUnknown}
}

func parseSlot(s string, sign int) (int, bool) {
	switch s {
	case "bar":
		return board.Bar(sign), true
	case "off":
		return board.Tray(sign), true
	}
	n, err := strconv.Atoi(s)
	if err != nil || !board.IsPoint(n) {
		return 0, false
	}
	return n, true
}
