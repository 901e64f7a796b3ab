package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/gammond/internal/board"
)

// checkerRows is how many checkers a point column shows before the last
// row switches to a count.
const checkerRows = 5

var (
	topPoints    = []int{13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}
	bottomPoints = []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
)

// RenderBoard draws the position as two rows of point columns around a
// divider, then the bar and borne-off counts. White moves toward point 1,
// black toward point 24.
func RenderBoard(b board.Board, borneWhite, borneBlack int) string {
	var sb strings.Builder

	sb.WriteString(pointLabels(topPoints))
	sb.WriteString("\n")
	for row := 0; row < checkerRows; row++ {
		sb.WriteString(checkerRow(b, topPoints, row))
		sb.WriteString("\n")
	}

	sb.WriteString(divider())
	sb.WriteString("\n")

	for row := checkerRows - 1; row >= 0; row-- {
		sb.WriteString(checkerRow(b, bottomPoints, row))
		sb.WriteString("\n")
	}
	sb.WriteString(pointLabels(bottomPoints))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("bar   white %d  black %d\n",
		b[board.BarWhite], -b[board.BarBlack]))
	sb.WriteString(fmt.Sprintf("off   white %d  black %d", borneWhite, borneBlack))

	return sb.String()
}

func pointLabels(points []int) string {
	var sb strings.Builder
	for i, point := range points {
		if i == 6 {
			sb.WriteString(" │")
		}
		sb.WriteString(fmt.Sprintf(" %2d", point))
	}
	return sb.String()
}

func checkerRow(b board.Board, points []int, row int) string {
	var sb strings.Builder
	for i, point := range points {
		if i == 6 {
			sb.WriteString(" │")
		}
		sb.WriteString(" ")
		sb.WriteString(cell(b[point], row))
	}
	return sb.String()
}

// cell renders one 2-char column slot: a checker glyph, the stack count on
// the last visible row of a tall stack, or blanks.
func cell(count, row int) string {
	n := count
	if n < 0 {
		n = -n
	}
	if n == 0 || n <= row {
		return "  "
	}
	if row == checkerRows-1 && n > checkerRows {
		return styleFor(count).Render(fmt.Sprintf("%2d", n))
	}
	return " " + styleFor(count).Render(glyphFor(count))
}

func styleFor(count int) lipgloss.Style {
	if count > 0 {
		return WhiteCheckerStyle
	}
	return BlackCheckerStyle
}

func glyphFor(count int) string {
	if count > 0 {
		return "○"
	}
	return "●"
}

func divider() string {
	half := strings.Repeat("─", 6*3)
	return half + "─┼" + half
}

// boardFromSetup builds a position from the per-color setup maps the
// server sends with initial_setup.
func boardFromSetup(whiteSetup, blackSetup map[int]int) board.Board {
	var b board.Board
	for point, count := range whiteSetup {
		if board.IsPoint(point) {
			b[point] = count * board.White
		}
	}
	for point, count := range blackSetup {
		if board.IsPoint(point) {
			b[point] = count * board.Black
		}
	}
	return b
}
