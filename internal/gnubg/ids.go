package gnubg

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/lox/gammond/internal/board"
)

// PositionID encodes a position as the engine's 14-character identifier.
//
// The board is written from the perspective of the player on roll: first
// the opponent's 24 points in reversed orientation followed by the
// opponent's bar, then the mover's points in forward orientation and the
// mover's bar. Each slot contributes N ones and a terminating zero, N
// being the checker count when the slot is owned by that side. The
// resulting bit-string is zero-padded to exactly 80 bits, grouped into
// ten bytes with the bit order reversed inside each byte, and base64
// encoded with the trailing padding stripped.
func PositionID(b board.Board, onRoll int) (string, error) {
	if onRoll != board.White && onRoll != board.Black {
		return "", fmt.Errorf("player on roll must be %d or %d, got %d", board.White, board.Black, onRoll)
	}

	var sb strings.Builder

	writeSide := func(points []int, bar, sign int) {
		for _, i := range points {
			count := b[i]
			if count*sign > 0 {
				for n := 0; n < count*sign; n++ {
					sb.WriteByte('1')
				}
			}
			sb.WriteByte('0')
		}
		barCount := b[bar]
		if barCount*sign > 0 {
			for n := 0; n < barCount*sign; n++ {
				sb.WriteByte('1')
			}
		}
		sb.WriteByte('0')
	}

	forward := make([]int, 0, 24)
	reverse := make([]int, 0, 24)
	for i := board.Point1; i <= board.Point24; i++ {
		forward = append(forward, i)
	}
	for i := board.Point24; i >= board.Point1; i-- {
		reverse = append(reverse, i)
	}

	if onRoll == board.White {
		writeSide(reverse, board.BarBlack, board.Black)
		writeSide(forward, board.BarWhite, board.White)
	} else {
		writeSide(forward, board.BarWhite, board.White)
		writeSide(reverse, board.BarBlack, board.Black)
	}

	bits := sb.String()
	if len(bits) > 80 {
		// A legal position never exceeds 80 bits; this is a corrupted board.
		return "", fmt.Errorf("position bit-string is %d bits, exceeds 80", len(bits))
	}
	bits += strings.Repeat("0", 80-len(bits))

	raw := make([]byte, 10)
	for i := 0; i < 10; i++ {
		var v byte
		for j := 0; j < 8; j++ {
			// Bits are read little-endian within each byte.
			if bits[i*8+j] == '1' {
				v |= 1 << j
			}
		}
		raw[i] = v
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	return strings.TrimRight(encoded, "="), nil
}

// matchKey is the engine's 72-bit match state. Cube and match fields are
// fixed for single-game play; only the dice and the player indexes vary.
type matchKey struct {
	cubeValue     int
	cubeOwner     int
	onRoll        int
	crawford      bool
	gameState     int
	turn          int
	doubleOffered bool
	resignOffered int
	die1, die2    int
	matchLength   int
	score0        int
	score1        int
	jacobyOff     bool
}

func (m matchKey) encode() string {
	cube := m.cubeValue
	if cube < 1 {
		cube = 1
	}
	cubeLog := 0
	for 1<<(cubeLog+1) <= cube {
		cubeLog++
	}

	// The key is a 72-bit little-endian integer; fields are written at
	// fixed bit offsets directly into the nine bytes.
	raw := make([]byte, 9)
	put := func(offset, width int, value uint64) {
		for j := 0; j < width; j++ {
			if value&(1<<j) != 0 {
				bit := offset + j
				raw[bit/8] |= 1 << (bit % 8)
			}
		}
	}

	put(0, 4, uint64(cubeLog))
	put(4, 2, uint64(m.cubeOwner))
	put(6, 1, uint64(m.onRoll))
	put(7, 1, boolBit(m.crawford))
	put(8, 3, uint64(m.gameState))
	put(11, 1, uint64(m.turn))
	put(12, 1, boolBit(m.doubleOffered))
	put(13, 2, uint64(m.resignOffered))
	put(15, 3, uint64(m.die1))
	put(18, 3, uint64(m.die2))
	put(21, 15, uint64(m.matchLength))
	put(36, 15, uint64(m.score0))
	put(51, 15, uint64(m.score1))
	put(66, 1, boolBit(m.jacobyOff))

	return base64.StdEncoding.EncodeToString(raw)
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// MatchID builds the 12-character match identifier for a money-game
// position: centered cube at 1, no score, the given dice showing, and
// playerIndex (0 or 1) both on roll and to move.
func MatchID(die1, die2, playerIndex int) string {
	return matchKey{
		cubeValue: 1,
		cubeOwner: 3,
		onRoll:    playerIndex,
		gameState: 1,
		turn:      playerIndex,
		die1:      die1,
		die2:      die2,
	}.encode()
}
