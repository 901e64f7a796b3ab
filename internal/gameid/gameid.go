// Package gameid mints the public identifiers for games.
//
// An ID is a UUIDv7 rendered as 26 characters of Crockford base32
// (lowercase, no i/l/o/u), so identifiers sort lexicographically by
// creation time and stay safe in URLs and log lines.
package gameid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, as used by TypeID.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate mints a fresh game ID. It panics only if the system entropy
// source fails.
func Generate() string {
	return encode(uuid.Must(uuid.NewV7()))
}

// encode renders the 128-bit UUID MSB-first at five bits per character.
// Twenty-six characters hold 130 bits; the final two are zero padding.
func encode(id uuid.UUID) string {
	var out [26]byte
	acc, bits, n := uint(0), 0, 0
	for _, b := range id {
		acc = acc<<8 | uint(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[n] = alphabet[acc>>bits&0x1f]
			n++
		}
	}
	out[n] = alphabet[acc<<(5-bits)&0x1f]
	return string(out[:])
}

// Validate checks that id is a well-formed game ID. The UUIDv7
// timestamp keeps the leading character at '7' or below for many
// centuries, so anything above that is rejected as corrupt rather
// than merely futuristic.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game ID must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
