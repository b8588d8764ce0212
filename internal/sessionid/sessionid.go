// Package sessionid generates sortable identifiers for replay sessions.
//
// IDs follow the UUIDv7 layout (48-bit millisecond timestamp, version and
// variant bits, random tail) encoded as 26 characters of Crockford base32.
// With a deterministic RandSource and a fixed clock the ID is reproducible.
package sessionid

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/coder/quartz"
)

// Base32 alphabet used by TypeID (Crockford's base32)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in an encoded ID.
const Length = 26

// RandSource supplies the random tail. *rng.Stream satisfies it.
type RandSource interface {
	Index(n int) int
}

// Generator creates session IDs
type Generator struct {
	clock quartz.Clock
	rand  RandSource
}

// NewGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewGenerator(clock quartz.Clock, rand RandSource) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, rand: rand}
}

// Generate creates a new session ID
func (g *Generator) Generate() string {
	return encodeBase32(g.uuid())
}

func (g *Generator) uuid() [16]byte {
	var id [16]byte

	now := g.clock.Now().UnixMilli()
	id[0] = byte(now >> 40)
	id[1] = byte(now >> 32)
	id[2] = byte(now >> 24)
	id[3] = byte(now >> 16)
	id[4] = byte(now >> 8)
	id[5] = byte(now)

	if g.rand != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.rand.Index(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}

	// version 7, variant 10
	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80

	return id
}

// encodeBase32 encodes 128 bits as 26 characters, 5 bits at a time from the
// most significant end. The final character carries the last 3 bits.
func encodeBase32(data [16]byte) string {
	result := make([]byte, Length)

	for i := 0; i < Length; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if bitIndex <= 3 {
			value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
		} else {
			value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
			if byteIndex+1 < 16 {
				value |= data[byteIndex+1] >> (11 - bitIndex)
			}
		}
		result[i] = alphabet[value]
	}

	return string(result)
}

// Validate checks that id is 26 characters of lowercase Crockford base32
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("session ID must be exactly %d characters, got %d", Length, len(id))
	}

	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
