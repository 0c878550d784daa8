package engine

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomSeed returns a non-negative seed drawn from crypto/rand.
// It is used when a run does not pin --seed, so the value that reaches the
// engine is the same one substituted into the output filename.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 42
	}
	// Clear the sign bit; negating cannot fix MinInt64.
	return int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))
}
