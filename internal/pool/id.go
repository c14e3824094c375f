package pool

import (
	"crypto/rand"
	"encoding/hex"
)

// newStreamID returns a 128-bit identifier for a StreamView, formatted as
// a 32-character lowercase hex string. Collisions are astronomically
// unlikely and not guarded against, matching the opaque-identifier
// contract callers are given: uniqueness, not sequence or meaning.
func newStreamID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand on a supported platform does not fail; if it ever
		// does, fall back to the zero ID rather than panicking a caller
		// that merely wanted a new stream.
		return hex.EncodeToString(b[:])
	}
	return hex.EncodeToString(b[:])
}
