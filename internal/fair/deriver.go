package fair

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// The derivation below is the published fairness algorithm. Any change to the
// message layout, byte selection or modulus breaks verification of every bet
// ever settled, so these values are frozen.
const (
	// rollModulus / rollScale map 32 bits of HMAC output onto [0, 100) with
	// 5-decimal-digit resolution: roll = (v mod 1e7) / 1e5.
	rollModulus = 10_000_000
	rollScale   = 100_000.0
)

// Derive computes the roll for a (serverSeed, clientSeed, nonce) triple.
// Same triple, same roll, forever: HMAC-SHA256 keyed by the server seed over
// "clientSeed:nonce", first 4 digest bytes as a big-endian uint32, mapped onto
// [0, 100). No clock, no randomness, no other state.
func Derive(serverSeed, clientSeed string, nonce int64) (float64, error) {
	if clientSeed == "" {
		return 0, fmt.Errorf("%w: empty client seed", ErrInvalidInput)
	}
	if nonce < 0 {
		return 0, fmt.Errorf("%w: negative nonce %d", ErrInvalidInput, nonce)
	}

	h := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(h, "%s:%d", clientSeed, nonce)
	digest := h.Sum(nil)

	v := binary.BigEndian.Uint32(digest[:4])
	return float64(v%rollModulus) / rollScale, nil
}
