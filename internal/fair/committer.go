package fair

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	serverSeedBytes = 32 // 256 bits of entropy
	clientSeedBytes = 16
)

// NewServerSeed returns a fresh secret server seed: 32 bytes from crypto/rand,
// hex-encoded. The seed stays secret until its pair is revealed.
func NewServerSeed() (string, error) {
	b := make([]byte, serverSeedBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate server seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewClientSeed returns a default client seed for players who do not supply
// their own. Not security-critical, but random so sessions start distinct.
func NewClientSeed() (string, error) {
	b := make([]byte, clientSeedBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate client seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashSeed computes the one-way commitment published before any bet is placed
// under the seed: sha256 over the seed string, hex-encoded.
func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
