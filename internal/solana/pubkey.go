package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	// PublicKeyLength is the byte length of an ed25519 public key.
	PublicKeyLength = 32
	// MaxSeedLength is the maximum byte length of a single PDA seed.
	MaxSeedLength = 32
	// MaxSeeds is the maximum number of PDA seeds, bump excluded.
	MaxSeeds = 16
)

// ErrNoViableBump is returned when every bump seed yields an on-curve point.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// PublicKey is a 32-byte Solana account address.
type PublicKey [PublicKeyLength]byte

// ParsePublicKey decodes a base58 address.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode public key %q: %w", s, err)
	}
	if len(b) != PublicKeyLength {
		return pk, fmt.Errorf("public key %q: invalid length %d", s, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPublicKey is like ParsePublicKey but panics on error.
func MustPublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 encoding.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Bytes returns a copy of the key bytes.
func (pk PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeyLength)
	copy(b, pk[:])
	return b
}

// IsZero reports whether the key is all zeros.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// FindProgramAddress derives a program derived address.
// Bumps are tried from 255 downward; the first off-curve hash wins.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	if len(seeds) > MaxSeeds {
		return PublicKey{}, 0, fmt.Errorf("too many seeds: %d", len(seeds))
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return PublicKey{}, 0, fmt.Errorf("seed too long: %d bytes", len(seed))
		}
	}

	for bump := 255; bump > 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID[:])
		h.Write([]byte("ProgramDerivedAddress"))

		var addr PublicKey
		copy(addr[:], h.Sum(nil))
		if !isOnCurve(addr[:]) {
			return addr, uint8(bump), nil
		}
	}

	return PublicKey{}, 0, ErrNoViableBump
}

func isOnCurve(point []byte) bool {
	if len(point) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
