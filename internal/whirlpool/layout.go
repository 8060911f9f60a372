// Package whirlpool reads Orca Whirlpool program accounts: pools, tick
// arrays and token mints.
package whirlpool

import (
	"crypto/sha256"
	"errors"
)

// Program and token addresses.
const (
	ProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

	// DefaultPoolAddress is the SOL/USDC pool with tick spacing 64.
	DefaultPoolAddress = "Czfq3xZZDmsdGdUyrNLtRhGc47cXcZtLG4crryfu44zE"

	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// Account layout sizes in bytes.
const (
	discriminatorSize = 8

	PoolAccountSize = 653

	TickSize             = 113
	TickArrayTicksOffset = discriminatorSize + 4
	TickArrayAccountSize = TickArrayTicksOffset + 88*TickSize + 32

	MintAccountMinSize = 82
	mintDecimalsOffset = 44
)

var (
	ErrPoolNotFound           = errors.New("whirlpool: pool account not found")
	ErrDecode                 = errors.New("whirlpool: account decode failed")
	ErrUndeterminableDecimals = errors.New("whirlpool: token decimals undeterminable")
)

var (
	poolDiscriminator      = accountDiscriminator("Whirlpool")
	tickArrayDiscriminator = accountDiscriminator("TickArray")
)

// accountDiscriminator returns the 8-byte Anchor account prefix for name.
func accountDiscriminator(name string) [discriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [discriminatorSize]byte
	copy(d[:], sum[:discriminatorSize])
	return d
}
