package whirlpool

import (
	"lukechampine.com/uint128"

	"whirlpool-range-lab/internal/solana"
)

// Whirlpool is the decoded pool account. Reward infos are not decoded.
type Whirlpool struct {
	WhirlpoolsConfig  solana.PublicKey
	Bump              uint8
	TickSpacing       uint16
	FeeRate           uint16
	ProtocolFeeRate   uint16
	Liquidity         uint128.Uint128
	SqrtPrice         uint128.Uint128
	TickCurrentIndex  int32
	ProtocolFeeOwedA  uint64
	ProtocolFeeOwedB  uint64
	TokenMintA        solana.PublicKey
	TokenVaultA       solana.PublicKey
	FeeGrowthGlobalA  uint128.Uint128
	TokenMintB        solana.PublicKey
	TokenVaultB       solana.PublicKey
	FeeGrowthGlobalB  uint128.Uint128
	RewardLastUpdated uint64
}

// DecodeWhirlpool decodes a pool account.
func DecodeWhirlpool(data []byte) (*Whirlpool, error) {
	d := newAccountDecoder(data)
	d.discriminator(poolDiscriminator)

	var p Whirlpool
	p.WhirlpoolsConfig = d.publicKey("whirlpools_config")
	p.Bump = d.u8("whirlpool_bump")
	p.TickSpacing = d.u16("tick_spacing")
	d.skip("tick_spacing_seed", 2)
	p.FeeRate = d.u16("fee_rate")
	p.ProtocolFeeRate = d.u16("protocol_fee_rate")
	p.Liquidity = d.u128("liquidity")
	p.SqrtPrice = d.u128("sqrt_price")
	p.TickCurrentIndex = d.i32("tick_current_index")
	p.ProtocolFeeOwedA = d.u64("protocol_fee_owed_a")
	p.ProtocolFeeOwedB = d.u64("protocol_fee_owed_b")
	p.TokenMintA = d.publicKey("token_mint_a")
	p.TokenVaultA = d.publicKey("token_vault_a")
	p.FeeGrowthGlobalA = d.u128("fee_growth_global_a")
	p.TokenMintB = d.publicKey("token_mint_b")
	p.TokenVaultB = d.publicKey("token_vault_b")
	p.FeeGrowthGlobalB = d.u128("fee_growth_global_b")
	p.RewardLastUpdated = d.u64("reward_last_updated_timestamp")

	if d.err != nil {
		return nil, d.err
	}
	return &p, nil
}
