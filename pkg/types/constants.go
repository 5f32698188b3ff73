package types

import "time"

// Solana chain ids as the bridge providers number them.
const (
	SolanaChainIDRelay    = 792703809
	SolanaChainIDDeBridge = 7565164
)

// Well-known Solana mints.
const (
	SOLNativeMint   = "So11111111111111111111111111111111111111112"
	USDCMintMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// Solana cost estimates, in lamports.
const (
	SolanaBaseTxFee          = 5000
	SolanaPriorityFeeEstimate = 50000
	SolanaATARent            = 2039280
)

// DeBridgeFixedFeeLamports is deBridge's fixed per-order fee on Solana (0.015 SOL).
const DeBridgeFixedFeeLamports = 15_000_000

// QuoteValidity is how long a returned quote may be acted on.
const QuoteValidity = 30 * time.Second

// DestChains maps supported EVM destination chain ids to display names.
var DestChains = map[int64]string{
	1:     "ethereum",
	42161: "arbitrum",
	8453:  "base",
}

// SupportedDestChain reports whether the chain id is a valid destination.
func SupportedDestChain(chainID int64) bool {
	_, ok := DestChains[chainID]
	return ok
}

// DestChainName returns a display name for a destination chain id.
func DestChainName(chainID int64) string {
	if name, ok := DestChains[chainID]; ok {
		return name
	}
	return "unknown"
}
