// Package types holds the domain model shared across the swap service.
package types

import (
	"encoding/json"
	"math/big"
	"time"
)

// ProviderName identifies a bridge provider integration.
type ProviderName string

const (
	ProviderRelay    ProviderName = "relay"
	ProviderDeBridge ProviderName = "debridge"
)

// Valid reports whether the name is one of the supported providers.
func (p ProviderName) Valid() bool {
	return p == ProviderRelay || p == ProviderDeBridge
}

// FeeToken is the token in which the sponsor fee is settled.
type FeeToken string

const (
	FeeTokenSOL  FeeToken = "SOL"
	FeeTokenUSDC FeeToken = "USDC"
)

// SwapStatus is the lifecycle state of a sponsored swap.
type SwapStatus string

const (
	StatusPending     SwapStatus = "pending"
	StatusFeePaid     SwapStatus = "fee_paid"
	StatusTxSubmitted SwapStatus = "tx_submitted"
	StatusBridging    SwapStatus = "bridging"
	StatusCompleted   SwapStatus = "completed"
	StatusFailed      SwapStatus = "failed"
	StatusRefunded    SwapStatus = "refunded"
)

// Terminal reports whether no further transitions can leave this status.
func (s SwapStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// QuoteRequest describes a requested Solana -> EVM transfer.
type QuoteRequest struct {
	// InputToken is the Solana mint address of the input token.
	InputToken string
	// InputAmount is in the token's smallest unit.
	InputAmount *big.Int
	// DestChainID is the EVM chain id of the destination.
	DestChainID int64
	// OutputToken is the EVM token address on the destination chain.
	OutputToken string
	// UserWallet is the user's Solana wallet address.
	UserWallet string
	// RecipientAddress is the EVM recipient.
	RecipientAddress string
}

// Quote is one provider's time-boxed estimate for a requested transfer.
type Quote struct {
	Provider              ProviderName
	InputAmount           *big.Int
	EstimatedOutputAmount *big.Int
	// MinOutputAmount is the slippage floor; never exceeds EstimatedOutputAmount.
	MinOutputAmount *big.Int
	// ProviderFeeNative is the provider's own fee, in lamports.
	ProviderFeeNative *big.Int
	// ProviderFeeUsd is the provider fee in USD for display, when known.
	ProviderFeeUsd       float64
	EstimatedTimeSeconds int
	// ProviderData is the provider's opaque payload. It must round-trip
	// unchanged into CreateTransaction; only the owning provider decodes it.
	ProviderData json.RawMessage
	ExpiresAt    time.Time
}

// TransactionResult is a submittable bridge-leg transaction plus its order id.
type TransactionResult struct {
	// SerializedTransaction is the wire-encoded transaction; Encoding says how.
	SerializedTransaction string
	Encoding              TxEncoding
	OrderID               string
}

// TxEncoding is the wire encoding of a serialized transaction.
type TxEncoding string

const (
	EncodingBase64 TxEncoding = "base64"
	EncodingHex    TxEncoding = "hex"
)

// StatusResult is a normalized provider status observation.
type StatusResult struct {
	Status     SwapStatus `json:"status"`
	DestTxHash string     `json:"destTxHash,omitempty"`
}

// SwapRecord is the persisted state of one accepted swap.
type SwapRecord struct {
	ID                string     `json:"id"`
	WalletAddress     string     `json:"walletAddress"`
	InputToken        string     `json:"inputToken"`
	InputTokenSymbol  string     `json:"inputTokenSymbol"`
	InputAmount       string     `json:"inputAmount"`
	OutputToken       string     `json:"outputToken"`
	OutputTokenSymbol string     `json:"outputTokenSymbol"`
	DestChain         string     `json:"destChain"`
	DestChainID       int64      `json:"destChainId"`
	Provider          string     `json:"provider"`
	DestTxHash        string     `json:"destTxHash,omitempty"`
	SponsorFeePaid    string     `json:"sponsorFeePaid"`
	FeeToken          string     `json:"feeToken"`
	BridgeOrderID     string     `json:"bridgeOrderId,omitempty"`
	Status            SwapStatus `json:"status"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
