package swap

import (
	"errors"

	"swapd/pkg/types"
)

// ErrFeeDrift means the server-side recomputed fee exceeded the quoted fee
// by more than the tolerated drift.
var ErrFeeDrift = errors.New("fee has increased significantly since quote, request a new quote")

// Request is a client's accepted swap, reconstructed server-side. Estimate
// fields from the client are never trusted; only the opaque provider
// payload is replayed.
type Request struct {
	UserWallet        string             `json:"userWallet"`
	InputToken        string             `json:"inputToken"`
	InputTokenSymbol  string             `json:"inputTokenSymbol"`
	InputAmount       string             `json:"inputAmount"`
	DestChainID       int64              `json:"destChainId"`
	OutputToken       string             `json:"outputToken"`
	OutputTokenSymbol string             `json:"outputTokenSymbol"`
	RecipientAddress  string             `json:"recipientAddress"`
	SelectedProvider  types.ProviderName `json:"selectedProvider"`
	// ProviderData is the base64-encoded opaque payload from the quote.
	ProviderData string `json:"providerData"`
	// QuotedFee is the fee the user approved, in the quoted fee token.
	QuotedFee string         `json:"quotedFee"`
	FeeToken  types.FeeToken `json:"feeToken"`
}

// Result carries both unsigned-by-user legs back to the client.
type Result struct {
	SwapID string `json:"swapId"`
	// FeePaymentTx is base64, partially signed by the sponsor.
	FeePaymentTx string `json:"feePaymentTx"`
	// BridgeTx is base64, unsigned.
	BridgeTx      string           `json:"bridgeTx"`
	BridgeOrderID string           `json:"bridgeOrderId"`
	Status        types.SwapStatus `json:"status"`
}
