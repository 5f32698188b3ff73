// Package swap orchestrates sponsored swap execution and status
// reconciliation.
package swap

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"swapd/logger"
	"swapd/pkg/chain"
	"swapd/pkg/fee"
	"swapd/pkg/provider"
	"swapd/pkg/soltx"
	"swapd/pkg/sponsor"
	"swapd/pkg/store"
	"swapd/pkg/types"
)

// Executor runs the sponsored swap sequence: re-validate, persist, build
// both legs. One execution attempt per swap id; the persisted record is the
// source of truth afterward.
type Executor struct {
	store    store.SwapStore
	registry *provider.Registry
	calc     *fee.Calculator
	chain    chain.Reader
	sponsor  *sponsor.Sponsor
}

// NewExecutor wires the executor's collaborators.
func NewExecutor(st store.SwapStore, registry *provider.Registry, calc *fee.Calculator, rd chain.Reader, sp *sponsor.Sponsor) *Executor {
	return &Executor{store: st, registry: registry, calc: calc, chain: rd, sponsor: sp}
}

// Execute performs one sponsored swap attempt. Steps are sequential; any
// leg-construction failure marks the record failed before returning.
func (e *Executor) Execute(ctx context.Context, req *Request) (*Result, error) {
	prov, err := e.registry.Get(req.SelectedProvider)
	if err != nil {
		return nil, err
	}

	inputAmount, ok := new(big.Int).SetString(req.InputAmount, 10)
	if !ok || inputAmount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid input amount %q", req.InputAmount)
	}
	quotedFee, ok := new(big.Int).SetString(req.QuotedFee, 10)
	if !ok || quotedFee.Sign() <= 0 {
		return nil, fmt.Errorf("invalid quoted fee %q", req.QuotedFee)
	}

	providerData, err := base64.StdEncoding.DecodeString(req.ProviderData)
	if err != nil {
		return nil, fmt.Errorf("decode provider data: %w", err)
	}

	// Rebuild a quote shell around the opaque payload. Estimate fields are
	// not trusted from the client and stay zeroed.
	quote := &types.Quote{
		Provider:              req.SelectedProvider,
		InputAmount:           inputAmount,
		EstimatedOutputAmount: big.NewInt(0),
		MinOutputAmount:       big.NewInt(0),
		ProviderFeeNative:     big.NewInt(0),
		ProviderData:          json.RawMessage(providerData),
		ExpiresAt:             time.Now().Add(types.QuoteValidity),
	}

	breakdown, err := e.calc.Calculate(ctx, quote, req.UserWallet, inputAmount)
	if err != nil {
		return nil, fmt.Errorf("recompute fee: %w", err)
	}

	// Drift guard: tolerate up to 10% above the approved fee.
	limit := new(big.Int).Mul(quotedFee, big.NewInt(110))
	limit.Div(limit, big.NewInt(100))
	if breakdown.TotalFee.Cmp(limit) > 0 {
		return nil, fmt.Errorf("%w: quoted %s, recomputed %s", ErrFeeDrift, quotedFee, breakdown.TotalFee)
	}

	if err := e.sponsor.ValidateSolvency(ctx, breakdown.TotalCostLamports()); err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &types.SwapRecord{
		ID:                uuid.NewString(),
		WalletAddress:     req.UserWallet,
		InputToken:        req.InputToken,
		InputTokenSymbol:  req.InputTokenSymbol,
		InputAmount:       req.InputAmount,
		OutputToken:       req.OutputToken,
		OutputTokenSymbol: req.OutputTokenSymbol,
		DestChain:         types.DestChainName(req.DestChainID),
		DestChainID:       req.DestChainID,
		Provider:          string(req.SelectedProvider),
		SponsorFeePaid:    breakdown.TotalFee.String(),
		FeeToken:          string(breakdown.FeeToken),
		Status:            types.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := e.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist swap record: %w", err)
	}

	result, err := e.buildLegs(ctx, prov, quote, breakdown, req, rec.ID)
	if err != nil {
		// The record must never silently remain pending after a
		// construction failure.
		if markErr := e.store.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
			logger.WithFields(logger.Fields{
				"swapId": rec.ID,
				"error":  markErr.Error(),
			}).Error("failed to mark swap record failed")
		}
		return nil, err
	}

	return result, nil
}

func (e *Executor) buildLegs(ctx context.Context, prov provider.BridgeProvider, quote *types.Quote, breakdown *fee.Breakdown, req *Request, swapID string) (*Result, error) {
	if !breakdown.TotalFee.IsUint64() {
		return nil, fmt.Errorf("fee %s exceeds transferable range", breakdown.TotalFee)
	}

	feeMint, err := solana.PublicKeyFromBase58(breakdown.FeeMint)
	if err != nil {
		return nil, fmt.Errorf("invalid fee mint: %w", err)
	}
	userWallet, err := solana.PublicKeyFromBase58(req.UserWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid user wallet: %w", err)
	}

	feeMintDecimals := uint8(9)
	if breakdown.FeeToken == types.FeeTokenUSDC {
		feeMintDecimals = 6
	}

	feeTx, err := soltx.BuildFeePayment(ctx, e.chain, soltx.FeePaymentParams{
		UserWallet:      userWallet,
		Sponsor:         e.sponsor.PublicKey(),
		FeeAmount:       breakdown.TotalFee.Uint64(),
		FeeToken:        breakdown.FeeToken,
		FeeMint:         feeMint,
		FeeMintDecimals: feeMintDecimals,
	})
	if err != nil {
		return nil, fmt.Errorf("build fee payment leg: %w", err)
	}
	if err := soltx.PartialSign(feeTx, e.sponsor.PrivateKey()); err != nil {
		return nil, fmt.Errorf("sponsor-sign fee payment leg: %w", err)
	}

	bridgeResult, err := prov.CreateTransaction(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("create bridge leg: %w", err)
	}

	bridgeTx, err := soltx.PrepareBridgeTx(ctx, e.chain, bridgeResult.SerializedTransaction, bridgeResult.Encoding)
	if err != nil {
		return nil, fmt.Errorf("prepare bridge leg: %w", err)
	}

	feeTxB64, err := soltx.EncodeBase64(feeTx)
	if err != nil {
		return nil, err
	}
	bridgeTxB64, err := soltx.EncodeBase64(bridgeTx)
	if err != nil {
		return nil, err
	}

	if err := e.store.MarkOrderCreated(ctx, swapID, bridgeResult.OrderID); err != nil {
		return nil, fmt.Errorf("attach bridge order: %w", err)
	}

	logger.WithFields(logger.Fields{
		"swapId":   swapID,
		"provider": prov.Name(),
		"orderId":  bridgeResult.OrderID,
		"feeToken": breakdown.FeeToken,
	}).Info("swap legs built")

	return &Result{
		SwapID:        swapID,
		FeePaymentTx:  feeTxB64,
		BridgeTx:      bridgeTxB64,
		BridgeOrderID: bridgeResult.OrderID,
		Status:        types.StatusFeePaid,
	}, nil
}
