// Package sponsor manages the operator wallet that pre-funds swap gas and
// collects user fees.
package sponsor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"swapd/pkg/chain"
)

// InsufficientBalanceError is returned when the sponsor wallet cannot cover
// the estimated cost of a swap with the required safety margin.
type InsufficientBalanceError struct {
	Balance  uint64
	Required uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("sponsor wallet insufficient balance: %.4f SOL, need %.4f SOL",
		float64(e.Balance)/float64(solana.LAMPORTS_PER_SOL),
		float64(e.Required)/float64(solana.LAMPORTS_PER_SOL))
}

// Sponsor wraps the operator keypair and its chain reads.
type Sponsor struct {
	key   solana.PrivateKey
	chain chain.Reader
}

// New parses a base58 sponsor private key. The key must be a full 64-byte
// ed25519 keypair.
func New(privateKeyBase58 string, rd chain.Reader) (*Sponsor, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid sponsor private key: %w", err)
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("invalid sponsor private key: expected 64 bytes, got %d", len(key))
	}
	return &Sponsor{key: key, chain: rd}, nil
}

// PublicKey returns the sponsor wallet address.
func (s *Sponsor) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// PrivateKey returns the signing key for the fee-payment leg.
func (s *Sponsor) PrivateKey() solana.PrivateKey {
	return s.key
}

// Balance returns the sponsor's lamport balance.
func (s *Sponsor) Balance(ctx context.Context) (uint64, error) {
	return s.chain.Balance(ctx, s.PublicKey())
}

// ValidateSolvency fails unless the sponsor balance is at least twice the
// estimated cost. The 2x margin is the only defense against concurrent
// in-flight swaps; there is no reservation mechanism.
func (s *Sponsor) ValidateSolvency(ctx context.Context, estimatedCostLamports *big.Int) error {
	balance, err := s.Balance(ctx)
	if err != nil {
		return fmt.Errorf("read sponsor balance: %w", err)
	}

	required := new(big.Int).Mul(estimatedCostLamports, big.NewInt(2))
	if new(big.Int).SetUint64(balance).Cmp(required) < 0 {
		return &InsufficientBalanceError{Balance: balance, Required: required.Uint64()}
	}
	return nil
}
