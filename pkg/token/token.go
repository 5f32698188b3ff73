// Package token provides SPL token helpers and exact transfer-fee arithmetic
// for fee-bearing (Token-2022 style) mints.
package token

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"

	"swapd/pkg/chain"
	"swapd/pkg/types"
)

// Token2022ProgramID is the Token-2022 program.
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// DustThreshold is the smallest-unit balance below which a leftover
// token balance is considered un-sweepable dust.
const DustThreshold = 1000

var tenThousand = big.NewInt(10000)

// NetAfterFee returns the amount received after a proportional, capped
// transfer fee is withheld: fee = min(ceil(amount*bps/10000), maxFee).
func NetAfterFee(amount *big.Int, feeBps uint64, maxFee *big.Int) (net, fee *big.Int) {
	if feeBps == 0 {
		return new(big.Int).Set(amount), big.NewInt(0)
	}

	// ceil(amount * bps / 10000)
	fee = new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	fee.Add(fee, big.NewInt(9999))
	fee.Div(fee, tenThousand)

	if fee.Cmp(maxFee) > 0 {
		fee = new(big.Int).Set(maxFee)
	}

	net = new(big.Int).Sub(amount, fee)
	return net, fee
}

// GrossForDesiredNet returns the smallest gross amount whose net after the
// transfer fee is at least desiredNet. When the cap dominates, the exact
// answer is desiredNet + maxFee.
func GrossForDesiredNet(desiredNet *big.Int, feeBps uint64, maxFee *big.Int) *big.Int {
	if feeBps == 0 {
		return new(big.Int).Set(desiredNet)
	}

	// ceil(desiredNet * 10000 / (10000 - bps))
	denom := new(big.Int).Sub(tenThousand, new(big.Int).SetUint64(feeBps))
	gross := new(big.Int).Mul(desiredNet, tenThousand)
	gross.Add(gross, new(big.Int).Sub(denom, big.NewInt(1)))
	gross.Div(gross, denom)

	if _, fee := NetAfterFee(gross, feeBps, maxFee); fee.Cmp(maxFee) >= 0 {
		return new(big.Int).Add(desiredNet, maxFee)
	}
	return gross
}

// HasDust reports whether transferring transferAmount out of balance would
// strand a residual balance below the dust threshold. A full-balance
// transfer or a zero-bps mint never flags dust.
func HasDust(balance, transferAmount *big.Int, feeBps uint64) bool {
	if feeBps == 0 {
		return false
	}
	if transferAmount.Cmp(balance) >= 0 {
		return false
	}
	remainder := new(big.Int).Sub(balance, transferAmount)
	return remainder.Sign() > 0 && remainder.Cmp(big.NewInt(DustThreshold)) < 0
}

// ProgramForMint returns the token program that owns a mint. Native SOL is
// treated as a classic SPL mint.
func ProgramForMint(ctx context.Context, rd chain.Reader, mint solana.PublicKey) (solana.PublicKey, error) {
	if mint.Equals(solana.MustPublicKeyFromBase58(types.SOLNativeMint)) {
		return solana.TokenProgramID, nil
	}
	owner, err := rd.AccountOwner(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("resolve mint owner: %w", err)
	}
	if owner.Equals(Token2022ProgramID) {
		return Token2022ProgramID, nil
	}
	return solana.TokenProgramID, nil
}

// ATAInstruction holds a derived associated token account address and, when
// the account does not yet exist, the instruction that creates it.
type ATAInstruction struct {
	Address     solana.PublicKey
	Instruction solana.Instruction
}

// EnsureATA derives the associated token account for owner/mint and returns
// a create instruction (payer-funded) if the account is missing.
func EnsureATA(ctx context.Context, rd chain.Reader, payer, owner, mint solana.PublicKey) (*ATAInstruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated token address: %w", err)
	}

	exists, err := rd.AccountExists(ctx, ata)
	if err != nil {
		return nil, fmt.Errorf("check token account: %w", err)
	}
	if exists {
		return &ATAInstruction{Address: ata}, nil
	}

	ix := associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
	return &ATAInstruction{Address: ata, Instruction: ix}, nil
}

// Balance returns the owner's balance for a mint in smallest units. Native
// SOL reads the lamport balance; a missing token account reads as zero.
func Balance(ctx context.Context, rd chain.Reader, owner, mint solana.PublicKey) (uint64, error) {
	if mint.Equals(solana.MustPublicKeyFromBase58(types.SOLNativeMint)) {
		return rd.Balance(ctx, owner)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("derive associated token address: %w", err)
	}
	return rd.TokenAccountBalance(ctx, ata)
}
