// Package soltx builds and normalizes the two Solana transaction legs of a
// sponsored swap.
package soltx

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	tokenprog "github.com/gagliardetto/solana-go/programs/token"

	"swapd/pkg/chain"
	"swapd/pkg/token"
	"swapd/pkg/types"
)

// FeePaymentParams describes the fee-payment leg: the user transfers the
// sponsor fee to the sponsor wallet, and the sponsor pays the gas.
type FeePaymentParams struct {
	UserWallet      solana.PublicKey
	Sponsor         solana.PublicKey
	FeeAmount       uint64
	FeeToken        types.FeeToken
	FeeMint         solana.PublicKey
	FeeMintDecimals uint8
}

// BuildFeePayment builds the fee-payment transaction with the sponsor as
// fee payer. The sponsor's receiving token account is created first when
// absent. The returned transaction is unsigned.
func BuildFeePayment(ctx context.Context, rd chain.Reader, p FeePaymentParams) (*solana.Transaction, error) {
	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitPriceInstruction(types.SolanaPriorityFeeEstimate).Build(),
	}

	if p.FeeToken == types.FeeTokenSOL {
		instructions = append(instructions,
			system.NewTransferInstruction(p.FeeAmount, p.UserWallet, p.Sponsor).Build())
	} else {
		userATA, _, err := solana.FindAssociatedTokenAddress(p.UserWallet, p.FeeMint)
		if err != nil {
			return nil, fmt.Errorf("derive user token account: %w", err)
		}

		// Sponsor pays to create its own receiving account if needed.
		sponsorATA, err := token.EnsureATA(ctx, rd, p.Sponsor, p.Sponsor, p.FeeMint)
		if err != nil {
			return nil, fmt.Errorf("prepare sponsor token account: %w", err)
		}
		if sponsorATA.Instruction != nil {
			instructions = append(instructions, sponsorATA.Instruction)
		}

		instructions = append(instructions, tokenprog.NewTransferCheckedInstruction(
			p.FeeAmount,
			p.FeeMintDecimals,
			userATA,
			p.FeeMint,
			sponsorATA.Address,
			p.UserWallet,
			[]solana.PublicKey{},
		).Build())
	}

	blockhash, err := rd.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(p.Sponsor),
	)
	if err != nil {
		return nil, fmt.Errorf("build fee payment transaction: %w", err)
	}
	return tx, nil
}

// PartialSign adds the given key's signature, leaving other required
// signatures (the user's) to be added outside this service.
func PartialSign(tx *solana.Transaction, key solana.PrivateKey) error {
	pub := key.PublicKey()
	_, err := tx.PartialSign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(pub) {
			return &key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}

// PrepareBridgeTx decodes a provider-serialized transaction (hex with an
// optional 0x prefix, or base64) and refreshes its recent blockhash.
func PrepareBridgeTx(ctx context.Context, rd chain.Reader, serialized string, encoding types.TxEncoding) (*solana.Transaction, error) {
	var raw []byte
	var err error

	switch encoding {
	case types.EncodingHex:
		raw, err = hex.DecodeString(strings.TrimPrefix(serialized, "0x"))
	case types.EncodingBase64:
		raw, err = base64.StdEncoding.DecodeString(serialized)
	default:
		return nil, fmt.Errorf("unsupported transaction encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s transaction: %w", encoding, err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("deserialize bridge transaction: %w", err)
	}

	blockhash, err := rd.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}
	tx.Message.RecentBlockhash = blockhash

	return tx, nil
}

// EncodeBase64 serializes a transaction to base64 for the wire.
func EncodeBase64(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
