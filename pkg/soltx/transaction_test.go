package soltx

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"

	"swapd/pkg/types"
)

type stubReader struct {
	existing map[string]bool
}

func (s *stubReader) Balance(context.Context, solana.PublicKey) (uint64, error) { return 0, nil }
func (s *stubReader) AccountExists(_ context.Context, addr solana.PublicKey) (bool, error) {
	return s.existing[addr.String()], nil
}
func (s *stubReader) AccountOwner(context.Context, solana.PublicKey) (solana.PublicKey, error) {
	return solana.TokenProgramID, nil
}
func (s *stubReader) AccountData(context.Context, solana.PublicKey) ([]byte, error) {
	return nil, nil
}
func (s *stubReader) TokenAccountBalance(context.Context, solana.PublicKey) (uint64, error) {
	return 0, nil
}
func (s *stubReader) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.HashFromBytes(make([]byte, 32)), nil
}

func TestBuildFeePaymentSOL(t *testing.T) {
	user := solana.NewWallet()
	sponsorWallet := solana.NewWallet()

	tx, err := BuildFeePayment(context.Background(), &stubReader{}, FeePaymentParams{
		UserWallet:      user.PublicKey(),
		Sponsor:         sponsorWallet.PublicKey(),
		FeeAmount:       15_110_000,
		FeeToken:        types.FeeTokenSOL,
		FeeMint:         solana.MustPublicKeyFromBase58(types.SOLNativeMint),
		FeeMintDecimals: 9,
	})
	require.NoError(t, err)

	// Compute budget instruction plus the native transfer.
	require.Len(t, tx.Message.Instructions, 2)
	// The sponsor pays the gas.
	require.Equal(t, sponsorWallet.PublicKey(), tx.Message.AccountKeys[0])
}

func TestBuildFeePaymentUSDCCreatesSponsorATA(t *testing.T) {
	user := solana.NewWallet()
	sponsorWallet := solana.NewWallet()
	usdc := solana.MustPublicKeyFromBase58(types.USDCMintMainnet)

	// Sponsor ATA absent: expect compute budget, create-account, transfer.
	tx, err := BuildFeePayment(context.Background(), &stubReader{existing: map[string]bool{}}, FeePaymentParams{
		UserWallet:      user.PublicKey(),
		Sponsor:         sponsorWallet.PublicKey(),
		FeeAmount:       6_022_000,
		FeeToken:        types.FeeTokenUSDC,
		FeeMint:         usdc,
		FeeMintDecimals: 6,
	})
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 3)

	// Sponsor ATA present: the create instruction is skipped.
	sponsorATA, _, err := solana.FindAssociatedTokenAddress(sponsorWallet.PublicKey(), usdc)
	require.NoError(t, err)
	tx, err = BuildFeePayment(context.Background(), &stubReader{existing: map[string]bool{sponsorATA.String(): true}}, FeePaymentParams{
		UserWallet:      user.PublicKey(),
		Sponsor:         sponsorWallet.PublicKey(),
		FeeAmount:       6_022_000,
		FeeToken:        types.FeeTokenUSDC,
		FeeMint:         usdc,
		FeeMintDecimals: 6,
	})
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 2)
}

func TestPartialSignLeavesUserSignatureOpen(t *testing.T) {
	user := solana.NewWallet()
	sponsorWallet := solana.NewWallet()

	tx, err := BuildFeePayment(context.Background(), &stubReader{}, FeePaymentParams{
		UserWallet:      user.PublicKey(),
		Sponsor:         sponsorWallet.PublicKey(),
		FeeAmount:       1,
		FeeToken:        types.FeeTokenSOL,
		FeeMint:         solana.MustPublicKeyFromBase58(types.SOLNativeMint),
		FeeMintDecimals: 9,
	})
	require.NoError(t, err)

	require.NoError(t, PartialSign(tx, sponsorWallet.PrivateKey))

	// Both the sponsor (payer) and the user (transfer source) must sign;
	// only the sponsor's slot is filled.
	require.Equal(t, uint8(2), tx.Message.Header.NumRequiredSignatures)

	var filled int
	for _, sig := range tx.Signatures {
		if !sig.IsZero() {
			filled++
		}
	}
	require.Equal(t, 1, filled)
}

func serializedTestTx(t *testing.T) []byte {
	t.Helper()
	payer := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, payer, payer).Build()},
		solana.HashFromBytes(make([]byte, 32)),
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestPrepareBridgeTx(t *testing.T) {
	raw := serializedTestTx(t)
	rd := &stubReader{}

	t.Run("hex with prefix", func(t *testing.T) {
		tx, err := PrepareBridgeTx(context.Background(), rd, "0x"+hex.EncodeToString(raw), types.EncodingHex)
		require.NoError(t, err)
		require.NotNil(t, tx)
	})

	t.Run("hex without prefix", func(t *testing.T) {
		tx, err := PrepareBridgeTx(context.Background(), rd, hex.EncodeToString(raw), types.EncodingHex)
		require.NoError(t, err)
		require.NotNil(t, tx)
	})

	t.Run("base64", func(t *testing.T) {
		tx, err := PrepareBridgeTx(context.Background(), rd, base64.StdEncoding.EncodeToString(raw), types.EncodingBase64)
		require.NoError(t, err)
		require.NotNil(t, tx)
	})

	t.Run("refreshes blockhash", func(t *testing.T) {
		tx, err := PrepareBridgeTx(context.Background(), rd, hex.EncodeToString(raw), types.EncodingHex)
		require.NoError(t, err)
		fresh, err := rd.LatestBlockhash(context.Background())
		require.NoError(t, err)
		require.Equal(t, fresh, tx.Message.RecentBlockhash)
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := PrepareBridgeTx(context.Background(), rd, "deadbeef", types.TxEncoding("protobuf"))
		require.Error(t, err)
	})

	t.Run("bad payload", func(t *testing.T) {
		_, err := PrepareBridgeTx(context.Background(), rd, "zz-not-hex", types.EncodingHex)
		require.Error(t, err)
	})
}

func TestEncodeBase64RoundTrip(t *testing.T) {
	raw := serializedTestTx(t)
	tx, err := PrepareBridgeTx(context.Background(), &stubReader{}, hex.EncodeToString(raw), types.EncodingHex)
	require.NoError(t, err)

	encoded, err := EncodeBase64(tx)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.NotEmpty(t, decoded)
}
