package swap

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"

	"swapd/pkg/fee"
	"swapd/pkg/provider"
	"swapd/pkg/sponsor"
	"swapd/pkg/store"
	"swapd/pkg/types"
)

type fakeReader struct {
	lamports      map[string]uint64
	tokenBalances map[string]uint64
	existing      map[string]bool
}

func (f *fakeReader) Balance(_ context.Context, addr solana.PublicKey) (uint64, error) {
	return f.lamports[addr.String()], nil
}

func (f *fakeReader) AccountExists(_ context.Context, addr solana.PublicKey) (bool, error) {
	return f.existing[addr.String()], nil
}

func (f *fakeReader) AccountOwner(context.Context, solana.PublicKey) (solana.PublicKey, error) {
	return solana.TokenProgramID, nil
}

func (f *fakeReader) AccountData(context.Context, solana.PublicKey) ([]byte, error) {
	return nil, errors.New("no account data")
}

func (f *fakeReader) TokenAccountBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	return f.tokenBalances[account.String()], nil
}

func (f *fakeReader) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.HashFromBytes(make([]byte, 32)), nil
}

type scriptedProvider struct {
	name     types.ProviderName
	txResult *types.TransactionResult
	txErr    error
	status   *types.StatusResult
	calls    int
}

func (p *scriptedProvider) Name() types.ProviderName { return p.name }

func (p *scriptedProvider) GetQuote(context.Context, *types.QuoteRequest) (*types.Quote, error) {
	return nil, errors.New("not scripted")
}

func (p *scriptedProvider) CreateTransaction(context.Context, *types.Quote) (*types.TransactionResult, error) {
	return p.txResult, p.txErr
}

func (p *scriptedProvider) GetStatus(context.Context, string) (*types.StatusResult, error) {
	p.calls++
	if p.status == nil {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}
	return p.status, nil
}

type executorFixture struct {
	executor *Executor
	store    *store.MemoryStore
	provider *scriptedProvider
	reader   *fakeReader
	wallet   *solana.Wallet
}

// bridgeTxHex builds a real serialized transaction the way a provider
// would return one.
func bridgeTxHex(t *testing.T, payer solana.PublicKey) string {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer, payer).Build(),
		},
		solana.HashFromBytes(make([]byte, 32)),
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return "0x" + hex.EncodeToString(raw)
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()

	sponsorWallet := solana.NewWallet()
	userWallet := solana.NewWallet()

	sponsorATA, _, err := solana.FindAssociatedTokenAddress(
		sponsorWallet.PublicKey(),
		solana.MustPublicKeyFromBase58(types.USDCMintMainnet),
	)
	require.NoError(t, err)

	rd := &fakeReader{
		lamports: map[string]uint64{
			// Plenty for the 2x solvency margin.
			sponsorWallet.PublicKey().String(): 10_000_000_000,
		},
		tokenBalances: map[string]uint64{},
		existing:      map[string]bool{sponsorATA.String(): true},
	}

	sp, err := sponsor.New(sponsorWallet.PrivateKey.String(), rd)
	require.NoError(t, err)

	calc, err := fee.NewCalculator(rd, staticPrice(200), sp.PublicKey(), types.USDCMintMainnet, 50, 10_000_000)
	require.NoError(t, err)

	prov := &scriptedProvider{
		name: types.ProviderDeBridge,
		txResult: &types.TransactionResult{
			SerializedTransaction: bridgeTxHex(t, userWallet.PublicKey()),
			Encoding:              types.EncodingHex,
			OrderID:               "0xorder42",
		},
	}

	st := store.NewMemoryStore()
	registry := provider.NewRegistry(prov)

	return &executorFixture{
		executor: NewExecutor(st, registry, calc, rd, sp),
		store:    st,
		provider: prov,
		reader:   rd,
		wallet:   userWallet,
	}
}

type staticPrice float64

func (p staticPrice) SolPriceUsdc(context.Context) (float64, error) { return float64(p), nil }

func (f *executorFixture) request(quotedFee string) *Request {
	return &Request{
		UserWallet:        f.wallet.PublicKey().String(),
		InputToken:        types.SOLNativeMint,
		InputTokenSymbol:  "SOL",
		InputAmount:       "1000000000",
		DestChainID:       8453,
		OutputToken:       "0x0000000000000000000000000000000000000000",
		OutputTokenSymbol: "ETH",
		RecipientAddress:  "0x1111111111111111111111111111111111111111",
		SelectedProvider:  types.ProviderDeBridge,
		ProviderData:      base64.StdEncoding.EncodeToString(json.RawMessage(`{"tx":{"data":"unused"}}`)),
		QuotedFee:         quotedFee,
		FeeToken:          types.FeeTokenSOL,
	}
}

// Recomputed SOL fee for the fixture: gas 110_000, no rent, no provider
// fee in the rebuilt quote shell, buffer 10_000_000, 50 bps markup on 1 SOL.
const fixtureFeeLamports = 110_000 + 10_000_000 + 5_000_000

func TestExecuteBuildsBothLegs(t *testing.T) {
	f := newExecutorFixture(t)

	result, err := f.executor.Execute(context.Background(), f.request(fmt.Sprint(fixtureFeeLamports)))
	require.NoError(t, err)

	require.NotEmpty(t, result.SwapID)
	require.Equal(t, "0xorder42", result.BridgeOrderID)
	require.Equal(t, types.StatusFeePaid, result.Status)

	// Both legs come back base64-encoded.
	_, err = base64.StdEncoding.DecodeString(result.FeePaymentTx)
	require.NoError(t, err)
	_, err = base64.StdEncoding.DecodeString(result.BridgeTx)
	require.NoError(t, err)

	rec, err := f.store.Get(context.Background(), result.SwapID)
	require.NoError(t, err)
	require.Equal(t, "0xorder42", rec.BridgeOrderID)
	require.Equal(t, types.StatusFeePaid, rec.Status)
}

func TestExecuteRejectsFeeDrift(t *testing.T) {
	f := newExecutorFixture(t)

	// Approved fee far below the recomputed fee: over the 10% tolerance.
	_, err := f.executor.Execute(context.Background(), f.request("10000000"))
	require.ErrorIs(t, err, ErrFeeDrift)

	// Nothing was persisted.
	swaps, err := f.store.ByWallet(context.Background(), f.wallet.PublicKey().String(), 10)
	require.NoError(t, err)
	require.Empty(t, swaps)
}

func TestExecuteToleratesSmallDrift(t *testing.T) {
	f := newExecutorFixture(t)

	// Quoted slightly under the recomputed fee but within 10%.
	quoted := fixtureFeeLamports * 100 / 105
	_, err := f.executor.Execute(context.Background(), f.request(fmt.Sprint(quoted)))
	require.NoError(t, err)
}

func TestExecuteRejectsInsolventSponsor(t *testing.T) {
	f := newExecutorFixture(t)
	for k := range f.reader.lamports {
		f.reader.lamports[k] = 1000
	}

	_, err := f.executor.Execute(context.Background(), f.request(fmt.Sprint(fixtureFeeLamports)))

	var insufficient *sponsor.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
}

func TestExecuteMarksRecordFailedOnLegFailure(t *testing.T) {
	f := newExecutorFixture(t)
	f.provider.txResult = nil
	f.provider.txErr = errors.New("provider rejected the payload")

	_, err := f.executor.Execute(context.Background(), f.request(fmt.Sprint(fixtureFeeLamports)))
	require.Error(t, err)

	swaps, err := f.store.ByWallet(context.Background(), f.wallet.PublicKey().String(), 10)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	require.Equal(t, types.StatusFailed, swaps[0].Status)
	require.NotEmpty(t, swaps[0].ErrorMessage)
}

func TestExecuteRejectsUnknownProvider(t *testing.T) {
	f := newExecutorFixture(t)

	req := f.request(fmt.Sprint(fixtureFeeLamports))
	req.SelectedProvider = types.ProviderRelay

	_, err := f.executor.Execute(context.Background(), req)
	require.Error(t, err)
}

func TestExecuteRejectsBadAmounts(t *testing.T) {
	f := newExecutorFixture(t)

	req := f.request(fmt.Sprint(fixtureFeeLamports))
	req.InputAmount = "-5"
	_, err := f.executor.Execute(context.Background(), req)
	require.Error(t, err)

	req = f.request("0")
	_, err = f.executor.Execute(context.Background(), req)
	require.Error(t, err)
}
