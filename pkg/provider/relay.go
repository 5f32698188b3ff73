package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"

	"swapd/logger"
	"swapd/pkg/chain"
	"swapd/pkg/types"
)

// relayNativeSOL is Relay's placeholder address for native SOL.
const relayNativeSOL = "11111111111111111111111111111111"

var relayRequestIDPattern = regexp.MustCompile(`requestId=([^&]+)`)

// Relay is the Relay bridge integration. Relay returns raw instruction
// lists plus address lookup tables; the client assembles them into one
// transaction addressed to the requesting wallet.
type Relay struct {
	baseURL string
	http    *http.Client
	chain   chain.Reader
}

// NewRelay creates a Relay client.
func NewRelay(baseURL string, httpClient *http.Client, rd chain.Reader) *Relay {
	return &Relay{baseURL: baseURL, http: httpClient, chain: rd}
}

var _ BridgeProvider = (*Relay)(nil)

func (r *Relay) Name() types.ProviderName { return types.ProviderRelay }

type relayInstructionKey struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type relayInstruction struct {
	Keys      []relayInstructionKey `json:"keys"`
	ProgramID string                `json:"programId"`
	// Data is hex-encoded instruction data.
	Data string `json:"data"`
}

type relaySolanaData struct {
	Instructions                []relayInstruction `json:"instructions"`
	AddressLookupTableAddresses []string           `json:"addressLookupTableAddresses"`
}

type relayStep struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId"`
	Items     []struct {
		Status string          `json:"status"`
		Data   relaySolanaData `json:"data"`
		Check  struct {
			Endpoint string `json:"endpoint"`
			Method   string `json:"method"`
		} `json:"check"`
	} `json:"items"`
}

type relayQuoteResponse struct {
	Steps []relayStep `json:"steps"`
	Fees  struct {
		Relayer struct {
			Amount    string `json:"amount"`
			AmountUsd string `json:"amountUsd"`
		} `json:"relayer"`
	} `json:"fees"`
	Details struct {
		CurrencyOut struct {
			Amount        string `json:"amount"`
			MinimumAmount string `json:"minimumAmount"`
		} `json:"currencyOut"`
		TimeEstimate int `json:"timeEstimate"`
	} `json:"details"`
}

func toRelayCurrency(mint string) string {
	if mint == types.SOLNativeMint {
		return relayNativeSOL
	}
	return mint
}

func (r *Relay) GetQuote(ctx context.Context, req *types.QuoteRequest) (*types.Quote, error) {
	body := map[string]interface{}{
		"user":                req.UserWallet,
		"originChainId":       types.SolanaChainIDRelay,
		"destinationChainId":  req.DestChainID,
		"originCurrency":      toRelayCurrency(req.InputToken),
		"destinationCurrency": req.OutputToken,
		"recipient":           req.RecipientAddress,
		"amount":              req.InputAmount.String(),
		"tradeType":           "EXACT_INPUT",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &QuoteError{Provider: r.Name(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/quote", bytes.NewReader(payload))
	if err != nil {
		return nil, &QuoteError{Provider: r.Name(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(httpReq)
	if err != nil {
		return nil, &QuoteError{Provider: r.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QuoteError{Provider: r.Name(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &QuoteError{Provider: r.Name(), StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var data relayQuoteResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &QuoteError{Provider: r.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	estimatedOutput, ok := new(big.Int).SetString(data.Details.CurrencyOut.Amount, 10)
	if !ok {
		return nil, &QuoteError{Provider: r.Name(), Err: fmt.Errorf("bad output amount %q", data.Details.CurrencyOut.Amount)}
	}
	minOutput := estimatedOutput
	if data.Details.CurrencyOut.MinimumAmount != "" {
		if v, ok := new(big.Int).SetString(data.Details.CurrencyOut.MinimumAmount, 10); ok {
			minOutput = v
		}
	}

	relayerFee := big.NewInt(0)
	if data.Fees.Relayer.Amount != "" {
		if v, ok := new(big.Int).SetString(data.Fees.Relayer.Amount, 10); ok {
			relayerFee = v
		}
	}
	relayerFeeUsd, _ := strconv.ParseFloat(data.Fees.Relayer.AmountUsd, 64)

	timeEstimate := data.Details.TimeEstimate
	if timeEstimate == 0 {
		timeEstimate = 30
	}

	return &types.Quote{
		Provider:              r.Name(),
		InputAmount:           new(big.Int).Set(req.InputAmount),
		EstimatedOutputAmount: estimatedOutput,
		MinOutputAmount:       minOutput,
		ProviderFeeNative:     relayerFee,
		ProviderFeeUsd:        relayerFeeUsd,
		EstimatedTimeSeconds:  timeEstimate,
		ProviderData:          json.RawMessage(raw),
		ExpiresAt:             time.Now().Add(types.QuoteValidity),
	}, nil
}

// CreateTransaction assembles Relay's instruction list and address lookup
// tables into a single transaction paid by the requesting wallet. The order
// id comes from the requestId query parameter of the step's status-check
// URL; a time-based id is a logged, degenerate fallback.
func (r *Relay) CreateTransaction(ctx context.Context, quote *types.Quote) (*types.TransactionResult, error) {
	var data relayQuoteResponse
	if err := json.Unmarshal(quote.ProviderData, &data); err != nil {
		return nil, &ResponseShapeError{Provider: r.Name(), Reason: fmt.Sprintf("decode provider data: %v", err)}
	}

	var step *relayStep
	for i := range data.Steps {
		if data.Steps[i].Kind == "transaction" || data.Steps[i].Kind == "signature" {
			step = &data.Steps[i]
			break
		}
	}
	if step == nil || len(step.Items) == 0 {
		return nil, &ResponseShapeError{Provider: r.Name(), Reason: "no transaction step found in quote response"}
	}

	item := step.Items[0]
	if len(item.Data.Instructions) == 0 {
		return nil, &ResponseShapeError{Provider: r.Name(), Reason: "no instructions found in step item"}
	}

	orderID := ""
	if m := relayRequestIDPattern.FindStringSubmatch(item.Check.Endpoint); m != nil {
		orderID = m[1]
	} else if step.RequestID != "" {
		orderID = step.RequestID
	} else {
		orderID = fmt.Sprintf("relay-%d", time.Now().UnixMilli())
		logger.WithField("orderId", orderID).Warn("relay response had no request id, using time-based fallback")
	}

	instructions := make([]solana.Instruction, 0, len(item.Data.Instructions))
	var userKey solana.PublicKey
	for _, ix := range item.Data.Instructions {
		programID, err := solana.PublicKeyFromBase58(ix.ProgramID)
		if err != nil {
			return nil, &ResponseShapeError{Provider: r.Name(), Reason: fmt.Sprintf("bad program id %q", ix.ProgramID)}
		}
		ixData, err := hex.DecodeString(ix.Data)
		if err != nil {
			return nil, &ResponseShapeError{Provider: r.Name(), Reason: fmt.Sprintf("bad instruction data: %v", err)}
		}

		accounts := make(solana.AccountMetaSlice, 0, len(ix.Keys))
		for _, k := range ix.Keys {
			pubkey, err := solana.PublicKeyFromBase58(k.Pubkey)
			if err != nil {
				return nil, &ResponseShapeError{Provider: r.Name(), Reason: fmt.Sprintf("bad account key %q", k.Pubkey)}
			}
			if k.IsSigner && userKey.IsZero() {
				userKey = pubkey
			}
			accounts = append(accounts, &solana.AccountMeta{
				PublicKey:  pubkey,
				IsSigner:   k.IsSigner,
				IsWritable: k.IsWritable,
			})
		}

		instructions = append(instructions, solana.NewInstruction(programID, accounts, ixData))
	}

	if userKey.IsZero() {
		return nil, &ResponseShapeError{Provider: r.Name(), Reason: "could not determine user key from instructions"}
	}

	tables := make(map[solana.PublicKey]solana.PublicKeySlice)
	for _, addr := range item.Data.AddressLookupTableAddresses {
		tableKey, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, &ResponseShapeError{Provider: r.Name(), Reason: fmt.Sprintf("bad lookup table address %q", addr)}
		}
		tableData, err := r.chain.AccountData(ctx, tableKey)
		if err != nil {
			return nil, fmt.Errorf("fetch lookup table %s: %w", addr, err)
		}
		state, err := addresslookuptable.DecodeAddressLookupTableState(tableData)
		if err != nil {
			return nil, fmt.Errorf("decode lookup table %s: %w", addr, err)
		}
		tables[tableKey] = state.Addresses
	}

	blockhash, err := r.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(userKey),
		solana.TransactionAddressTables(tables),
	)
	if err != nil {
		return nil, fmt.Errorf("build relay transaction: %w", err)
	}

	bin, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize relay transaction: %w", err)
	}

	return &types.TransactionResult{
		SerializedTransaction: base64.StdEncoding.EncodeToString(bin),
		Encoding:              types.EncodingBase64,
		OrderID:               orderID,
	}, nil
}

// GetStatus polls Relay's intent-status endpoint. Any transport or HTTP
// failure reads as bridging.
func (r *Relay) GetStatus(ctx context.Context, orderID string) (*types.StatusResult, error) {
	url := fmt.Sprintf("%s/intents/status/v2?requestId=%s", r.baseURL, orderID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}

	resp, err := r.http.Do(httpReq)
	if err != nil {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}

	var data struct {
		Status            string `json:"status"`
		TxHash            string `json:"txHash"`
		DestinationTxHash string `json:"destinationTxHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}

	destTxHash := data.TxHash
	if destTxHash == "" {
		destTxHash = data.DestinationTxHash
	}

	return &types.StatusResult{
		Status:     mapRelayStatus(data.Status),
		DestTxHash: destTxHash,
	}, nil
}
