package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"swapd/pkg/types"
)

// DeBridge is the deBridge DLN integration. Its quote endpoint already
// returns a fully serialized transaction, so CreateTransaction is a
// pass-through.
type DeBridge struct {
	baseURL      string
	statsBaseURL string
	http         *http.Client
}

// NewDeBridge creates a deBridge client. baseURL serves quotes, statsBaseURL
// serves order status.
func NewDeBridge(baseURL, statsBaseURL string, httpClient *http.Client) *DeBridge {
	return &DeBridge{baseURL: baseURL, statsBaseURL: statsBaseURL, http: httpClient}
}

var _ BridgeProvider = (*DeBridge)(nil)

func (d *DeBridge) Name() types.ProviderName { return types.ProviderDeBridge }

type debridgeCreateTxResponse struct {
	Estimation struct {
		DstChainTokenOut struct {
			Amount            string `json:"amount"`
			RecommendedAmount string `json:"recommendedAmount"`
			MinAmount         string `json:"minAmount"`
		} `json:"dstChainTokenOut"`
		CostsDetails []struct {
			Type     string `json:"type"`
			AmountIn string `json:"amountIn"`
		} `json:"costsDetails"`
	} `json:"estimation"`
	Tx struct {
		// Data is a hex-encoded serialized transaction, 0x-prefixed.
		Data string `json:"data"`
	} `json:"tx"`
	OrderID string `json:"orderId"`
}

func (d *DeBridge) GetQuote(ctx context.Context, req *types.QuoteRequest) (*types.Quote, error) {
	params := url.Values{}
	params.Set("srcChainId", fmt.Sprintf("%d", types.SolanaChainIDDeBridge))
	params.Set("srcChainTokenIn", req.InputToken)
	params.Set("srcChainTokenInAmount", req.InputAmount.String())
	params.Set("dstChainId", fmt.Sprintf("%d", req.DestChainID))
	params.Set("dstChainTokenOut", req.OutputToken)
	params.Set("dstChainTokenOutAmount", "auto")
	params.Set("dstChainTokenOutRecipient", req.RecipientAddress)
	params.Set("srcChainOrderAuthorityAddress", req.UserWallet)
	params.Set("dstChainOrderAuthorityAddress", req.RecipientAddress)
	params.Set("prependOperatingExpenses", "true")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"/dln/order/create-tx?"+params.Encode(), nil)
	if err != nil {
		return nil, &QuoteError{Provider: d.Name(), Err: err}
	}

	resp, err := d.http.Do(httpReq)
	if err != nil {
		return nil, &QuoteError{Provider: d.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QuoteError{Provider: d.Name(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &QuoteError{Provider: d.Name(), StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var data debridgeCreateTxResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &QuoteError{Provider: d.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	outStr := data.Estimation.DstChainTokenOut.RecommendedAmount
	if outStr == "" {
		outStr = data.Estimation.DstChainTokenOut.Amount
	}
	estimatedOutput, ok := new(big.Int).SetString(outStr, 10)
	if !ok {
		return nil, &QuoteError{Provider: d.Name(), Err: fmt.Errorf("bad output amount %q", outStr)}
	}
	minOutput := estimatedOutput
	if data.Estimation.DstChainTokenOut.MinAmount != "" {
		if v, ok := new(big.Int).SetString(data.Estimation.DstChainTokenOut.MinAmount, 10); ok {
			minOutput = v
		}
	}

	// Fixed per-order fee plus the protocol/operating-expense cost lines.
	providerFee := big.NewInt(types.DeBridgeFixedFeeLamports)
	for _, cost := range data.Estimation.CostsDetails {
		if cost.Type == "DlnProtocolFee" || cost.Type == "EstimatedOperatingExpenses" {
			if v, ok := new(big.Int).SetString(cost.AmountIn, 10); ok {
				providerFee.Add(providerFee, v)
			}
		}
	}

	return &types.Quote{
		Provider:              d.Name(),
		InputAmount:           new(big.Int).Set(req.InputAmount),
		EstimatedOutputAmount: estimatedOutput,
		MinOutputAmount:       minOutput,
		ProviderFeeNative:     providerFee,
		ProviderFeeUsd:        0, // not exposed in this response
		EstimatedTimeSeconds:  15,
		ProviderData:          json.RawMessage(raw),
		ExpiresAt:             time.Now().Add(types.QuoteValidity),
	}, nil
}

// CreateTransaction passes through deBridge's pre-serialized transaction and
// the order id embedded in the payload.
func (d *DeBridge) CreateTransaction(_ context.Context, quote *types.Quote) (*types.TransactionResult, error) {
	var data debridgeCreateTxResponse
	if err := json.Unmarshal(quote.ProviderData, &data); err != nil {
		return nil, &ResponseShapeError{Provider: d.Name(), Reason: fmt.Sprintf("decode provider data: %v", err)}
	}

	if data.Tx.Data == "" {
		return nil, &ResponseShapeError{Provider: d.Name(), Reason: "no transaction data in response"}
	}

	return &types.TransactionResult{
		SerializedTransaction: data.Tx.Data,
		Encoding:              types.EncodingHex,
		OrderID:               data.OrderID,
	}, nil
}

// GetStatus polls the deBridge stats API. Any transport or HTTP failure
// reads as bridging.
func (d *DeBridge) GetStatus(ctx context.Context, orderID string) (*types.StatusResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/Orders/%s", d.statsBaseURL, orderID), nil)
	if err != nil {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}

	resp, err := d.http.Do(httpReq)
	if err != nil {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}

	var data struct {
		Status                    string `json:"status"`
		FulfilledDstEventMetadata struct {
			TransactionHash string `json:"transactionHash"`
		} `json:"fulfilledDstEventMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return &types.StatusResult{Status: types.StatusBridging}, nil
	}

	return &types.StatusResult{
		Status:     mapDeBridgeStatus(data.Status),
		DestTxHash: data.FulfilledDstEventMetadata.TransactionHash,
	}, nil
}
