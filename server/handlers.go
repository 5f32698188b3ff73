package server

import (
	"encoding/base64"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"swapd/logger"
	"swapd/pkg/fee"
	"swapd/pkg/provider"
	"swapd/pkg/sponsor"
	"swapd/pkg/store"
	"swapd/pkg/swap"
	"swapd/pkg/types"
)

const historyLimit = 50

type quoteRequestBody struct {
	UserWallet       string `json:"userWallet"`
	InputToken       string `json:"inputToken"`
	InputAmount      string `json:"inputAmount"`
	DestChainID      int64  `json:"destChainId"`
	OutputToken      string `json:"outputToken"`
	RecipientAddress string `json:"recipientAddress"`
}

type feeComponentsBody struct {
	SolanaGas   string `json:"solanaGas"`
	SolanaRent  string `json:"solanaRent"`
	ProviderFee string `json:"providerFee"`
	Markup      string `json:"markup"`
	Buffer      string `json:"buffer"`
}

type feeBody struct {
	TotalFee     string            `json:"totalFee"`
	FeeToken     types.FeeToken    `json:"feeToken"`
	FeeMint      string            `json:"feeMint"`
	Components   feeComponentsBody `json:"components"`
	SolPriceUsdc float64           `json:"solPriceUsdc"`
}

type quoteBody struct {
	Provider             types.ProviderName `json:"provider"`
	EstimatedOutput      string             `json:"estimatedOutput"`
	MinOutput            string             `json:"minOutput"`
	EstimatedTimeSeconds int                `json:"estimatedTimeSeconds"`
	ProviderFeeNative    string             `json:"providerFeeNative"`
	Fee                  feeBody            `json:"fee"`
	IsBest               bool               `json:"isBest"`
	ProviderData         string             `json:"providerData"`
	ExpiresAt            int64              `json:"expiresAt"`
}

// Quote fans the request out to every provider and prices each quote's fee.
func (h *Handler) Quote(c *gin.Context) {
	var body quoteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if msg := validateQuoteRequest(&body); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	amount, ok := new(big.Int).SetString(body.InputAmount, 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inputAmount must be a positive integer"})
		return
	}

	req := &types.QuoteRequest{
		InputToken:       body.InputToken,
		InputAmount:      amount,
		DestChainID:      body.DestChainID,
		OutputToken:      body.OutputToken,
		UserWallet:       body.UserWallet,
		RecipientAddress: body.RecipientAddress,
	}

	comparison, err := h.registry.ComparisonQuotes(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, provider.ErrNoQuotes) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "no provider could quote this swap"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch quotes"})
		return
	}

	quotes := make([]quoteBody, 0, len(comparison.Quotes))
	for _, q := range comparison.Quotes {
		breakdown, err := h.calc.Calculate(c.Request.Context(), q, body.UserWallet, amount)
		if err != nil {
			logger.WithFields(logger.Fields{
				"provider": q.Provider,
				"error":    err.Error(),
			}).Error("fee calculation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to calculate fee"})
			return
		}
		quotes = append(quotes, quoteBody{
			Provider:             q.Provider,
			EstimatedOutput:      q.EstimatedOutputAmount.String(),
			MinOutput:            q.MinOutputAmount.String(),
			EstimatedTimeSeconds: q.EstimatedTimeSeconds,
			ProviderFeeNative:    q.ProviderFeeNative.String(),
			Fee:                  feeToBody(breakdown),
			IsBest:               q == comparison.Best,
			ProviderData:         base64.StdEncoding.EncodeToString(q.ProviderData),
			ExpiresAt:            q.ExpiresAt.UnixMilli(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// Swap accepts a selected quote and returns the two transaction legs.
func (h *Handler) Swap(c *gin.Context) {
	var req swap.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if msg := validateSwapRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	result, err := h.executor.Execute(c.Request.Context(), &req)
	if err != nil {
		var insufficient *sponsor.InsufficientBalanceError
		switch {
		case errors.Is(err, swap.ErrFeeDrift):
			c.JSON(http.StatusConflict, gin.H{"error": swap.ErrFeeDrift.Error()})
		case errors.As(err, &insufficient):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sponsor temporarily unable to cover this swap"})
		default:
			logger.WithField("error", err.Error()).Error("swap execution failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build swap transactions"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// SwapStatus returns the current lifecycle state of one swap.
func (h *Handler) SwapStatus(c *gin.Context) {
	id := c.Param("id")
	result, err := h.poller.Poll(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "swap not found"})
			return
		}
		logger.WithFields(logger.Fields{
			"swapId": id,
			"error":  err.Error(),
		}).Error("status poll failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch swap status"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// History lists a wallet's recent swaps, newest first.
func (h *Handler) History(c *gin.Context) {
	wallet := strings.TrimSpace(c.Query("wallet"))
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet query parameter is required"})
		return
	}

	records, err := h.store.ByWallet(c.Request.Context(), wallet, historyLimit)
	if err != nil {
		logger.WithFields(logger.Fields{
			"wallet": wallet,
			"error":  err.Error(),
		}).Error("history lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch swap history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"swaps": records})
}

func validateQuoteRequest(body *quoteRequestBody) string {
	switch {
	case body.UserWallet == "":
		return "userWallet is required"
	case body.InputToken == "":
		return "inputToken is required"
	case body.InputAmount == "":
		return "inputAmount is required"
	case body.OutputToken == "":
		return "outputToken is required"
	case body.RecipientAddress == "":
		return "recipientAddress is required"
	}
	if !types.SupportedDestChain(body.DestChainID) {
		return "unsupported destination chain"
	}
	if !common.IsHexAddress(body.OutputToken) {
		return "outputToken must be a valid EVM address"
	}
	if !common.IsHexAddress(body.RecipientAddress) {
		return "recipientAddress must be a valid EVM address"
	}
	return ""
}

func validateSwapRequest(req *swap.Request) string {
	switch {
	case req.UserWallet == "":
		return "userWallet is required"
	case req.InputToken == "":
		return "inputToken is required"
	case req.InputAmount == "":
		return "inputAmount is required"
	case req.OutputToken == "":
		return "outputToken is required"
	case req.RecipientAddress == "":
		return "recipientAddress is required"
	case req.ProviderData == "":
		return "providerData is required"
	case req.QuotedFee == "":
		return "quotedFee is required"
	}
	if !req.SelectedProvider.Valid() {
		return "selectedProvider must be relay or debridge"
	}
	if !types.SupportedDestChain(req.DestChainID) {
		return "unsupported destination chain"
	}
	if !common.IsHexAddress(req.RecipientAddress) {
		return "recipientAddress must be a valid EVM address"
	}
	if req.FeeToken != types.FeeTokenSOL && req.FeeToken != types.FeeTokenUSDC {
		return "feeToken must be SOL or USDC"
	}
	if req.InputTokenSymbol == "" {
		req.InputTokenSymbol = "UNKNOWN"
	}
	if req.OutputTokenSymbol == "" {
		req.OutputTokenSymbol = "UNKNOWN"
	}
	return ""
}

func feeToBody(b *fee.Breakdown) feeBody {
	return feeBody{
		TotalFee: b.TotalFee.String(),
		FeeToken: b.FeeToken,
		FeeMint:  b.FeeMint,
		Components: feeComponentsBody{
			SolanaGas:   b.Components.SolanaGas.String(),
			SolanaRent:  b.Components.SolanaRent.String(),
			ProviderFee: b.Components.ProviderFee.String(),
			Markup:      b.Components.Markup.String(),
			Buffer:      b.Components.FixedBuffer.String(),
		},
		SolPriceUsdc: b.SolPriceUsdc,
	}
}
