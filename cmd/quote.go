package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swapd/config"
	"swapd/pkg/chain"
	"swapd/pkg/fee"
	"swapd/pkg/provider"
	"swapd/pkg/sponsor"
	"swapd/pkg/types"
)

var (
	quoteInputToken string
	quoteDestChain  int64
	quoteOutToken   string
	quoteRecipient  string
	quoteUserWallet string
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount>",
	Short: "Fetch and compare provider quotes",
	Long: `Fetch quotes from every bridge provider for a would-be swap and show the
fee each one implies. The amount is in the input token's smallest unit.

Examples:
  swapd quote 1000000000 --dest-chain 8453 --output-token 0x0000000000000000000000000000000000000000 --recipient 0x1234...abcd
  swapd quote 5000000 --input-token EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v --dest-chain 1 --output-token 0xA0b8...eB48 --recipient 0x1234...abcd --json`,
	Args: cobra.ExactArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteInputToken, "input-token", types.SOLNativeMint, "Input token mint on Solana")
	quoteCmd.Flags().Int64Var(&quoteDestChain, "dest-chain", 8453, "Destination EVM chain id")
	quoteCmd.Flags().StringVar(&quoteOutToken, "output-token", "", "Output token address on the destination chain (REQUIRED)")
	quoteCmd.Flags().StringVar(&quoteRecipient, "recipient", "", "EVM recipient address (REQUIRED)")
	quoteCmd.Flags().StringVar(&quoteUserWallet, "user-wallet", "", "Solana wallet to quote for (defaults to the sponsor)")
	quoteCmd.MarkFlagRequired("output-token")
	quoteCmd.MarkFlagRequired("recipient")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	amount, ok := new(big.Int).SetString(args[0], 10)
	if !ok || amount.Sign() <= 0 {
		printError(fmt.Errorf("amount must be a positive integer in the token's smallest unit"))
		os.Exit(1)
	}

	if !types.SupportedDestChain(quoteDestChain) {
		printError(fmt.Errorf("unsupported destination chain %d", quoteDestChain))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	reader := chain.NewRPC(cfg.SolanaRPCURL)

	sp, err := sponsor.New(cfg.SponsorPrivateKey, reader)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	userWallet := quoteUserWallet
	if userWallet == "" {
		userWallet = sp.PublicKey().String()
	}

	oracle := fee.NewJupiterOracle(cfg.PriceAPIURL, cfg.RequestTimeout)
	calc, err := fee.NewCalculator(reader, oracle, sp.PublicKey(), cfg.USDCMint, cfg.FeePercentageBps, cfg.FeeFixedBufferLamports)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	registry := provider.NewRegistry(
		provider.NewRelay(cfg.RelayAPIURL, httpClient, reader),
		provider.NewDeBridge(cfg.DebridgeAPIURL, cfg.DebridgeStatsAPIURL, httpClient),
	)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quotes..."
		s.Start()
	}

	ctx := context.Background()
	comparison, err := registry.ComparisonQuotes(ctx, &types.QuoteRequest{
		InputToken:       quoteInputToken,
		InputAmount:      amount,
		DestChainID:      quoteDestChain,
		OutputToken:      quoteOutToken,
		UserWallet:       userWallet,
		RecipientAddress: quoteRecipient,
	})
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(comparison.Quotes, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\nQuotes for %s -> %s (%s):\n\n", amount.String(), quoteOutToken, types.DestChainName(quoteDestChain))

	for _, q := range comparison.Quotes {
		marker := "  "
		if q == comparison.Best {
			marker = color.GreenString("* ")
		}
		fmt.Printf("%s%s\n", marker, color.CyanString(string(q.Provider)))
		fmt.Printf("    Estimated output: %s\n", q.EstimatedOutputAmount.String())
		fmt.Printf("    Minimum output:   %s\n", q.MinOutputAmount.String())
		fmt.Printf("    Estimated time:   %ds\n", q.EstimatedTimeSeconds)

		breakdown, err := calc.Calculate(ctx, q, userWallet, amount)
		if err != nil {
			color.Red("    Fee: unavailable (%v)", err)
			continue
		}
		fmt.Printf("    Sponsor fee:      %s %s\n", breakdown.TotalFee.String(), breakdown.FeeToken)
	}

	printSuccess(fmt.Sprintf("Best quote: %s", comparison.Best.Provider))
}
