package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"swapd/config"
	"swapd/pkg/chain"
	"swapd/pkg/sponsor"
	"swapd/pkg/token"
)

var sponsorCmd = &cobra.Command{
	Use:   "sponsor",
	Short: "Show the sponsor wallet address and balances",
	Long: `Display the sponsor wallet's public address together with its SOL and
USDC balances. Use this to fund the wallet before starting the server.`,
	Run: runSponsor,
}

func init() {
	rootCmd.AddCommand(sponsorCmd)
}

func runSponsor(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	ctx := context.Background()

	solBalance, err := sp.Balance(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	usdcMint, err := solana.PublicKeyFromBase58(cfg.USDCMint)
	if err != nil {
		printError(fmt.Errorf("invalid USDC mint configured: %w", err))
		os.Exit(1)
	}

	usdcBalance, err := token.Balance(ctx, reader, sp.PublicKey(), usdcMint)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"address":     sp.PublicKey().String(),
			"solLamports": solBalance,
			"usdcAmount":  usdcBalance,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\nSponsor wallet: %s\n\n", color.CyanString(sp.PublicKey().String()))
	fmt.Printf("  SOL:  %.9f (%d lamports)\n", float64(solBalance)/float64(solana.LAMPORTS_PER_SOL), solBalance)
	fmt.Printf("  USDC: %d (smallest units, mint %s)\n", usdcBalance, cfg.USDCMint)
	fmt.Println()
}
