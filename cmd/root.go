package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swapd",
	Short: "Sponsored Solana to EVM swap service",
	Long: `swapd runs a sponsored cross-chain swap service: users swap Solana tokens
to EVM chains without holding SOL for gas. The sponsor wallet fronts every
network cost and collects the fee in SOL or USDC.

Examples:
  swapd serve
  swapd quote 1000000 --input-token So11111111111111111111111111111111111111112 --dest-chain 8453 --output-token 0x0000000000000000000000000000000000000000 --recipient 0x1234...abcd
  swapd status relay 0xabc...def --watch
  swapd sponsor`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
