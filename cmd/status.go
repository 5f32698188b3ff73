package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swapd/config"
	"swapd/pkg/chain"
	"swapd/pkg/provider"
	"swapd/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <provider> <order-id>",
	Short: "Check the status of a bridge order",
	Long: `Check a bridge order's status directly against its provider.

Examples:
  swapd status relay 0x1234...abcd
  swapd status debridge 0x1234...abcd --watch
  swapd status debridge 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(2),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	providerName := types.ProviderName(args[0])
	orderID := args[1]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if !providerName.Valid() {
		printError(fmt.Errorf("unknown provider %q (want relay or debridge)", args[0]))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	reader := chain.NewRPC(cfg.SolanaRPCURL)
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	registry := provider.NewRegistry(
		provider.NewRelay(cfg.RelayAPIURL, httpClient, reader),
		provider.NewDeBridge(cfg.DebridgeAPIURL, cfg.DebridgeStatsAPIURL, httpClient),
	)

	prov, err := registry.Get(providerName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus {
		watchOrderStatus(prov, orderID, jsonOutput)
	} else {
		checkOrderStatus(prov, orderID, jsonOutput)
	}
}

func checkOrderStatus(prov provider.BridgeProvider, orderID string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking order status..."
		s.Start()
	}

	status, err := prov.GetStatus(context.Background(), orderID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status, orderID)
	}
}

func watchOrderStatus(prov provider.BridgeProvider, orderID string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching order status (Order ID: %s)\n", color.CyanString(orderID))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayStatus(prov, orderID)

	// Then check periodically
	for range ticker.C {
		status, err := prov.GetStatus(context.Background(), orderID)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}
		displayStatus(status, orderID)
		if status.Status.Terminal() {
			printSuccess(fmt.Sprintf("Order reached terminal state: %s", status.Status))
			return
		}
	}
}

func checkAndDisplayStatus(prov provider.BridgeProvider, orderID string) {
	status, err := prov.GetStatus(context.Background(), orderID)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	displayStatus(status, orderID)
}

func displayStatus(status *types.StatusResult, orderID string) {
	var paint func(format string, a ...interface{}) string
	switch status.Status {
	case types.StatusCompleted:
		paint = color.GreenString
	case types.StatusFailed:
		paint = color.RedString
	case types.StatusRefunded:
		paint = color.YellowString
	default:
		paint = color.CyanString
	}

	fmt.Printf("[%s] %s: %s", time.Now().Format("15:04:05"), orderID, paint(string(status.Status)))
	if status.DestTxHash != "" {
		fmt.Printf("  dest tx: %s", status.DestTxHash)
	}
	fmt.Println()
}
