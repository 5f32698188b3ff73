package cmd

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"swapd/config"
	"swapd/logger"
	"swapd/pkg/chain"
	"swapd/pkg/fee"
	"swapd/pkg/provider"
	"swapd/pkg/sponsor"
	"swapd/pkg/store"
	"swapd/pkg/swap"
	"swapd/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the swap service HTTP server",
	Long: `Start the HTTP server that quotes, executes, and tracks sponsored swaps.

The server needs a funded sponsor wallet and a Postgres database:
  SWAPD_SPONSOR_PRIVATE_KEY  base58 64-byte keypair
  SWAPD_DATABASE_URL         postgres connection string`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	reader := chain.NewRPC(cfg.SolanaRPCURL)

	sp, err := sponsor.New(cfg.SponsorPrivateKey, reader)
	if err != nil {
		printError(err)
		os.Exit(1)
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

	st, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer st.Close()

	executor := swap.NewExecutor(st, registry, calc, reader, sp)
	poller := swap.NewPoller(st, registry)

	handler := server.NewHandler(registry, calc, executor, poller, st)
	router := server.NewRouter(handler)

	logger.WithFields(logger.Fields{
		"port":    cfg.Port,
		"sponsor": sp.PublicKey().String(),
	}).Info("starting swap service")

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithField("error", err.Error()).Error("server stopped")
		os.Exit(1)
	}
}
