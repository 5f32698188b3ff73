package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"swapd/cmd"
)

func main() {
	// .env is optional; deployments normally set the environment directly.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
