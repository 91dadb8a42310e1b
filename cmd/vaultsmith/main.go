package main

import (
	"context"
	"os"

	"github.com/vaultsmith-org/vaultsmith/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
