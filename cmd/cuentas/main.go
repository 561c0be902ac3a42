package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cuentas/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "cuentas",
	Short: "Household utility bills: water, electricity and internet",
	Long: `cuentas records the monthly water, electricity and internet bills of a
household, computes what is owed and serves the web UI. Configuration comes
from the environment (and .env for local development).`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		cli.LoadEnvFile()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
