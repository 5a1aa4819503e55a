package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/noah-isme/account-console/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "console serves the account administration console",
	Long: "console serves the account administration console: a two-step login, " +
		"a filterable user listing and the user forms, all backed by the remote account API",
	SilenceUsage: true,
	RunE:         serveRunE,
}

var envFile string

func main() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", config.DefaultEnvFile, "the dotenv file to read")
	rootCmd.AddCommand(serveCmd, pingCmd, cacheCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
