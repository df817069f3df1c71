package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/tabscan/internal/output"
	"github.com/jackzampolin/tabscan/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the built-in provider catalog",
	Long: `List known providers with their default endpoint, suggested models, wire
dialect and the environment variable read for the API key. Providers without
image input are listed but rejected by recognition.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Print(providers.NewRegistry().List())
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
