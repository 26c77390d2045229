package main

import (
	"fmt"
	"os"

	"github.com/dang-hang/fleet-wise-aide/internal/cli"
	"github.com/dang-hang/fleet-wise-aide/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleetwise",
		Short: "Fleetwise CLI - manual-grounded answers for vehicle maintenance",
		Long: `Fleetwise CLI uploads vehicle manuals and asks questions against them.

Environment variables:
  FLEETWISE_API_KEY   API key for authentication (required)
  FLEETWISE_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ReferencesCmd())
	rootCmd.AddCommand(client.DeleteCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
