package main

import (
	"fmt"
	"os"

	"github.com/dang-hang/fleet-wise-aide/internal/cli"
	"github.com/dang-hang/fleet-wise-aide/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleetwised",
		Short: "Fleetwise daemon and admin CLI",
		Long:  "Fleetwise daemon for running the API server and managing API keys",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.APIKeyCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
