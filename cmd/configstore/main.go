package main

import (
	"fmt"
	"os"

	"github.com/groblegark/configstore/internal/client"
	"github.com/groblegark/configstore/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	authToken  string
	jsonOutput bool

	configClient client.ConfigClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("CONFIGSTORE_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8078"
}

func defaultServer() string {
	if s := os.Getenv("CONFIGSTORE_SERVER"); s != "" {
		return s
	}
	return "localhost:9078"
}

// newClient builds a client for the transport selected on the command line.
func newClient() (client.ConfigClient, error) {
	switch transport {
	case "http":
		return client.NewHTTPClient(httpURL, authToken), nil
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, authToken)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
	}
}

// noClient replaces the root PersistentPreRunE on commands that talk to the
// store or the broker directly.
func noClient(*cobra.Command, []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:          "configstore <command>",
	Short:        "Configuration lookup service and its contract suite",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		configClient = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if configClient != nil {
			configClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("CONFIGSTORE_AUTH_TOKEN"), "bearer token for the service")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "lookup", Title: "Lookups:"},
		&cobra.Group{ID: "contract", Title: "Contract:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Lookups
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(modelsCmd)

	// Contract
	rootCmd.AddCommand(contractCmd)
	rootCmd.AddCommand(fixturesCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
