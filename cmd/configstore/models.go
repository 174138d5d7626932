package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:     "models",
	Short:   "List the models the service can resolve",
	GroupID: "lookup",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := configClient.Models(context.Background())
		if err != nil {
			return fmt.Errorf("listing models: %w", err)
		}
		if jsonOutput {
			return printJSON(models)
		}
		printModelsTable(os.Stdout, models)
		return nil
	},
}
