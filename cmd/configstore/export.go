package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cssync "github.com/groblegark/configstore/internal/sync"
	"github.com/groblegark/configstore/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:               "export",
	Short:             "Write every stored record as JSONL",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, st, err := openBackend()
		if err != nil {
			return err
		}
		defer st.Close()

		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			return cssync.ExportJSONL(cmd.Context(), st, reg, os.Stdout)
		}

		// Export before creating the file so a store error leaves nothing behind.
		snap, err := cssync.Export(cmd.Context(), st, reg)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, snap.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "exported %d records from %d models to %s %s\n",
			snap.Records, snap.Models, path, ui.RenderMuted("("+snap.ShortDigest()+")"))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
