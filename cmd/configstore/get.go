package main

import (
	"context"
	"fmt"
	"os"

	"github.com/groblegark/configstore/internal/model"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <type> <data>",
	Short: "Look up a configuration record",
	Long: `Look up the record stored under <data> for the model named <type>.

With --body the raw request body is sent as-is, which is useful for probing
malformed requests.`,
	GroupID: "lookup",
	Args: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("body") {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var body []byte
		if cmd.Flags().Changed("body") {
			raw, _ := cmd.Flags().GetString("body")
			body = []byte(raw)
		} else {
			body = model.NewLookupBody(args[0], args[1])
		}

		resp, err := configClient.GetConfig(context.Background(), body)
		if err != nil {
			return fmt.Errorf("looking up config: %w", err)
		}

		if jsonOutput {
			if err := printJSON(resp.Body); err != nil {
				return err
			}
		} else if resp.OK() {
			printRecordTable(os.Stdout, resp.Body)
		} else {
			fmt.Printf("Error: %s\n", resp.Error)
		}

		if !resp.OK() {
			return fmt.Errorf("lookup failed (%d): %s", resp.StatusCode, resp.Error)
		}
		return nil
	},
}

func init() {
	getCmd.Flags().String("body", "", "raw JSON request body")
}
