package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/groblegark/configstore/internal/contract"
	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/ui"
	"github.com/spf13/cobra"
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Run the lookup contract against a running service",
	Long: `Send every contract case to the service and compare each response with
the expected record or error.

With --seed the fixtures are inserted into the configured store before the
run and removed afterwards. Without it they must already be present.`,
	GroupID: "contract",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		seed, _ := cmd.Flags().GetBool("seed")
		verbose, _ := cmd.Flags().GetBool("verbose")

		var (
			reg  *model.Registry
			sess *contract.Session
		)
		if seed {
			cfg, r, st, err := openBackend()
			if err != nil {
				return err
			}
			defer st.Close()
			logger := newLogger(cfg.LogLevel)
			pub, err := newPublisher(cfg.NATSURL, logger)
			if err != nil {
				return err
			}
			defer pub.Close()

			fixtures, err := contract.DefaultFixtures(r)
			if err != nil {
				return err
			}
			sess, err = contract.Begin(ctx, st, fixtures, logger, contract.WithPublisher(pub))
			if err != nil {
				return fmt.Errorf("seeding fixtures: %w", err)
			}
			defer func() {
				if err := sess.End(ctx); err != nil {
					logger.Error("removing fixtures", "err", err)
				}
			}()
			reg = r
		} else {
			r, err := model.LoadRegistry(os.Getenv("CONFIGSTORE_MODELS_FILE"))
			if err != nil {
				return err
			}
			reg = r
		}

		fixtures, err := contract.DefaultFixtures(reg)
		if err != nil {
			return err
		}
		cases := contract.Cases(fixtures)

		results := contract.Run(ctx, configClient, cases)
		if jsonOutput {
			if err := printJSON(resultsJSON(results)); err != nil {
				return err
			}
		} else {
			printResults(os.Stdout, results, verbose)
		}

		if failed := contract.Failed(results); len(failed) > 0 {
			return fmt.Errorf("%d of %d contract cases failed", len(failed), len(results))
		}
		return nil
	},
}

func init() {
	contractCmd.Flags().Bool("seed", false, "seed the fixtures into the configured store for the run")
	contractCmd.Flags().BoolP("verbose", "v", false, "list passing cases too")
}

// printResults writes the case count, one line per reported case and a
// summary. Passing cases are listed only when verbose is set.
func printResults(w io.Writer, results []contract.Result, verbose bool) {
	fmt.Fprintf(w, "Count of tests: %d\n", len(results))
	passed := 0
	for _, r := range results {
		if r.Passed() {
			passed++
			if verbose {
				fmt.Fprintf(w, "%s %s\n", ui.RenderPass("PASS"), r.Case.Name)
			}
			continue
		}
		fmt.Fprintf(w, "%s %s\n", ui.RenderFail("FAIL"), r.Case.Name)
		fmt.Fprintf(w, "     %s\n", ui.RenderMuted(r.Err.Error()))
	}

	summary := fmt.Sprintf("%d passed, %d failed", passed, len(results)-passed)
	if passed == len(results) {
		fmt.Fprintln(w, ui.RenderPass(summary))
	} else {
		fmt.Fprintln(w, ui.RenderFail(summary))
	}
}

type resultJSON struct {
	Name   string `json:"name"`
	Group  string `json:"group"`
	Passed bool   `json:"passed"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

func resultsJSON(results []contract.Result) []resultJSON {
	out := make([]resultJSON, 0, len(results))
	for _, r := range results {
		rj := resultJSON{Name: r.Case.Name, Group: r.Case.Group, Passed: r.Passed()}
		if r.Response != nil {
			rj.Status = r.Response.StatusCode
		}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		out = append(out, rj)
	}
	return out
}
