package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/juscheck/internal/reconcile"
)

func newSweepCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile every tracked process once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			results, err := a.runner.ReconcileAll(cmd.Context())
			if err != nil {
				return err
			}
			sum := reconcile.Summarize(results)

			if flags.jsonOutput {
				return outputJSON(struct {
					Summary reconcile.Summary  `json:"summary"`
					Results []reconcile.Result `json:"results"`
				}{sum, results})
			}

			fmt.Println(resultsTable(results))
			fmt.Printf("%d processed, %d succeeded, %d failed\n", sum.Total, sum.Succeeded, sum.Failed)
			if sum.Failed > 0 {
				return codeError(2, "%d of %d reconciliations failed", sum.Failed, sum.Total)
			}
			return nil
		},
	}
}

func newCheckCmd(flags *globalFlags) *cobra.Command {
	var first bool

	cmd := &cobra.Command{
		Use:   "check <id>",
		Short: "Reconcile a single tracked process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return codeError(3, "invalid id %q", args[0])
			}

			a, err := newApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.service.Check(cmd.Context(), id, first)
			if flags.jsonOutput {
				if jerr := outputJSON(res); jerr != nil {
					return jerr
				}
			} else {
				fmt.Println(resultsTable([]reconcile.Result{res}))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&first, "first", false, "treat as a first check and send the welcome message")
	return cmd
}
