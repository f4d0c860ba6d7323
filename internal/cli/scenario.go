package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/xvault/internal/chain"
	"github.com/mesh-intelligence/xvault/internal/logging"
	"github.com/mesh-intelligence/xvault/internal/scenario"
)

type stageOutcome struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

func newScenarioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "End-to-end scenarios on a throwaway ledger",
	}
	var verbose bool
	run := &cobra.Command{
		Use:   "run",
		Short: "Run every vault stage on a fresh in-memory deployment",
		Long: `Run deploys the local profile on a fresh in-memory ledger with signers
owner, alice, bob and carol and drives the vault through minting, swapping,
governance, timelocks, pausing and migration, reconciling balances after
each stage. The stored ledger is not touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.out
			if flags.jsonMode {
				out = io.Discard
			}
			reg := prometheus.NewRegistry()
			s, err := scenario.New(cmd.Context(), scenario.Options{
				Logger:   logging.Module(a.log, "cli"),
				Out:      out,
				Registry: reg,
				Verbose:  verbose,
			})
			if err != nil {
				return err
			}
			res := s.Run(cmd.Context())
			if flags.jsonMode {
				outcomes := make([]stageOutcome, 0, len(res.Stages))
				for _, st := range res.Stages {
					o := stageOutcome{Name: st.Name, Passed: st.Passed(), Duration: st.Duration.String()}
					if st.Err != nil {
						o.Error = st.Err.Error()
					}
					outcomes = append(outcomes, o)
				}
				if err := a.emit(outcomes, nil); err != nil {
					return err
				}
			} else if res.Passed() {
				fmt.Fprintf(a.out, "%d stages passed\n", len(res.Stages))
			}
			if verbose && !flags.jsonMode {
				if err := printTxCounts(a.out, reg); err != nil {
					return err
				}
			}
			return res.Err()
		},
	}
	run.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the balance report after every stage")
	cmd.AddCommand(run)
	return cmd
}

// printTxCounts summarises xvault_transactions_total by status.
func printTxCounts(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "xvault_transactions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" {
					counts[lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	_, err = fmt.Fprintf(w, "transactions: %.0f succeeded, %.0f reverted\n",
		counts[chain.StatusSuccess], counts[chain.StatusReverted])
	return err
}
