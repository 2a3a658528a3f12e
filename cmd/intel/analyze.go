package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/docuvault/docintel/internal/async"
	"github.com/docuvault/docintel/internal/intel"
)

var (
	analyzeForce   bool
	analyzeQuick   bool
	analyzeBudget  int
	analyzeWorkers int
)

// batchOutcome is one line of batch output, in argument order.
type batchOutcome struct {
	Path   string                    `json:"path"`
	Result *intel.IntelligenceResult `json:"result,omitempty"`
	Error  string                    `json:"error,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path> [path...]",
	Short: "Produce an intelligence summary for one or more documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if analyzeQuick {
			cfg.Pipeline.Quick = true
		}
		if analyzeBudget > 0 {
			cfg.Pipeline.BudgetMs = analyzeBudget
		}
		logger := newLogger(cfg)

		engine, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			result, err := engine.GetIntelligence(cmd.Context(), args[0], analyzeForce)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		queue := async.NewAnalyzeQueue(engine, logger, async.WithWorkers(analyzeWorkers))
		outcomes := make([]batchOutcome, len(args))
		var wg sync.WaitGroup
		for i, path := range args {
			wg.Add(1)
			outcomes[i] = batchOutcome{Path: path}
			err := queue.Enqueue(cmd.Context(), async.Job{
				Path:  path,
				Force: analyzeForce,
				OnDone: func(res *intel.IntelligenceResult, err error) {
					defer wg.Done()
					if err != nil {
						outcomes[i].Error = err.Error()
						return
					}
					outcomes[i].Result = res
				},
			})
			if err != nil {
				wg.Done()
				outcomes[i].Error = err.Error()
			}
		}
		wg.Wait()
		queue.Shutdown(cmd.Context())

		out, err := json.MarshalIndent(outcomes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "bypass the result cache")
	analyzeCmd.Flags().BoolVar(&analyzeQuick, "quick", false, "skip structured extraction for bounded latency")
	analyzeCmd.Flags().IntVar(&analyzeBudget, "budget", 0, "overall budget in milliseconds")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 4, "concurrent analyses when several paths are given")
	rootCmd.AddCommand(analyzeCmd)
}
