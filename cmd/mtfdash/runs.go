package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/mtfdash/internal/client"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/newthinker/mtfdash/internal/logger"
	"github.com/newthinker/mtfdash/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// kpiFetchConcurrency bounds parallel KPI requests of the runs command.
const kpiFetchConcurrency = 4

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the latest simulation runs",
	Long:  "Fetch the latest runs from the results backend and print their readiness status and failing KPIs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 0, "number of runs (default: backend.run_limit)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	limit := cfg.Backend.RunLimit
	if runsLimit > 0 {
		limit = runsLimit
	}

	c := client.New(cfg.Backend.BaseURL,
		client.WithTimeout(cfg.Backend.Timeout),
		client.WithToken(cfg.Backend.Token),
	)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return printRuns(ctx, cmd.OutOrStdout(), c, limit)
}

// runsBackend is the part of the results API the runs command reads.
type runsBackend interface {
	GetLatestRuns(ctx context.Context, limit int) ([]core.Run, error)
	GetRunKPIs(ctx context.Context, runID string) (*core.KPISet, error)
}

func printRuns(ctx context.Context, out io.Writer, backend runsBackend, limit int) error {
	runs, err := backend.GetLatestRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetching runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No simulation runs found")
		return nil
	}

	kpis := make([]*core.KPISet, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(kpiFetchConcurrency)
	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			k, err := backend.GetRunKPIs(gctx, run.RunID)
			if err != nil {
				return fmt.Errorf("fetching KPIs of %s: %w", run.RunID, err)
			}
			kpis[i] = k
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tDATE\tGLRS\tSTATUS\tTRADES\tWIN RATE\tFAILING KPIS")
	for i, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%s\t%d\t%.1f%%\t%s\n",
			run.RunID,
			run.Date(),
			run.GLRS,
			view.GLRSStatus(run.GLRS).Text,
			run.TotalTrades,
			run.WinRate*100,
			failingKPIs(kpis[i]),
		)
	}
	return tw.Flush()
}

func failingKPIs(k *core.KPISet) string {
	if k == nil {
		return "n/a"
	}
	var failing []string
	for _, b := range view.EvaluateKPIs(*k) {
		if !b.Passing {
			failing = append(failing, b.Label)
		}
	}
	if len(failing) == 0 {
		return "-"
	}
	return strings.Join(failing, ", ")
}
