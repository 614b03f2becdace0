package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cecilia-mis/trends-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted scoring runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted scoring runs",
	RunE:  runRunsList,
}

var runsGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Show one persisted scoring run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsGet,
}

func init() {
	runsListCmd.Flags().String("source", "", "filter by source input path")
	runsListCmd.Flags().Int("limit", 20, "max runs to list")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsGetCmd)
	rootCmd.AddCommand(runsCmd)
}

func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := st.ListRuns(ctx, store.RunFilter{Source: source, Limit: limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  records=%d  config=%s  source=%s\n",
			run.ID,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Records,
			run.ConfigHash,
			run.Source,
		)
	}
	return nil
}

func runRunsGet(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.GetRun(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Created: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Source:  %s\n", run.Source)
	fmt.Printf("  Config:  %s\n", run.ConfigHash)
	fmt.Printf("  Records: %d\n", run.Records)
	for _, rec := range run.Rows {
		fmt.Printf("    %-40s total=%s\n", rec.String("keyword"), rec.String("lewd_total_0_100"))
	}
	return nil
}
