package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cecilia-mis/trends-cli/internal/enrich"
	"github.com/cecilia-mis/trends-cli/internal/scoring"
	"github.com/cecilia-mis/trends-cli/internal/store"
	"github.com/cecilia-mis/trends-cli/internal/trend"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a trends CSV on the four LEWD axes",
	Long: `Score keyword trend records against the weighted opportunity heuristic.

Each record gets four axis scores in [0,25] — volume scale (large),
growth scale (early), payer classification (who_pays), desperation
estimation (desperate) — and a weighted 0-100 total. The full scored set
is written next to the input as trends_scored_YYYYMMDD.csv; the top rows
are previewed on stdout.

Examples:
  # Score with built-in calibration
  trends-cli score --input out/trends_20260831.csv

  # Custom calibration plus pain-signal and buyer side tables
  trends-cli score --input trends.csv --config scoring.yaml \
    --pain pain.csv --buyers buyers.xlsx --top 20

  # Persist the scored run to the configured store
  trends-cli score --input trends.csv --save`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "path to trends CSV (required)")
	f.String("config", "", "optional scoring calibration YAML")
	f.String("pain", "", "optional pain-signal side table (CSV or XLSX)")
	f.String("buyers", "", "optional buyer side table (CSV or XLSX)")
	f.Int("top", 10, "preview top N rows")
	f.String("out-dir", "", "directory for the scored CSV (default: output.dir config)")
	f.String("format", "table", "preview format: table or csv")
	f.Bool("save", false, "persist the scored run to the store")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}

// scoreOptions carries everything one scoring run needs; collect's
// --autoscore path reuses it.
type scoreOptions struct {
	Input      string
	ConfigPath string
	PainPath   string
	BuyersPath string
	Top        int
	OutDir     string
	Format     string
	Save       bool
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := scoreOptions{Top: 10}
	opts.Input, _ = cmd.Flags().GetString("input")
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.PainPath, _ = cmd.Flags().GetString("pain")
	opts.BuyersPath, _ = cmd.Flags().GetString("buyers")
	opts.Top, _ = cmd.Flags().GetInt("top")
	opts.OutDir, _ = cmd.Flags().GetString("out-dir")
	opts.Format, _ = cmd.Flags().GetString("format")
	opts.Save, _ = cmd.Flags().GetBool("save")

	return scoreFile(ctx, opts)
}

// scoreFile runs the scoring workflow for a single trends CSV.
func scoreFile(ctx context.Context, opts scoreOptions) error {
	switch opts.Format {
	case "", "table", "csv":
	default:
		return eris.Errorf("score: unknown format %q, want table or csv", opts.Format)
	}

	scoringCfg, err := scoring.ResolveConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	batch, err := trend.LoadBatch(opts.Input)
	if err != nil {
		return err
	}
	pain, err := enrich.Load(opts.PainPath)
	if err != nil {
		return err
	}
	buyers, err := enrich.Load(opts.BuyersPath)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "score"))
	log.Info("scoring batch",
		zap.String("input", opts.Input),
		zap.Int("records", len(batch.Rows)),
		zap.Int("pain_entries", len(pain)),
		zap.Int("buyer_entries", len(buyers)),
	)

	engine := scoring.New(scoringCfg, pain, buyers)
	results, err := engine.ScoreBatch(ctx, batch)
	if err != nil {
		return eris.Wrap(err, "score: batch")
	}
	scored := scoring.ScoredBatch(batch, results)

	outDir := opts.OutDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	outPath := trend.ScoredOutputPath(opts.Input, outDir)
	if err := trend.WriteBatch(scored, outPath); err != nil {
		return err
	}

	ranked := scoring.Rank(results, opts.Top)
	if opts.Format == "csv" {
		if err := writePreviewCSV(os.Stdout, ranked); err != nil {
			return err
		}
	} else {
		writePreview(os.Stdout, ranked)
	}
	fmt.Printf("Saved scored trends to %s\n", outPath)

	if opts.Save {
		if err := saveRun(ctx, opts.Input, scoringCfg, scored); err != nil {
			return err
		}
	}
	return nil
}

func saveRun(ctx context.Context, source string, scoringCfg scoring.Config, scored *trend.Batch) error {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	run := &store.Run{
		ID:         uuid.New().String(),
		Source:     source,
		ConfigHash: scoring.ConfigHash(scoringCfg),
		Records:    len(scored.Rows),
		Rows:       scored.Rows,
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return err
	}
	fmt.Printf("Saved run %s to store\n", run.ID)
	return nil
}

// previewColumns are the columns shown in the ranked preview table.
var previewColumns = []string{
	"keyword",
	"large_0_25",
	"early_0_25",
	"who_pays_0_25",
	"desperate_0_25",
	"lewd_total_0_100",
}

// writePreview renders the ranked preview table.
func writePreview(w io.Writer, ranked []scoring.ScoreResult) {
	if len(ranked) == 0 {
		return
	}

	rows := make([][]string, len(ranked))
	for i, r := range ranked {
		rows[i] = []string{
			r.Row.String("keyword"),
			fmt.Sprintf("%.2f", r.Large),
			fmt.Sprintf("%.2f", r.Early),
			fmt.Sprintf("%.2f", r.WhoPays),
			fmt.Sprintf("%.2f", r.Desperate),
			fmt.Sprintf("%d", r.Total),
		}
	}

	widths := make([]int, len(previewColumns))
	for i, h := range previewColumns {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sep []string
	var header []string
	for i, h := range previewColumns {
		header = append(header, pad(h, widths[i]))
		sep = append(sep, strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(w, strings.Join(header, " | "))
	fmt.Fprintln(w, strings.Join(sep, "-+-"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = pad(cell, widths[i])
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// writePreviewCSV renders the ranked preview as CSV instead of a table.
func writePreviewCSV(w io.Writer, ranked []scoring.ScoreResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(previewColumns); err != nil {
		return eris.Wrap(err, "score: write preview header")
	}
	for _, r := range ranked {
		row := []string{
			r.Row.String("keyword"),
			fmt.Sprintf("%.2f", r.Large),
			fmt.Sprintf("%.2f", r.Early),
			fmt.Sprintf("%.2f", r.WhoPays),
			fmt.Sprintf("%.2f", r.Desperate),
			fmt.Sprintf("%d", r.Total),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write preview row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "score: flush preview")
}
