package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cecilia-mis/trends-cli/internal/resilience"
	"github.com/cecilia-mis/trends-cli/internal/trend"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect interest-over-time series for a keyword set",
	Long: `Collect trend series for a set of keywords and write a dated
trends_YYYYMMDD.csv ready for scoring.

Keywords come from repeated --keywords flags, a --keywords-file (one per
line, # comments allowed), or both; duplicates are dropped
case-insensitively while preserving order. Alternatively --input reuses
an already collected trends CSV, re-writing it dated into the output
directory instead of fetching anything.

Examples:
  trends-cli collect --keywords "ai detector" --keywords "passport renewal"

  trends-cli collect --keywords-file keywords.txt --geo GB --days 30

  # Reuse a precomputed trends CSV and score it immediately
  trends-cli collect --input old/trends_20260801.csv --autoscore --top 20`,
	RunE: runCollect,
}

func init() {
	f := collectCmd.Flags()
	f.String("input", "", "precomputed trends CSV to reuse instead of collecting")
	f.StringSlice("keywords", nil, "keyword to collect (repeatable)")
	f.String("keywords-file", "", "file with one keyword per line")
	f.String("geo", "", "geography code (default: collect.geo config)")
	f.Int("days", 0, "lookback window in days (default: collect.days config)")
	f.String("output-dir", "", "directory for the collected CSV (default: output.dir config)")
	f.Bool("autoscore", false, "score the collected CSV immediately")
	f.String("config", "", "scoring calibration YAML for --autoscore")
	f.String("pain", "", "pain-signal side table for --autoscore")
	f.String("buyers", "", "buyer side table for --autoscore")
	f.Int("top", 10, "preview top N rows for --autoscore")
	f.String("format", "table", "preview format for --autoscore: table or csv")
	f.Bool("save", false, "persist the scored run for --autoscore")

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, _ []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	flagKeywords, _ := cmd.Flags().GetStringSlice("keywords")
	keywordsFile, _ := cmd.Flags().GetString("keywords-file")

	if inputPath != "" && (len(flagKeywords) > 0 || keywordsFile != "") {
		return eris.New("collect: --input cannot be combined with --keywords or --keywords-file")
	}
	if inputPath == "" && len(flagKeywords) == 0 && keywordsFile == "" {
		return eris.New("collect: provide --input, --keywords, or --keywords-file")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outDir, _ := cmd.Flags().GetString("output-dir")
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	var outPath string
	if inputPath != "" {
		p, err := reuseInput(inputPath, outDir)
		if err != nil {
			return err
		}
		outPath = p
	} else {
		p, err := collectToFile(ctx, cmd, flagKeywords, keywordsFile, outDir)
		if err != nil {
			return err
		}
		outPath = p
	}

	autoscore, _ := cmd.Flags().GetBool("autoscore")
	if !autoscore {
		return nil
	}

	opts := scoreOptions{Input: outPath, OutDir: outDir}
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.PainPath, _ = cmd.Flags().GetString("pain")
	opts.BuyersPath, _ = cmd.Flags().GetString("buyers")
	opts.Top, _ = cmd.Flags().GetInt("top")
	opts.Format, _ = cmd.Flags().GetString("format")
	opts.Save, _ = cmd.Flags().GetBool("save")
	return scoreFile(ctx, opts)
}

// reuseInput loads a precomputed trends CSV and re-writes it dated into
// the output directory, skipping collection entirely.
func reuseInput(inputPath, outDir string) (string, error) {
	batch, err := trend.LoadBatch(inputPath)
	if err != nil {
		return "", err
	}
	if len(batch.Rows) == 0 {
		return "", eris.Wrapf(trend.ErrInputFormat, "no trend rows in %s", inputPath)
	}
	outPath := trend.CollectedOutputPath(outDir)
	if err := trend.WriteBatch(batch, outPath); err != nil {
		return "", err
	}
	fmt.Printf("Reused %d records from %s to %s\n", len(batch.Rows), inputPath, outPath)
	return outPath, nil
}

// collectToFile fetches the keyword batch and writes the dated CSV.
func collectToFile(ctx context.Context, cmd *cobra.Command, flagKeywords []string, keywordsFile, outDir string) (string, error) {
	var fileKeywords []string
	if keywordsFile != "" {
		var err error
		fileKeywords, err = trend.LoadKeywords(keywordsFile)
		if err != nil {
			return "", err
		}
	}
	keywords := trend.MergeKeywords(flagKeywords, fileKeywords)
	if len(keywords) == 0 {
		return "", eris.New("collect: no usable keywords")
	}

	geo, _ := cmd.Flags().GetString("geo")
	if geo == "" {
		geo = cfg.Collect.Geo
	}
	days, _ := cmd.Flags().GetInt("days")
	if days == 0 {
		days = cfg.Collect.Days
	}

	client, err := trend.NewHTTPClient(trend.HTTPClientOptions{
		BaseURL:    cfg.Collect.BaseURL,
		Timeout:    time.Duration(cfg.Collect.TimeoutSecs) * time.Second,
		RatePerSec: cfg.Collect.RatePerSec,
		Burst:      cfg.Collect.Burst,
		Retry:      resilience.RetryConfig{MaxAttempts: cfg.Collect.Retries},
	})
	if err != nil {
		return "", err
	}
	collector, err := trend.NewCollector(geo, days, client)
	if err != nil {
		return "", err
	}

	log := zap.L().With(zap.String("command", "collect"))
	log.Info("collecting trends",
		zap.Int("keywords", len(keywords)),
		zap.String("geo", geo),
		zap.Int("days", days),
	)

	batch, err := collector.CollectKeywords(ctx, keywords)
	if err != nil {
		return "", err
	}

	outPath := trend.CollectedOutputPath(outDir)
	if err := trend.WriteBatch(batch, outPath); err != nil {
		return "", err
	}
	fmt.Printf("Collected %d keywords to %s\n", len(batch.Rows), outPath)
	return outPath, nil
}
