package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/cohort"
	"github.com/inodb/vibe-filter/internal/duckdb"
	"github.com/inodb/vibe-filter/internal/output"
	"github.com/inodb/vibe-filter/internal/pipeline"
)

// runCohort filters every sample with matcherFor and writes hits to outPath.
// With a DuckDB export configured, earlier hits of the same mode are replaced.
func runCohort(ctx context.Context, mode string, samples []cohort.Sample, matcherFor pipeline.MatcherFunc, outPath string, logger *zap.Logger) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	w := output.NewTabWriter(out)
	r := pipeline.NewRunner(matcherFor, w)
	r.SetWorkers(viper.GetInt("filter.workers"))
	r.SetLogger(logger)

	if dbPath := viper.GetString("output.duckdb"); dbPath != "" {
		store, err := duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.ClearMode(mode); err != nil {
			return err
		}
		r.SetStore(store)
	}

	summary, err := r.Run(ctx, samples)
	if flushErr := w.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("flushing output: %w", flushErr)
	}
	if err != nil {
		return err
	}

	logger.Info("run complete",
		zap.String("output", outPath),
		zap.Int("lines", w.Count()),
		zap.Int("samples", summary.Samples),
		zap.Int("processed", summary.Processed),
		zap.Int("missing_vcf", summary.MissingVCF),
		zap.Int("unknown_panels", summary.UnknownPanels),
		zap.Int("failed", summary.Failed),
		zap.Int("hits", summary.Hits))
	return out.Close()
}
