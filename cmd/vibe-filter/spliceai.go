package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/cohort"
	"github.com/inodb/vibe-filter/internal/duckdb"
	"github.com/inodb/vibe-filter/internal/filter"
	"github.com/inodb/vibe-filter/internal/output"
	"github.com/inodb/vibe-filter/internal/panel"
	"github.com/inodb/vibe-filter/internal/spliceai"
)

func newSpliceAICmd() *cobra.Command {
	var (
		samplesPath string
		outputPath  string
		panels      []string
	)

	cmd := &cobra.Command{
		Use:   "spliceai",
		Short: "Keep panel-gene variants with a high SpliceAI delta score",
		Long: `Build an index of SpliceAI-scored variants in panel genes whose maximum delta
score reaches the threshold, then report every sample call found in the index.

Output lines are: participant ID, the full VCF line, and the SpliceAI record.`,
		Example: `  vibe-filter spliceai --samples samples.txt --panel panel.tsv \
    --snv spliceai_scores.masked.snv.hg38.vcf.gz \
    --indel spliceai_scores.masked.indel.hg38.vcf.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(panels) == 0 {
				panels = viper.GetStringSlice("spliceai.panels")
			}
			if len(panels) == 0 {
				return fmt.Errorf("--panel is required")
			}
			refs := []string{viper.GetString("spliceai.snv"), viper.GetString("spliceai.indel")}
			for _, ref := range refs {
				if ref == "" {
					return fmt.Errorf("--snv and --indel are required")
				}
			}
			if outputPath == "" {
				outputPath = output.DefaultPath(samplesPath, output.SpliceAISuffix)
			}
			return runSpliceAI(cmd, samplesPath, outputPath, panels, refs)
		},
	}

	cmd.Flags().StringVar(&samplesPath, "samples", "", "Tab-separated participant ID and VCF path file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: <samples>"+output.SpliceAISuffix+")")
	cmd.Flags().StringArrayVar(&panels, "panel", nil, "Gene panel TSV (repeatable)")
	cmd.Flags().String("snv", "", "SpliceAI SNV scores VCF")
	cmd.Flags().String("indel", "", "SpliceAI indel scores VCF")
	cmd.Flags().Float64("threshold", spliceai.DefaultThreshold, "Minimum max delta score")
	cmd.MarkFlagRequired("samples")

	viper.BindPFlag("spliceai.snv", cmd.Flags().Lookup("snv"))
	viper.BindPFlag("spliceai.indel", cmd.Flags().Lookup("indel"))
	viper.BindPFlag("spliceai.threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

func runSpliceAI(cmd *cobra.Command, samplesPath, outputPath string, panels, refs []string) error {
	logger, err := newLogger(viper.GetBool("log.verbose"))
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	samples, err := cohort.LoadSamples(samplesPath, logger)
	if err != nil {
		return err
	}

	// SpliceAI mode admits panel genes of any confidence.
	genes, err := panel.Load(panelOptions("", logger), panels...)
	if err != nil {
		return err
	}
	logger.Info("loaded gene panel", zap.Int("genes", genes.Len()))

	idx, err := spliceai.Build(cmd.Context(), genes, spliceai.Options{
		Threshold: viper.GetFloat64("spliceai.threshold"),
		Logger:    logger,
	}, refs...)
	if err != nil {
		return err
	}
	logger.Info("built SpliceAI index", zap.Int("variants", idx.Len()))

	m := filter.NewSpliceAIMatcher(idx, viper.GetInt("filter.min_depth"))
	matcherFor := func(cohort.Sample) (filter.Matcher, error) { return m, nil }

	return runCohort(cmd.Context(), duckdb.ModeSpliceAI, samples, matcherFor, outputPath, logger)
}
