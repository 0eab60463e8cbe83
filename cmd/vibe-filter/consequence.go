package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-filter/internal/cohort"
	"github.com/inodb/vibe-filter/internal/duckdb"
	"github.com/inodb/vibe-filter/internal/filter"
	"github.com/inodb/vibe-filter/internal/output"
	"github.com/inodb/vibe-filter/internal/panel"
)

func newConsequenceCmd() *cobra.Command {
	var (
		samplesPath string
		panelsPath  string
		genesPath   string
		outputPath  string
	)

	cmd := &cobra.Command{
		Use:   "consequence",
		Short: "Keep variants with a damaging consequence in each sample's panel genes",
		Long: `Resolve each participant's genes from their assigned panels plus a shared gene
list, then report calls whose CSQT annotation names one of those genes with a
consequence of interest. Each (participant, variant) is reported once.

Output lines are: participant ID, the full VCF line, gene, consequence term.`,
		Example: `  vibe-filter consequence --samples samples.txt --panels panels.txt --genes genes.txt
  vibe-filter consequence --samples samples.txt --panels panels.txt --genes genes.txt \
    --terms stop_gained,frameshift --confidence ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = output.DefaultPath(samplesPath, output.ConsequenceSuffix)
			}
			return runConsequence(cmd, samplesPath, panelsPath, genesPath, outputPath)
		},
	}

	cmd.Flags().StringVar(&samplesPath, "samples", "", "Tab-separated participant ID and VCF path file")
	cmd.Flags().StringVar(&panelsPath, "panels", "", "Tab-separated participant ID and panel file")
	cmd.Flags().StringVar(&genesPath, "genes", "", "Additional genes checked for every participant")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: <samples>"+output.ConsequenceSuffix+")")
	cmd.Flags().StringSlice("terms", filter.DefaultConsequences, "Consequence terms of interest")
	cmd.Flags().String("confidence", panel.ExpertReviewGreen, "Required panel confidence label (empty admits all)")
	cmd.MarkFlagRequired("samples")
	cmd.MarkFlagRequired("panels")
	cmd.MarkFlagRequired("genes")

	viper.BindPFlag("consequence.terms", cmd.Flags().Lookup("terms"))
	viper.BindPFlag("panel.confidence", cmd.Flags().Lookup("confidence"))

	return cmd
}

func runConsequence(cmd *cobra.Command, samplesPath, panelsPath, genesPath, outputPath string) error {
	logger, err := newLogger(viper.GetBool("log.verbose"))
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	samples, err := cohort.LoadSamples(samplesPath, logger)
	if err != nil {
		return err
	}
	assignments, err := cohort.LoadAssignments(panelsPath)
	if err != nil {
		return err
	}
	extra, err := panel.LoadGeneList(genesPath)
	if err != nil {
		return err
	}

	resolver := cohort.NewResolver(assignments, extra,
		panelOptions(viper.GetString("panel.confidence"), logger))
	terms := viper.GetStringSlice("consequence.terms")
	minDepth := viper.GetInt("filter.min_depth")
	tracker := filter.NewTracker()

	matcherFor := func(s cohort.Sample) (filter.Matcher, error) {
		genes, err := resolver.Resolve(s.ID)
		if err != nil {
			return nil, err
		}
		return filter.NewConsequenceMatcher(genes, terms, minDepth, tracker), nil
	}

	return runCohort(cmd.Context(), duckdb.ModeConsequence, samples, matcherFor, outputPath, logger)
}
