// Package main provides the vibe-filter command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-filter/internal/filter"
	"github.com/inodb/vibe-filter/internal/panel"
	"github.com/inodb/vibe-filter/internal/spliceai"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configName is the config file name in the user's home directory.
const configName = ".vibe-filter.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibe-filter",
		Short: "Filter sample VCFs to panel genes with splicing or consequence evidence",
		Long: `vibe-filter reduces per-sample VCFs to variants in genes of interest that
either carry a high SpliceAI delta score or a damaging consequence annotation,
and that pass basic call quality (PASS filter, non-reference genotype, depth).`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	flags := cmd.PersistentFlags()
	flags.Int("min-depth", filter.DefaultMinDepth, "Minimum read depth (DP) of a reported call")
	flags.Int("workers", 1, "Number of samples filtered concurrently")
	flags.String("duckdb", "", "Also write hits to this DuckDB database")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	viper.BindPFlag("filter.min_depth", flags.Lookup("min-depth"))
	viper.BindPFlag("filter.workers", flags.Lookup("workers"))
	viper.BindPFlag("output.duckdb", flags.Lookup("duckdb"))
	viper.BindPFlag("log.verbose", flags.Lookup("verbose"))

	cmd.AddCommand(newSpliceAICmd())
	cmd.AddCommand(newConsequenceCmd())
	cmd.AddCommand(newHitsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig reads ~/.vibe-filter.yaml and VIBE_FILTER_* environment variables.
func initConfig() error {
	viper.SetDefault("filter.min_depth", filter.DefaultMinDepth)
	viper.SetDefault("filter.workers", 1)
	viper.SetDefault("spliceai.threshold", spliceai.DefaultThreshold)
	viper.SetDefault("panel.modes", panel.DefaultModes)
	viper.SetDefault("panel.confidence", panel.ExpertReviewGreen)
	viper.SetDefault("consequence.terms", filter.DefaultConsequences)

	viper.SetEnvPrefix("VIBE_FILTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.SetConfigFile(filepath.Join(home, configName))
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// newLogger builds a console logger on stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// panelOptions returns panel admission options from configuration.
func panelOptions(confidence string, logger *zap.Logger) panel.Options {
	opts := panel.DefaultOptions()
	opts.Modes = viper.GetStringSlice("panel.modes")
	opts.Confidence = confidence
	opts.Logger = logger
	return opts
}
