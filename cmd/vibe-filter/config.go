package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys are the settings read from the config file.
var configKeys = []string{
	"consequence.terms",
	"filter.min_depth",
	"filter.workers",
	"log.verbose",
	"output.duckdb",
	"panel.confidence",
	"panel.modes",
	"spliceai.indel",
	"spliceai.panels",
	"spliceai.snv",
	"spliceai.threshold",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
		Long: `Without a subcommand, print the effective settings as YAML.
Settings are saved in ~/` + configName + ` and can be overridden by
VIBE_FILTER_* environment variables and command-line flags.

Known keys: ` + strings.Join(configKeys, ", "),
		Example: `  vibe-filter config
  vibe-filter config set spliceai.snv /ref/spliceai_scores.masked.snv.hg38.vcf.gz
  vibe-filter config set consequence.terms stop_gained,frameshift
  vibe-filter config get filter.min_depth`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(cmd.OutOrStdout(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getConfig(cmd.OutOrStdout(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFile()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}

// configFile returns the file settings are read from and saved to.
func configFile() (string, error) {
	if f := viper.ConfigFileUsed(); f != "" {
		return f, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName), nil
}

func showConfig(w io.Writer) error {
	settings := make(map[string]any, len(configKeys))
	for _, key := range configKeys {
		if v := viper.Get(key); v != nil {
			settings[key] = v
		}
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func setConfig(w io.Writer, key, value string) error {
	if !slices.Contains(configKeys, key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	path, err := configFile()
	if err != nil {
		return err
	}

	viper.Set(key, parseConfigValue(value))
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(w, "%s = %s (%s)\n", key, value, path)
	return nil
}

func getConfig(w io.Writer, key string) error {
	v := viper.Get(key)
	if v == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	switch v := v.(type) {
	case []string:
		fmt.Fprintln(w, strings.Join(v, ","))
	case []any:
		fmt.Fprintln(w, strings.Join(viper.GetStringSlice(key), ","))
	default:
		fmt.Fprintln(w, v)
	}
	return nil
}

// parseConfigValue converts a command-line value to the type it should have
// in the YAML config file.
func parseConfigValue(value string) any {
	switch value {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if strings.Contains(value, ",") {
		return strings.Split(value, ",")
	}
	return value
}
