package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-filter/internal/duckdb"
)

func newHitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hits <participant>",
		Short: "List a participant's hits stored in the DuckDB export",
		Long: `Print the hits written to the --duckdb database for one participant,
ordered by position. Columns are: mode, chrom, pos, ref, alt, gene, then the
consequence term (consequence mode) or the max delta score (spliceai mode).`,
		Example: `  vibe-filter hits P0001 --duckdb cohort.duckdb`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := viper.GetString("output.duckdb")
			if dbPath == "" {
				return errors.New("--duckdb is required")
			}

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.HitsBySample(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, h := range rows {
				detail := h.Consequence.String
				if h.MaxScore.Valid {
					detail = strconv.FormatFloat(h.MaxScore.Float64, 'g', -1, 64)
				}
				fmt.Fprintln(w, strings.Join([]string{
					h.Mode, h.Chrom, strconv.FormatInt(h.Pos, 10), h.Ref, h.Alt, h.Gene, detail,
				}, "\t"))
			}
			return nil
		},
	}
}
