package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/jobguide/internal/condition"
)

type parseOutput struct {
	Condition condition.SearchCondition `json:"condition"`
	Complete  bool                      `json:"complete"`
	Query     condition.Query           `json:"query"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <text...>",
	Short: "Print the search condition extracted from the text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		segmenter, _ := cmd.Flags().GetString("segmenter")
		tokenizer, err := condition.NewTokenizer(segmenter)
		if err != nil {
			return err
		}

		cond := condition.NewExtractor(tokenizer).Parse(strings.Join(args, " "))

		pretty, err := json.MarshalIndent(parseOutput{
			Condition: cond,
			Complete:  cond.IsComplete(),
			Query:     condition.FormatSearchConditions(cond),
		}, "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("segmenter", "s", condition.SegmenterScript, "word segmenter: script or gse")
}
