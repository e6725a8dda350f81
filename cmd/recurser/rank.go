package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/ranking"
)

var rankCmd = &cobra.Command{
	Use:   "rank [metric...]",
	Short: "Show the most interesting words under each ranking metric",
	Long: fmt.Sprintf(`rank indexes the stored results by a metric and prints the words at the
maximum value, or the --top N words. Metrics: %s.`, strings.Join(ranking.Names(), ", ")),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		translate, _ := cmd.Flags().GetBool("translate")

		names := args
		if len(names) == 0 {
			names = ranking.Names()
		}
		metrics := make([]ranking.Metric, len(names))
		for i, name := range names {
			m, err := ranking.MetricByName(name)
			if err != nil {
				return err
			}
			metrics[i] = m
		}

		st, err := openResults(cmd.Context())
		if err != nil {
			return err
		}
		label := func(w string) string { return w }
		if translate {
			table, err := translation()
			if err != nil {
				return err
			}
			if table != nil {
				label = func(w string) string {
					if l, ok := table.Label(w); ok {
						return l
					}
					return w
				}
			}
		}

		out := cmd.OutOrStdout()
		entries := st.All()
		for i, name := range names {
			if top > 0 {
				for _, s := range ranking.Top(entries, metrics[i], top) {
					fmt.Fprintf(out, "%s\t%d\t%s\n", name, s.Value, label(s.Word))
				}
				continue
			}
			value, words, ok := ranking.Reindex(entries, metrics[i]).Max()
			if !ok {
				fmt.Fprintf(out, "%s\t-\n", name)
				continue
			}
			labels := make([]string, 0, len(words))
			for w := range words {
				labels = append(labels, label(w))
			}
			sort.Strings(labels)
			fmt.Fprintf(out, "%s\t%d\t%s\n", name, value, strings.Join(labels, " "))
		}
		return nil
	},
}

func init() {
	rankCmd.Flags().Int("top", 0, "print the N highest-scoring words instead of the maximum bucket")
	rankCmd.Flags().Bool("translate", false, "print words through the corpus translation table")
}
