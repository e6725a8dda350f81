package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/export"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

var showCmd = &cobra.Command{
	Use:   "show <word>",
	Short: "Print the stored decomposition of one word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		translate, _ := cmd.Flags().GetBool("translate")
		st, err := openResults(cmd.Context())
		if err != nil {
			return err
		}
		table, err := translation()
		if err != nil {
			return err
		}
		word, err := export.ResolveRoot(args[0], table)
		if err != nil {
			return err
		}
		r, ok := st.Get(word)
		if !ok {
			return fmt.Errorf("%w: no decomposition stored for %q", apperrors.ErrWordNotFound, args[0])
		}

		out := cmd.OutOrStdout()
		for _, name := range ranking.Names() {
			m, _ := ranking.MetricByName(name)
			fmt.Fprintf(out, "%s=%d ", name, m(r))
		}
		fmt.Fprintln(out)
		if translate {
			if r, err = export.TranslateResult(r, table); err != nil {
				return err
			}
		}
		return export.WriteTree(out, r)
	},
}

func init() {
	showCmd.Flags().Bool("translate", false, "print words through the corpus translation table")
}
