package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/export"
)

var edgesCmd = &cobra.Command{
	Use:   "edges",
	Short: "Export the edge relation as TSV",
	Long: `edges writes one "source<TAB>label<TAB>target" line per stored edge. With
--root only edges reachable from that word within --depth hops are written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _ := cmd.Flags().GetString("root")
		depth, _ := cmd.Flags().GetInt("depth")
		translate, _ := cmd.Flags().GetBool("translate")
		ipa, _ := cmd.Flags().GetBool("ipa")
		outPath, _ := cmd.Flags().GetString("out")
		if depth < 0 {
			return fmt.Errorf("--depth must not be negative")
		}
		if translate && ipa {
			return fmt.Errorf("--translate and --ipa are mutually exclusive")
		}

		st, err := openResults(cmd.Context())
		if err != nil {
			return err
		}
		table, err := translation()
		if err != nil {
			return err
		}

		edges := st.Edges()
		if root != "" {
			token, err := export.ResolveRoot(root, table)
			if err != nil {
				return err
			}
			edges = st.Filter(token, depth)
		}
		if translate {
			if edges, err = export.Translate(edges, table); err != nil {
				return err
			}
		}
		if ipa {
			edges = export.RenderIPA(edges)
		}

		var w io.Writer = cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			defer f.Close()
			w = f
		}
		return export.WriteTSV(w, edges)
	},
}

func init() {
	edgesCmd.Flags().String("root", "", "only edges reachable from this word")
	edgesCmd.Flags().Int("depth", 0, "hops to follow from --root")
	edgesCmd.Flags().Bool("translate", false, "write words through the corpus translation table")
	edgesCmd.Flags().Bool("ipa", false, "spell phonetic tokens in IPA")
	edgesCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
}
