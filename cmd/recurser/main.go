// Command recurser searches a corpus for words that decompose into other
// words and inspects the stored results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/logger"
)

var (
	configPath string
	corpusPath string
	variant    string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "recurser",
	Short: "Find words that decompose into other words",
	Long: `recurser removes (or replaces) corpus words inside longer corpus words
and records every decomposition whose remainder is itself a word.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("corpus") {
			c.Corpus.Path = corpusPath
		}
		if cmd.Flags().Changed("variant") {
			c.Search.Variant = variant
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		logger.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "corpus file (overrides corpus.path)")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", "", "decomposition variant: subtraction or graph")
	rootCmd.AddCommand(runCmd, rankCmd, edgesCmd, showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// translation loads the corpus translation table when the corpus has one.
func translation() (*corpus.TranslationTable, error) {
	if cfg.Corpus.Format != corpus.FormatCMUDict {
		return nil, nil
	}
	c, err := corpus.Open(cfg.Corpus)
	if err != nil {
		return nil, fmt.Errorf("loading translation: %w", err)
	}
	return c.Translation(), nil
}
