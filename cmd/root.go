package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pagefinder/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pagefinder",
	Short: "Find the pages of a long document that answer a question",
	Long:  "Splits a document into page batches, asks Claude to rate each page's relevance to a question, ranks the results, and answers the question from the pages you pick.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
