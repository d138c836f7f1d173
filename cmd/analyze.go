package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/pagefinder/internal/analysis"
)

var (
	analyzeFile        string
	analyzeQuery       string
	analyzeBatchSize   int
	analyzeMaxResults  int
	analyzeConcurrency int
	analyzeSinglePage  bool
	analyzeFormat      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank the pages of a document by relevance to a question",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		if err := checkFormat(analyzeFormat); err != nil {
			return err
		}
		ctx := cmd.Context()

		settings := analyzeSettings(cmd, cfg.Settings())

		doc, err := loadDocument(ctx, cfg.OCR, analyzeFile)
		if err != nil {
			return err
		}

		session, err := analysis.NewSession(doc, analyzeQuery, initOracle(cfg), settings, analysis.WithProgress(logProgress))
		if err != nil {
			return err
		}

		out, err := session.Run(ctx)
		if err != nil {
			return err
		}

		switch {
		case out.Incomplete():
			fmt.Fprintln(cmd.ErrOrStderr(), "analysis incomplete, partial results shown")
		case out.Result.Empty():
			fmt.Fprintln(cmd.ErrOrStderr(), "no relevant pages found")
		case out.Result.Fallback:
			fmt.Fprintln(cmd.ErrOrStderr(), "no page was rated relevant; showing the first pages instead")
		}

		return writeOutput(cmd.OutOrStdout(), analyzeFormat, out)
	},
}

// analyzeSettings applies explicitly set flags over the configured settings.
func analyzeSettings(cmd *cobra.Command, s analysis.Settings) analysis.Settings {
	if analyzeSinglePage {
		s = s.SinglePage()
	}
	flags := cmd.Flags()
	if flags.Changed("batch-size") {
		s.BatchSize = analyzeBatchSize
	}
	if flags.Changed("max-results") {
		s.MaxResults = analyzeMaxResults
	}
	if flags.Changed("concurrency") {
		s.Concurrency = analyzeConcurrency
	}
	return s
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "document to analyze (PDF, or .txt with form-feed page breaks)")
	analyzeCmd.Flags().StringVar(&analyzeQuery, "query", "", "question to answer")
	analyzeCmd.Flags().IntVar(&analyzeBatchSize, "batch-size", 5, "pages per oracle request (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeMaxResults, "max-results", 10, "maximum pages in the shortlist (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 1, "concurrent oracle requests (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeSinglePage, "single-page", false, "one page per request, three requests in flight")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "output format: json or yaml")
	_ = analyzeCmd.MarkFlagRequired("file")
	_ = analyzeCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(analyzeCmd)
}
