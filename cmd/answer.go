package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/pagefinder/internal/analysis"
	"github.com/sells-group/pagefinder/internal/model"
)

var (
	answerFile   string
	answerQuery  string
	answerPages  string
	answerFormat string
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Answer a question from selected pages of a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("answer"); err != nil {
			return err
		}
		if err := checkFormat(answerFormat); err != nil {
			return err
		}
		sel, err := model.ParseSelection(answerPages)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		doc, err := loadDocument(ctx, cfg.OCR, answerFile)
		if err != nil {
			return err
		}

		ans, err := analysis.Synthesize(ctx, initOracle(cfg), doc, answerQuery, sel, cfg.Settings())
		if err != nil {
			return err
		}

		return writeOutput(cmd.OutOrStdout(), answerFormat, ans)
	},
}

func init() {
	answerCmd.Flags().StringVar(&answerFile, "file", "", "document to answer from")
	answerCmd.Flags().StringVar(&answerQuery, "query", "", "question to answer")
	answerCmd.Flags().StringVar(&answerPages, "pages", "", "original pages to use, e.g. 2,5,9 or 1-3,7")
	answerCmd.Flags().StringVar(&answerFormat, "format", "json", "output format: json or yaml")
	_ = answerCmd.MarkFlagRequired("file")
	_ = answerCmd.MarkFlagRequired("query")
	_ = answerCmd.MarkFlagRequired("pages")
	rootCmd.AddCommand(answerCmd)
}
