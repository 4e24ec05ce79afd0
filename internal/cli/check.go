package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/docskema"
	"github.com/reoring/docskema/loader"
)

type checkResult struct {
	Document int                       `json:"document" yaml:"document"`
	Valid    bool                      `json:"valid" yaml:"valid"`
	Errors   docskema.ValidationErrors `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newCheckCommand() *cobra.Command {
	var (
		output string
		full   bool
	)
	cmd := &cobra.Command{
		Use:   "check SCHEMA DATA",
		Short: "Validate every document of a data file",
		Long: `Validate every document of a YAML or JSON data file. Documents whose
top-level keys are update operators ($set, $push, ...) are checked against
the deep-partial schema.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			schema := docskema.NewSchema(desc)
			if _, err := schema.Shape(); err != nil {
				return err
			}
			docs, err := readDocuments(args[1])
			if err != nil {
				return err
			}

			results := make([]checkResult, 0, len(docs))
			failed := 0
			for i, doc := range docs {
				r := checkResult{Document: i, Valid: true}
				if err := schema.Check(doc, docskema.Full(full)); err != nil {
					ve, ok := docskema.AsValidationErrors(err)
					if !ok {
						return err
					}
					r.Valid, r.Errors = false, ve
					failed++
				}
				slog.Debug("checked", "component", "cli", "document", i, "valid", r.Valid)
				results = append(results, r)
			}
			if output == "text" {
				printText(cmd, results)
			} else if err := write(cmd.OutOrStdout(), output, results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d document(s) failed validation", failed, len(docs))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, yaml)")
	cmd.Flags().BoolVar(&full, "full", false, "check documents as complete inserts")
	return cmd
}

func readDocuments(path string) ([]map[string]any, error) {
	f, err := loader.FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return loader.LoadDocuments(data, f)
}

func printText(cmd *cobra.Command, results []checkResult) {
	w := cmd.OutOrStdout()
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "document %d: ok\n", r.Document)
			continue
		}
		fmt.Fprintf(w, "document %d: %d error(s)\n", r.Document, len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}
}
