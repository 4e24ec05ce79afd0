package cli

import (
	"github.com/spf13/cobra"

	"github.com/reoring/docskema/modifier"
)

func newNormalizeCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "normalize UPDATE",
		Short: "Print the partial document an update-operator document produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(args[0])
			if err != nil {
				return err
			}
			out := make([]map[string]any, len(docs))
			for i, d := range docs {
				out[i] = modifier.Normalize(d)
			}
			if len(out) == 1 {
				return write(cmd.OutOrStdout(), output, out[0])
			}
			return write(cmd.OutOrStdout(), output, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	return cmd
}
