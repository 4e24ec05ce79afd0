package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reoring/docskema"
	"github.com/reoring/docskema/jsonschema"
	"github.com/reoring/docskema/loader"
)

func newCompileCommand() *cobra.Command {
	var (
		output    string
		validator bool
	)
	cmd := &cobra.Command{
		Use:   "compile SCHEMA",
		Short: "Compile a schema file into a backend validator schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			s, err := docskema.Compile(desc)
			if err != nil {
				return err
			}
			var v any = s
			if validator {
				v = jsonschema.Validator(s)
			}
			return write(cmd.OutOrStdout(), output, v)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	cmd.Flags().BoolVar(&validator, "validator", false, "wrap the schema as {\"$jsonSchema\": ...}")
	return cmd
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
