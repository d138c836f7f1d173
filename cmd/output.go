package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pagefinder/internal/analysis"
)

// checkFormat rejects an unknown --format before any work is done.
func checkFormat(format string) error {
	switch format {
	case "json", "", "yaml":
		return nil
	}
	return eris.Wrapf(analysis.ErrInvalidConfiguration, "unknown output format %q (want json or yaml)", format)
}

// writeOutput renders v as indented JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return checkFormat(format)
	}
}
