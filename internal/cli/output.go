package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/pretty"
)

var colorOutput bool

// writeJSON writes v as indented JSON, colorized when requested
func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = pretty.Pretty(data)
	if colorOutput {
		data = pretty.Color(data, nil)
	}
	_, err = w.Write(data)
	return err
}

// writeJSONLine writes v as one compact JSON line
func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = w.Write(append(pretty.Ugly(data), '\n'))
	return err
}

// openOutput returns stdout for "" or "-", otherwise creates path
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&colorOutput, "color", false, "colorize JSON output")
}
