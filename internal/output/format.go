package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"pyimports/internal/core/errors"
	"pyimports/internal/engine/parser"
	"pyimports/internal/shared/util"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTSV  Format = "tsv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTSV:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", errors.AddContext(
		errors.Newf(errors.CodeNotSupported, "unsupported output format %q", s),
		errors.CtxOption, "format",
	)
}

// WriteImports emits one file's map. JSON is a single object on one line.
func WriteImports(w io.Writer, f Format, imports parser.ImportMap) error {
	if imports == nil {
		imports = parser.ImportMap{}
	}
	switch f {
	case FormatYAML:
		return writeYAML(w, imports)
	case FormatTSV:
		bw := bufio.NewWriter(w)
		fmt.Fprint(bw, "Module\tLine\n")
		for _, name := range util.SortedStringKeys(imports) {
			fmt.Fprintf(bw, "%s\t%d\n", name, imports[name])
		}
		return bw.Flush()
	default:
		return writeJSONLine(w, imports)
	}
}

// WriteScan emits {file: {module: line}} for a batch.
func WriteScan(w io.Writer, f Format, files map[string]parser.ImportMap) error {
	if files == nil {
		files = map[string]parser.ImportMap{}
	}
	switch f {
	case FormatYAML:
		return writeYAML(w, files)
	case FormatTSV:
		bw := bufio.NewWriter(w)
		fmt.Fprint(bw, "File\tModule\tLine\n")
		for _, file := range util.SortedStringKeys(files) {
			imports := files[file]
			for _, name := range util.SortedStringKeys(imports) {
				fmt.Fprintf(bw, "%s\t%s\t%d\n", file, name, imports[name])
			}
		}
		return bw.Flush()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}
}

// Record is one watch-mode line.
type Record struct {
	Path        string           `json:"path"`
	Imports     parser.ImportMap `json:"imports"`
	ParseFailed bool             `json:"parse_failed,omitempty"`
	Removed     bool             `json:"removed,omitempty"`
	Cached      bool             `json:"cached,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// WriteRecord appends rec as newline-delimited JSON.
func WriteRecord(w io.Writer, rec Record) error {
	if rec.Imports == nil {
		rec.Imports = parser.ImportMap{}
	}
	return writeJSONLine(w, rec)
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode json")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode yaml")
	}
	return enc.Close()
}
