// Package report renders fit results as text and JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gofit/internal/errors"
	"gofit/internal/fitting"
)

// WriteText writes a human-readable summary of result
func WriteText(w io.Writer, result *fitting.Result) error {
	var b strings.Builder
	fn := result.Function()

	fmt.Fprintf(&b, "Results for %s:\n", fn.Name())
	b.WriteString(strings.Repeat("=", len("Results for :")+len(fn.Name())) + "\n\n")
	if syntax := fn.Syntax(); syntax != "" {
		fmt.Fprintf(&b, "Syntax: %s\n\n", syntax)
	}

	b.WriteString("Initial parameters' values:\n")
	fmt.Fprintf(&b, "\t%s\n", joinFloats(result.A0()))

	b.WriteString("Fitted parameters' values:\n")
	a := result.Parameters()
	aerr := result.Uncertainties()
	arerr := result.RelativeUncertainties()
	for i := range a {
		fmt.Fprintf(&b, "\ta[%d] = %.3e \u00b1 %.3e (%.3f%% error)\n", i, a[i], aerr[i], arerr[i])
	}

	b.WriteString("Fitted parameters covariance:\n")
	for _, row := range result.Covariance() {
		fmt.Fprintf(&b, "\t%s\n", joinFloats(row))
	}

	fmt.Fprintf(&b, "Chi squared: %.3e\n", result.ChiSquared())
	fmt.Fprintf(&b, "Degrees of freedom: %d\n", result.DegreesOfFreedom())
	fmt.Fprintf(&b, "Chi squared reduced: %.3e\n", result.ChiSquaredReduced())
	fmt.Fprintf(&b, "P-probability: %.3e\n", result.PValue())
	if !result.Weighted() {
		b.WriteString("Note: no y errors given, uncertainties are scaled by the reduced chi squared\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes result as indented JSON
func WriteJSON(w io.Writer, result *fitting.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// SaveText writes the text report to dir and returns the file path
func SaveText(dir string, result *fitting.Result) (string, error) {
	return save(dir, fileName(result, "txt"), result, WriteText)
}

// SaveJSON writes the JSON report to dir and returns the file path
func SaveJSON(dir string, result *fitting.Result) (string, error) {
	return save(dir, fileName(result, "json"), result, WriteJSON)
}

func fileName(result *fitting.Result, ext string) string {
	return fmt.Sprintf("%s_fitting_result.%s", result.Function().Name(), ext)
}

func save(dir, name string, result *fitting.Result, write func(io.Writer, *fitting.Result) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.OutputError(err)
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", errors.OutputError(err)
	}
	if err := writeAndClose(file, result, write); err != nil {
		return "", errors.OutputError(err)
	}
	log.Printf("[Report] wrote %s", path)
	return path, nil
}

// writeAndClose closes wc even when write fails and reports the close error otherwise
func writeAndClose(wc io.WriteCloser, result *fitting.Result, write func(io.Writer, *fitting.Result) error) error {
	if err := write(wc, result); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.3e", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
