package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"gofit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const pointsCSV = "x,y,dy\n1,2.1,0.1\n2,3.9,0.1\n3,6.2,0.1\n4,7.8,0.1\n5,10.1,0.1\n"

// runCLI executes the root command in a scratch directory and returns stdout
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePoints(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(path, []byte(pointsCSV), 0o644))
	return path
}

// TestFitText tests a weighted linear fit printed as text
func TestFitText(t *testing.T) {
	out, err := runCLI(t, "fit", "linear", "--data-file", writePoints(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Results for linear:")
	assert.Contains(t, out, "Degrees of freedom: 3")
}

// TestFitJSONWithUnselect tests JSON output and record selection
func TestFitJSONWithUnselect(t *testing.T) {
	out, err := runCLI(t, "fit", "--polynomial", "1", "--data-file", writePoints(t), "--unselect", "0,4", "--json")
	require.NoError(t, err)

	doc := []byte(out)
	assert.Equal(t, "polynomial_1", gjson.GetBytes(doc, "function").String())
	assert.Equal(t, int64(1), gjson.GetBytes(doc, "degrees_of_freedom").Int())
	var indices []int64
	for _, v := range gjson.GetBytes(doc, "record_indices").Array() {
		indices = append(indices, v.Int())
	}
	assert.Equal(t, []int64{1, 2, 3}, indices)
	assert.True(t, gjson.GetBytes(doc, "weighted").Bool())
}

// TestFitOutputDir tests saving result files
func TestFitOutputDir(t *testing.T) {
	data := writePoints(t)
	dir := filepath.Join(t.TempDir(), "results")

	out, err := runCLI(t, "fit", "linear", "-d", data, "--a0", "1, 2", "--json", "--output-dir", dir, "--solver", "lm")
	require.NoError(t, err)
	assert.Contains(t, out, "linear_fitting_result.txt")
	assert.FileExists(t, filepath.Join(dir, "linear_fitting_result.txt"))
	assert.FileExists(t, filepath.Join(dir, "linear_fitting_result.json"))
}

// TestFitErrors tests failures surfaced by the fit command
func TestFitErrors(t *testing.T) {
	data := writePoints(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no function", []string{"fit", "-d", data}, errors.CodeInvalidInput},
		{"name and polynomial", []string{"fit", "linear", "-p", "2", "-d", data}, errors.CodeInvalidInput},
		{"unknown function", []string{"fit", "ghost", "-d", data}, errors.CodeFunctionLoad},
		{"bad a0", []string{"fit", "linear", "-d", data, "--a0", "1,x"}, errors.CodeInvalidInput},
		{"wrong a0 length", []string{"fit", "linear", "-d", data, "--a0", "1"}, errors.CodeInvalidInput},
		{"missing file", []string{"fit", "linear", "-d", "absent.csv"}, errors.CodeDataLoad},
		{"unselect out of range", []string{"fit", "linear", "-d", data, "--unselect", "9"}, errors.CodeInvalidInput},
		{"too few records", []string{"fit", "parabolic", "-d", data, "--unselect", "0,1,2"}, errors.CodeInvalidInput},
		{"unknown solver", []string{"fit", "linear", "-d", data, "--solver", "simplex"}, errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), err.Error())
		})
	}
}

// TestListAndSyntax tests the registry commands
func TestListAndSyntax(t *testing.T) {
	out, err := runCLI(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "polynomial(n)")
	assert.Contains(t, out, "Function")

	out, err = runCLI(t, "syntax", "linear", "constant")
	require.NoError(t, err)
	assert.Contains(t, out, "a[0] + a[1] * x")

	_, err = runCLI(t, "syntax", "ghost")
	require.Error(t, err)
	assert.Equal(t, "No fit function or generator named ghost", errorsCause(err))
}

// TestStats tests the statistics command honours the selection
func TestStats(t *testing.T) {
	out, err := runCLI(t, "stats", "-d", writePoints(t), "--unselect", "4")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^x\s+4\s+2\.5\s`, out)
	assert.Contains(t, out, "4 of 5 records selected")
}

// TestParseFloats tests the initial guess parser
func TestParseFloats(t *testing.T) {
	values, err := parseFloats("1, 2.5 -3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -3}, values)

	values, err = parseFloats("  ")
	require.NoError(t, err)
	assert.Nil(t, values)

	_, err = parseFloats("1,two")
	assert.Error(t, err)
}

func errorsCause(err error) string {
	for {
		app, ok := err.(*errors.AppError)
		if !ok || app.Cause == nil {
			return err.Error()
		}
		err = app.Cause
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
