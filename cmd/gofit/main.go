package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"gofit/adapters/excel"
	"gofit/adapters/jsondata"
	"gofit/adapters/solver"
	"gofit/domain/dataset"
	"gofit/domain/fitfunc"
	"gofit/internal"
	"gofit/internal/config"
	"gofit/internal/container"
	"gofit/internal/errors"
	"gofit/internal/report"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
	logger     *internal.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "gofit",
		Short:         "Least-squares fitting of experimental data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := internal.NewDefaultLogger().GetLevel()
			if a.verbose || cfg.Output.Verbose {
				level = internal.LogLevelDebug
			}
			a.logger = internal.Configure(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Show component logs")

	rootCmd.AddCommand(
		newFitCmd(a),
		newListCmd(),
		newSyntaxCmd(),
		newStatsCmd(a),
	)
	return rootCmd
}

// dataFlags are the data file options shared by fit and stats
type dataFlags struct {
	file     string
	sheet    string
	dataPath string
	x        string
	xerr     string
	y        string
	yerr     string
	unselect []int
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "data-file", "d", "", "Data file (.csv, .xlsx or .json)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet of an Excel file (default: first sheet)")
	cmd.Flags().StringVar(&f.dataPath, "data-path", "", "Path to the table inside a JSON file")
	cmd.Flags().StringVar(&f.x, "x-column", "", "x column, by header or 1-based index")
	cmd.Flags().StringVar(&f.xerr, "xerr-column", "", "x error column, by header or 1-based index")
	cmd.Flags().StringVar(&f.y, "y-column", "", "y column, by header or 1-based index")
	cmd.Flags().StringVar(&f.yerr, "yerr-column", "", "y error column, by header or 1-based index")
	cmd.Flags().IntSliceVar(&f.unselect, "unselect", nil, "Record indices (0-based) to leave out, e.g. 2,4")
	_ = cmd.MarkFlagRequired("data-file")
}

// load reads the data file and applies the record selection
func (f *dataFlags) load(cfg *config.Config) (*dataset.Dataset, error) {
	sheet := f.sheet
	if sheet == "" {
		sheet = cfg.Data.Sheet
	}
	opts := excel.LoadOptions{Sheet: sheet, X: f.x, XErr: f.xerr, Y: f.y, YErr: f.yerr}

	var ds *dataset.Dataset
	var err error
	if strings.EqualFold(filepath.Ext(f.file), ".json") {
		ds, err = jsondata.NewJSONReader(f.file, f.dataPath).Load(opts.Selectors())
	} else {
		ds, err = excel.NewDataReader(f.file).Load(opts)
	}
	if err != nil {
		return nil, errors.DataLoad(f.file, err)
	}

	for _, index := range f.unselect {
		if err := ds.Unselect(index); err != nil {
			return nil, errors.Wrapf(err, "cannot unselect record %d", index)
		}
	}
	return ds, nil
}

func newFitCmd(a *app) *cobra.Command {
	var data dataFlags
	var polynomial int
	var a0 string
	var method string
	var asJSON bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "fit [function]",
		Short: "Fit a data file to a fit function",
		Long: `Fit the selected records of a data file to a registered fit function.

Example: gofit fit linear --data-file points.csv --yerr-column dy --a0 "1,2"
         gofit fit --polynomial 3 --data-file points.xlsx --sheet Run2 --unselect 0,7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("solver") {
				a.cfg.Solver.Method = method
			}
			if cmd.Flags().Changed("json") {
				a.cfg.Output.JSON = asJSON
			}
			if cmd.Flags().Changed("output-dir") {
				a.cfg.Output.Dir = outputDir
			}

			c, err := container.New(a.cfg)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			fn, err := c.LoadFunction(name, polynomial)
			if err != nil {
				return err
			}
			guess, err := parseFloats(a0)
			if err != nil {
				return err
			}
			ds, err := data.load(a.cfg)
			if err != nil {
				return err
			}

			return runFit(cmd.OutOrStdout(), a, c, ds, fn, guess)
		},
	}

	data.register(cmd)
	cmd.Flags().IntVarP(&polynomial, "polynomial", "p", 0, "Fit a polynomial of this degree")
	cmd.Flags().StringVar(&a0, "a0", "", "Initial guess, e.g. \"1,2\"")
	cmd.Flags().StringVar(&method, "solver", solver.MethodLevenbergMarquardt, "Solver method (lm or bfgs)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the result as JSON")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to save result files in")

	return cmd
}

func runFit(out io.Writer, a *app, c *container.Container, ds *dataset.Dataset, fn *fitfunc.FitFunction, a0 []float64) error {
	a.logger.Debug("fitting %s with the %s solver on %d of %d records",
		fn.Name(), a.cfg.Solver.Method, ds.SelectedCount(), ds.Len())
	result, err := c.Engine.Fit(ds, fn, a0)
	if err != nil {
		return errors.Wrapf(err, "fitting %s failed", fn.Name())
	}

	if dir := a.cfg.Output.Dir; dir != "" {
		path, err := report.SaveText(dir, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s\n", path)
		if a.cfg.Output.JSON {
			if path, err = report.SaveJSON(dir, result); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s\n", path)
		}
		return nil
	}

	if a.cfg.Output.JSON {
		return report.WriteJSON(out, result)
	}
	return report.WriteText(out, result)
}

// parseFloats reads a comma or whitespace separated list; empty means nil
func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, nil
	}
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid initial guess value %q", field))
		}
		values[i] = v
	}
	return values, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered fit functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), fitfunc.Default().List())
			return err
		},
	}
}

func newSyntaxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "syntax NAMES...",
		Short: "Show the syntax of fit functions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := fitfunc.Default().Syntax(args...)
			if err != nil {
				return errors.Wrap(err, "cannot show syntax")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics of the selected records of each column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := data.load(a.cfg)
			if err != nil {
				return err
			}
			return writeStatistics(cmd.OutOrStdout(), ds)
		},
	}
	data.register(cmd)
	return cmd
}

func writeStatistics(out io.Writer, ds *dataset.Dataset) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "column\tcount\tmean\tstd\tmin\tmax\tmedian\n")
	for _, name := range ds.ColumnNames() {
		s, err := ds.Statistics(name)
		if err != nil {
			return err
		}
		if s == nil {
			fmt.Fprintf(w, "%s\t0\t-\t-\t-\t-\t-\n", name)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
			name, s.Count, s.Mean, s.StandardDeviation, s.Minimum, s.Maximum, s.Median)
	}
	fmt.Fprintf(w, "\n%d of %d records selected\n", ds.SelectedCount(), ds.Len())
	return w.Flush()
}
