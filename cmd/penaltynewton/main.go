package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/penaltynewton/internal/config"
	"github.com/san-kum/penaltynewton/internal/experiment"
	"github.com/san-kum/penaltynewton/internal/objective"
	"github.com/san-kum/penaltynewton/internal/report"
	"github.com/san-kum/penaltynewton/internal/storage"
	"github.com/san-kum/penaltynewton/internal/tui"
)

var (
	dataDir  string
	logLevel string
	noColor  bool

	configFile string
	preset     string
	verifier   string
	x1, x2     float64
	tolerance  float64
	maxIter    int
	penalties  []float64
	save       bool
	chart      bool
	asJSON     bool
	inspect    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "penaltynewton",
		Short:         "penalty continuation with damped newton steps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel, noColor)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".penaltynewton", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored logs")

	solveCmd := newSolveCmd()

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the report of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [run_id]",
		Short: "browse the stages of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERIFIER\tX0\tSTAGES\tTOL")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\n", name, p.Verifier, p.Start(), len(p.Penalties), p.Tolerance)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration (or --preset) to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configInitCmd.Flags().StringVar(&preset, "preset", "", "preset to write")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(solveCmd, listCmd, showCmd, exportJSONCmd, inspectCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "run the penalty continuation",
		Args:  cobra.NoArgs,
		RunE:  runSolve,
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&verifier, "verifier", config.DefaultVerifier, "reference optimizer (none, newton, bfgs, nelder-mead)")
	cmd.Flags().Float64Var(&x1, "x1", -6, "initial x1")
	cmd.Flags().Float64Var(&x2, "x2", -6, "initial x2")
	cmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "gradient norm tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "newton iterations per stage")
	cmd.Flags().Float64SliceVar(&penalties, "penalties", config.DefaultPenalties(), "penalty parameters R, in processing order")
	cmd.Flags().BoolVar(&save, "save", false, "store the run under --data")
	cmd.Flags().BoolVar(&chart, "chart", true, "plot the residual per stage")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as json")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "open the stage browser after solving")
	return cmd
}

func newLogger(level string, plain bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
		NoColor:    plain,
	})), nil
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("verifier") {
		cfg.Verifier = verifier
	}
	if flags.Changed("x1") {
		cfg.Initial.X1 = x1
	}
	if flags.Changed("x2") {
		cfg.Initial.X2 = x2
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("max-iter") {
		cfg.MaxIterations = maxIter
	}
	if flags.Changed("penalties") {
		cfg.Penalties = append([]float64(nil), penalties...)
	}

	return cfg, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, slog.Default())
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	res, err := exp.Run()
	if err != nil {
		return err
	}

	var sink report.Sink = &report.Console{
		Out:           os.Stdout,
		Constants:     cfg.Constants,
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
		Chart:         chart,
	}
	if asJSON {
		sink = &report.JSON{Out: os.Stdout}
	}
	if err := sink.Report(res); err != nil {
		return err
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(exp.Metadata(res), res)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run id: %s\n", runID)
	}

	if inspect {
		return tui.Run("penalty continuation", res, objective.NewQuadratic(cfg.Constants).Residual)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tVERIFIER\tSTAGES\tFINAL\tRESIDUAL\tCAPPED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.3e\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Verifier,
			len(run.Penalties),
			run.Final,
			run.Residual,
			run.CapReached,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s)\n\n", meta.ID, meta.Timestamp.Format("2006-01-02 15:04:05"))

	res, err := st.LoadResult(args[0])
	if os.IsNotExist(err) {
		slog.Warn("result.json missing, falling back to trajectory.csv", "run", meta.ID)
		points, penalties, err := st.LoadTrajectory(args[0])
		if err != nil {
			return err
		}
		return report.Trajectory(os.Stdout, meta.Constants, points, penalties)
	}
	if err != nil {
		return err
	}

	c := &report.Console{
		Out:           os.Stdout,
		Constants:     meta.Constants,
		Tolerance:     meta.Tolerance,
		MaxIterations: meta.MaxIterations,
		Chart:         true,
	}
	return c.Report(res)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Metadata *storage.RunMetadata `json:"metadata"`
		Result   any                  `json:"result"`
	}{meta, res})
}

func inspectRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return tui.Run(meta.ID, res, objective.NewQuadratic(meta.Constants).Residual)
}
