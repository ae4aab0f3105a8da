package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tickforge/lodsim/sim"
	"github.com/tickforge/lodsim/sim/metrics"
	"github.com/tickforge/lodsim/sim/scenario"
	"github.com/tickforge/lodsim/sim/trace"
)

var (
	configPath   string // YAML scenario file; defaults apply when empty
	seed         int64  // Overrides the scenario seed when set
	ticks        int    // Overrides the scenario length when set
	logLevel     string // Log verbosity level
	metricsAddr  string // Serve Prometheus metrics on this address when set
	traceLevel   string // Decision trace verbosity
	snapshotPath string // Write a zstd JSON snapshot of the final state here when set
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "lodsim",
	Short: "Deterministic level-of-detail scheduling simulator",
}

// runCmd runs the reference scenario and prints a summary.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reference scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		cfg, err := loadScenario(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		runID := uuid.NewString()
		logrus.Infof("run %s: seed=%d ticks=%d", runID, cfg.Seed, cfg.Ticks)

		opts := scenario.Options{Collector: metrics.NewCollector("lodsim")}
		if traceLevel != "" && trace.TraceLevel(traceLevel) != trace.TraceLevelNone {
			opts.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel), RunID: runID})
		}
		if metricsAddr != "" {
			serveMetrics(metricsAddr, opts.Collector)
		}

		start := time.Now()
		w, err := runScenario(*cfg, opts)
		if err != nil {
			logrus.Fatalf("run %s: %v", runID, err)
		}
		printSummary(os.Stdout, runID, w.Summary(), time.Since(start))
		if opts.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(opts.Trace))
		}

		if snapshotPath != "" {
			if err := scenario.WriteSnapshot(snapshotPath, w.Capture(runID)); err != nil {
				logrus.Fatalf("writing snapshot: %v", err)
			}
			logrus.Infof("snapshot written to %s", snapshotPath)
		}
		logrus.Info("Simulation complete.")
	},
}

// verifyCmd runs the scenario twice, populating the index in opposite
// orders, and fails unless both runs end in the same state.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that a scenario is independent of population order",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		cfg, err := loadScenario(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		forward, reverse, err := verifyScenario(*cfg)
		if err != nil {
			logrus.Fatalf("verify: %v", err)
		}
		fmt.Fprintf(os.Stdout, "forward %s\nreverse %s\n", forward, reverse)
		if forward != reverse {
			logrus.Fatalf("digests differ after %d ticks", cfg.Ticks)
		}
		fmt.Fprintln(os.Stdout, "OK")
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadScenario reads --config, if any, and applies flag overrides.
func loadScenario(cmd *cobra.Command) (*scenario.Config, error) {
	cfg := scenario.DefaultConfig()
	if configPath != "" {
		loaded, err := scenario.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("ticks") {
		cfg.Ticks = ticks
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runScenario(cfg scenario.Config, opts scenario.Options) (*scenario.World, error) {
	w, err := scenario.NewWorld(cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := w.Run(cfg.Ticks); err != nil {
		return nil, err
	}
	return w, nil
}

// verifyScenario returns the final digests of a forward and a reverse run.
func verifyScenario(cfg scenario.Config) (forward, reverse string, err error) {
	fw, err := runScenario(cfg, scenario.Options{})
	if err != nil {
		return "", "", err
	}
	rw, err := runScenario(cfg, scenario.Options{ReversePopulation: true})
	if err != nil {
		return "", "", err
	}
	return fw.Digest(), rw.Digest(), nil
}

func serveMetrics(addr string, c *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		logrus.Infof("serving metrics on %s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logrus.Errorf("metrics server: %v", err)
		}
	}()
}

func printSummary(out io.Writer, runID string, s scenario.Summary, elapsed time.Duration) {
	fmt.Fprintf(out, "=== Scenario Summary ===\n")
	fmt.Fprintf(out, "run_id:   %s\n", runID)
	fmt.Fprintf(out, "ticks:    %d (%v)\n", s.Tick, elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "agents:   %d\n", s.Agents)
	for i, n := range s.States {
		fmt.Fprintf(out, "  %-10s %d\n", sim.RepresentationState(i), n)
	}
	fmt.Fprintf(out, "output:   %d (backlog %d)\n", s.Output, s.Backlog)
	fmt.Fprintf(out, "applied:  %d (pending %d, budget stops %d, plans refused %d)\n",
		s.Probes.Applied, s.Pending, s.Probes.BudgetStops, s.Probes.PlansRefused)
	fmt.Fprintf(out, "digest:   %s\n", s.Digest)
}

func printTraceSummary(out io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintf(out, "=== Trace Summary ===\n")
	fmt.Fprintf(out, "plans:    %d (refused %d, truncated %d)\n", ts.TotalPlans, ts.RefusedPlans, ts.TruncatedPlans)
	fmt.Fprintf(out, "applies:  %d (dropped %d, promotions %d, demotions %d, cost %d)\n",
		ts.AppliedCount, ts.DroppedCount, ts.Promotions, ts.Demotions, ts.TotalCost)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, verifyCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Path to a YAML scenario file")
		c.Flags().Int64Var(&seed, "seed", 42, "Seed for population, players and hazards (overrides the scenario file)")
		c.Flags().IntVar(&ticks, "ticks", 200, "Number of ticks to simulate (overrides the scenario file)")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		rootCmd.AddCommand(c)
	}
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, plans, decisions)")
	runCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write a compressed snapshot of the final state to this path")
}
