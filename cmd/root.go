package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kongo-sim/kongo-sim/sim"
	"github.com/kongo-sim/kongo-sim/sim/trace"
)

var (
	// CLI flags; explicitly set flags override values from --config
	configPath         string        // YAML run configuration
	goods              int           // goods items created at setup
	gridWidth          int           // warehouses per grid row
	gridHeight         int           // warehouse grid rows
	trucks             int           // total trucks (0 = trucks-per-warehouse × warehouses)
	trucksPerWarehouse int           // trucks per warehouse when --trucks is 0
	ticks              int64         // simulated hours
	seed               int64         // master seed
	enforceTemperature bool          // temperature rules for placement, loading and relocation
	enforceHazardous   bool          // co-loading rules for hazardous goods
	checkGoods         bool          // run violation checkers
	loadProbability    float64       // per-goods load attempt chance per tick
	logLevel           string        // log verbosity level
	traceLevel         string        // decision trace level
	metricsAddr        string        // Prometheus listen address, empty disables
	drainTimeout       time.Duration // how long consumers may drain after the last tick
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "kongo-sim",
	Short: "Tick-driven simulator of a warehouse and truck fleet with sensor streams",
}

// runCmd executes the simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the fleet simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q; valid: none, decisions", traceLevel)
		}

		reg := prometheus.NewRegistry()
		if metricsAddr != "" {
			srv, err := startMetricsServer(metricsAddr, reg)
			if err != nil {
				logrus.Fatalf("Metrics server: %v", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.stop(ctx); err != nil {
					logrus.Warnf("Metrics server shutdown: %v", err)
				}
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logrus.Infof("Starting simulation: grid=%dx%d trucks=%d goods=%d ticks=%d seed=%d temp-rules=%v hazard-rules=%v",
			cfg.GridWidth, cfg.GridHeight, cfg.TruckCount(), cfg.Goods, cfg.Ticks, cfg.Seed,
			cfg.EnforceTemperatureRules, cfg.EnforceHazardousRules)

		res, err := runSimulation(ctx, cfg, runOptions{
			TraceLevel:   trace.TraceLevel(traceLevel),
			Registerer:   reg,
			DrainTimeout: drainTimeout,
		})
		if res != nil {
			res.Print()
		}
		if interrupted(err) {
			logrus.Info("Simulation interrupted; partial results above.")
			return
		}
		if err != nil {
			logrus.Fatalf("Simulation stopped: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// validateCmd loads and checks a configuration without running it
var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Check a run configuration and print the resolved values",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		printConfig(cmd.OutOrStdout(), cfg)
	},
}

// interrupted reports whether err is a signal-driven stop rather than a failure.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveConfig starts from the defaults or --config and applies every flag
// the user set explicitly.
func resolveConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	applyFlagOverrides(&cfg, cmd.Flags().Changed)
	return cfg, cfg.Validate()
}

// applyFlagOverrides copies flag values into cfg for every flag changed reports as set.
func applyFlagOverrides(cfg *sim.Config, changed func(name string) bool) {
	if changed("goods") {
		cfg.Goods = goods
	}
	if changed("grid-width") {
		cfg.GridWidth = gridWidth
	}
	if changed("grid-height") {
		cfg.GridHeight = gridHeight
	}
	if changed("trucks") {
		cfg.Trucks = trucks
	}
	if changed("trucks-per-warehouse") {
		cfg.TrucksPerWarehouse = trucksPerWarehouse
	}
	if changed("ticks") {
		cfg.Ticks = ticks
	}
	if changed("seed") {
		cfg.Seed = seed
	}
	if changed("enforce-temperature-rules") {
		cfg.EnforceTemperatureRules = enforceTemperature
	}
	if changed("enforce-hazardous-rules") {
		cfg.EnforceHazardousRules = enforceHazardous
	}
	if changed("check-goods") {
		cfg.CheckGoods = checkGoods
	}
	if changed("load-probability") {
		cfg.LoadProbability = loadProbability
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerConfigFlags adds the flags shared by run and validate-config.
func registerConfigFlags(cmd *cobra.Command) {
	def := sim.DefaultConfig()
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML run configuration")
	cmd.Flags().IntVar(&goods, "goods", def.Goods, "Number of goods items")
	cmd.Flags().IntVar(&gridWidth, "grid-width", def.GridWidth, "Warehouses per grid row")
	cmd.Flags().IntVar(&gridHeight, "grid-height", def.GridHeight, "Warehouse grid rows")
	cmd.Flags().IntVar(&trucks, "trucks", def.Trucks, "Total trucks (0 = trucks-per-warehouse × warehouses)")
	cmd.Flags().IntVar(&trucksPerWarehouse, "trucks-per-warehouse", def.TrucksPerWarehouse, "Trucks per warehouse")
	cmd.Flags().Int64Var(&ticks, "ticks", def.Ticks, "Simulated hours")
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for all random draws")
	cmd.Flags().BoolVar(&enforceTemperature, "enforce-temperature-rules", def.EnforceTemperatureRules, "Respect temperature ranges when placing, loading and relocating")
	cmd.Flags().BoolVar(&enforceHazardous, "enforce-hazardous-rules", def.EnforceHazardousRules, "Reject loads that conflict with goods already on the truck")
	cmd.Flags().BoolVar(&checkGoods, "check-goods", def.CheckGoods, "Check sensor readings against goods tolerances")
	cmd.Flags().Float64Var(&loadProbability, "load-probability", def.LoadProbability, "Chance a warehoused goods item attempts a load each tick")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// init sets up CLI flags and subcommands
func init() {
	registerConfigFlags(runCmd)
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	runCmd.Flags().DurationVar(&drainTimeout, "drain-timeout", 10*time.Second, "Time consumers may spend draining queues after the last tick")
	rootCmd.AddCommand(runCmd)

	registerConfigFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
