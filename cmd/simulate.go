package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/kongo-sim/kongo-sim/sim"
	"github.com/kongo-sim/kongo-sim/sim/fleet"
	"github.com/kongo-sim/kongo-sim/sim/stream"
	"github.com/kongo-sim/kongo-sim/sim/trace"
)

// runOptions carries the settings that are not part of sim.Config.
type runOptions struct {
	TraceLevel   trace.TraceLevel      // "" behaves as none
	Registerer   prometheus.Registerer // nil leaves stream metrics unregistered
	DrainTimeout time.Duration         // <= 0 waits for consumers indefinitely
}

// runResult is what a finished (or interrupted) run reports.
type runResult struct {
	Metrics    *sim.Metrics
	Trace      *trace.TraceSummary // nil when tracing is off
	Violations int64               // violation reports emitted by checkers
	Lag        int64               // readings left unconsumed after draining
}

// runSimulation builds the fleet, subscribes one checker per location, runs
// every tick and then drains the consumers. The result is non-nil whenever
// the simulator was constructed, even if ctx was cancelled.
func runSimulation(ctx context.Context, cfg sim.Config, opts runOptions) (*runResult, error) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	world, err := fleet.Build(cfg, rng)
	if err != nil {
		return nil, err
	}

	var tr *trace.SimulationTrace
	if opts.TraceLevel != "" && opts.TraceLevel != trace.TraceLevelNone {
		tr = trace.NewSimulationTrace(opts.TraceLevel)
	}

	metrics := stream.NewMetrics(opts.Registerer)
	router := stream.NewRouter(metrics)
	locations := append(world.TruckIDs(), world.WarehouseIDs()...)
	subs, err := router.SubscribeAll(locations...)
	if err != nil {
		return nil, err
	}

	s, err := sim.NewSimulator(cfg, world, rng, router, tr)
	if err != nil {
		return nil, err
	}

	var occupancy stream.Occupancy
	if cfg.CheckGoods {
		occupancy = s
	}
	var violations atomic.Int64
	checker := stream.NewChecker(occupancy, func(stream.ViolationReport) { violations.Add(1) }, metrics)

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()
	done := make(chan error, 1)
	go func() { done <- checker.Serve(consumerCtx, subs) }()

	runErr := s.Run(ctx)
	router.Close()
	if err := drain(done, cancelConsumers, opts.DrainTimeout, router); err != nil && runErr == nil {
		runErr = err
	}

	res := &runResult{
		Metrics:    s.Metrics,
		Violations: violations.Load(),
		Lag:        router.TotalLag(),
	}
	if tr != nil {
		res.Trace = trace.Summarize(tr)
	}
	return res, runErr
}

// drain waits for the consumers to empty their queues. After timeout they are
// cancelled and whatever is still queued stays as lag.
func drain(done <-chan error, cancel context.CancelFunc, timeout time.Duration, router *stream.Router) error {
	if timeout <= 0 {
		return <-done
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		logrus.Warnf("Drain timeout after %s with %d readings unconsumed", timeout, router.TotalLag())
		cancel()
		return <-done
	}
}

// Print writes the run summary to stdout.
func (r *runResult) Print() {
	r.Metrics.Print()
	r.write(os.Stdout)
}

// write prints the stream and trace sections of the summary.
func (r *runResult) write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Violations           : %d\n", r.Violations)
	_, _ = fmt.Fprintf(w, "Unconsumed Readings  : %d\n", r.Lag)
	if r.Trace == nil {
		return
	}
	_, _ = fmt.Fprintln(w, "=== Decision Trace ===")
	_, _ = fmt.Fprintf(w, "Load Attempts        : %d (admitted %d, rejected %d)\n",
		r.Trace.LoadAttempts, r.Trace.AdmittedCount, r.Trace.RejectedCount)
	reasons := make([]string, 0, len(r.Trace.RejectionReasons))
	for reason := range r.Trace.RejectionReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		_, _ = fmt.Fprintf(w, "  %-24s: %d\n", reason, r.Trace.RejectionReasons[reason])
	}
	_, _ = fmt.Fprintf(w, "Relocations          : %d (fallbacks %d, mean draws %.2f, %d destinations)\n",
		r.Trace.Relocations, r.Trace.Fallbacks, r.Trace.MeanCandidates, r.Trace.UniqueDestinations)
}

// printConfig writes the resolved configuration.
func printConfig(w io.Writer, cfg sim.Config) {
	_, _ = fmt.Fprintln(w, "=== Configuration ===")
	_, _ = fmt.Fprintf(w, "Grid                 : %dx%d (%d warehouses)\n", cfg.GridWidth, cfg.GridHeight, cfg.WarehouseCount())
	_, _ = fmt.Fprintf(w, "Trucks               : %d\n", cfg.TruckCount())
	_, _ = fmt.Fprintf(w, "Goods                : %d\n", cfg.Goods)
	_, _ = fmt.Fprintf(w, "Ticks                : %d\n", cfg.Ticks)
	_, _ = fmt.Fprintf(w, "Seed                 : %d\n", cfg.Seed)
	_, _ = fmt.Fprintf(w, "Load Probability     : %.2f\n", cfg.LoadProbability)
	_, _ = fmt.Fprintf(w, "Temperature Rules    : %v\n", cfg.EnforceTemperatureRules)
	_, _ = fmt.Fprintf(w, "Hazardous Rules      : %v\n", cfg.EnforceHazardousRules)
	_, _ = fmt.Fprintf(w, "Check Goods          : %v\n", cfg.CheckGoods)
}
