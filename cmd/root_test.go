package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kongo-sim/kongo-sim/sim"
	"github.com/kongo-sim/kongo-sim/sim/stream"
	"github.com/kongo-sim/kongo-sim/sim/trace"
)

func smallRunConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.GridWidth, cfg.GridHeight = 3, 2
	cfg.Goods = 40
	cfg.Ticks = 4
	return cfg
}

func TestApplyFlagOverrides_OnlyChangedFlags(t *testing.T) {
	// GIVEN a config loaded from a file and flag values that differ from it
	cfg := smallRunConfig()
	oldTicks, oldSeed, oldGoods, oldHaz := ticks, seed, goods, enforceHazardous
	t.Cleanup(func() { ticks, seed, goods, enforceHazardous = oldTicks, oldSeed, oldGoods, oldHaz })
	ticks, seed, goods = 99, 7, 12345
	enforceHazardous = true
	changed := map[string]bool{"ticks": true, "enforce-hazardous-rules": true}

	// WHEN only --ticks and --enforce-hazardous-rules were set on the command line
	applyFlagOverrides(&cfg, func(name string) bool { return changed[name] })

	// THEN those two fields follow the flags and the rest keep file values
	assert.Equal(t, int64(99), cfg.Ticks)
	assert.True(t, cfg.EnforceHazardousRules)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 40, cfg.Goods)
}

func TestResolveConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("goods: 10\nticks: 3\ngrid_width: 2\ngrid_height: 2\n"), 0o644))

	oldPath := configPath
	configPath = path
	t.Cleanup(func() { configPath = oldPath })

	cmd := validateCmd
	require.NoError(t, cmd.Flags().Set("ticks", "8"))
	t.Cleanup(func() {
		_ = cmd.Flags().Set("ticks", "10")
		cmd.Flags().Lookup("ticks").Changed = false
	})

	cfg, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Goods)
	assert.Equal(t, int64(8), cfg.Ticks)
	assert.Equal(t, 4, cfg.WarehouseCount())
}

func TestResolveConfig_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_width: 0\n"), 0o644))
	oldPath := configPath
	configPath = path
	t.Cleanup(func() { configPath = oldPath })

	_, err := resolveConfig(validateCmd)
	assert.True(t, errors.Is(err, sim.ErrInvalidConfig))
}

func TestRunSimulation_DrainsEveryReading(t *testing.T) {
	// GIVEN a small fleet with goods checking on
	cfg := smallRunConfig()

	// WHEN the simulation runs to completion
	res, err := runSimulation(context.Background(), cfg, runOptions{
		TraceLevel: trace.TraceLevelDecisions,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	// THEN every reading was routed and consumed
	perTick := cfg.TruckCount()*len(sim.TruckMetrics) + cfg.WarehouseCount()*len(sim.WarehouseMetrics)
	assert.Equal(t, int(cfg.Ticks)*perTick, res.Metrics.Readings)
	assert.Zero(t, res.Metrics.RoutingFailures)
	assert.Zero(t, res.Lag)
	assert.Equal(t, int(cfg.Ticks)*cfg.TruckCount(), res.Metrics.Moves)
	require.NotNil(t, res.Trace)
	assert.Equal(t, res.Metrics.Moves, res.Trace.Relocations)
	assert.Equal(t, res.Metrics.Loads, res.Trace.AdmittedCount)
}

func TestRunSimulation_SameSeedSameMovements(t *testing.T) {
	run := func() *sim.Metrics {
		res, err := runSimulation(context.Background(), smallRunConfig(), runOptions{})
		require.NoError(t, err)
		return res.Metrics
	}
	a, b := run(), run()
	assert.Equal(t, a.Loads, b.Loads)
	assert.Equal(t, a.Unloads, b.Unloads)
	assert.Equal(t, a.Moves, b.Moves)
	assert.Equal(t, a.Readings, b.Readings)
}

func TestRunSimulation_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := runSimulation(ctx, smallRunConfig(), runOptions{DrainTimeout: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.Metrics.Ticks)
}

// slowOccupancy holds each consumer for a while per reading.
type slowOccupancy struct{ delay time.Duration }

func (o slowOccupancy) GoodsAt(string) ([]*sim.Goods, error) {
	time.Sleep(o.delay)
	return nil, nil
}

func TestDrain_TimeoutLeavesBacklogAsLag(t *testing.T) {
	// GIVEN a consumer far behind a large backlog
	router := stream.NewRouter(nil)
	subs, err := router.SubscribeAll("W1")
	require.NoError(t, err)
	const backlog = 5000
	for i := int64(1); i <= backlog; i++ {
		require.NoError(t, router.Publish(sim.Reading{Tick: i, OriginID: "W1", Metric: sim.MetricOzone}))
	}
	router.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	checker := stream.NewChecker(slowOccupancy{delay: time.Millisecond}, nil, nil)
	go func() { done <- checker.Serve(ctx, subs) }()

	// WHEN the drain timeout expires
	start := time.Now()
	err = drain(done, cancel, 20*time.Millisecond, router)

	// THEN consumers stop promptly and the rest stays as lag
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Greater(t, router.TotalLag(), int64(0))
	assert.Equal(t, int64(backlog), router.Consumed("W1")+router.TotalLag())
}

func TestInterrupted(t *testing.T) {
	assert.True(t, interrupted(context.Canceled))
	assert.True(t, interrupted(fmt.Errorf("run: %w", context.Canceled)))
	assert.False(t, interrupted(nil))
	assert.False(t, interrupted(sim.ErrInvalidConfig))
}

func TestRunSimulation_InvalidConfig(t *testing.T) {
	cfg := smallRunConfig()
	cfg.LoadProbability = 3
	_, err := runSimulation(context.Background(), cfg, runOptions{})
	assert.True(t, errors.Is(err, sim.ErrInvalidConfig))
}

func TestRunResult_WriteIncludesTrace(t *testing.T) {
	res := &runResult{
		Metrics:    sim.NewMetrics(),
		Violations: 3,
		Trace: &trace.TraceSummary{
			LoadAttempts:     5,
			AdmittedCount:    4,
			RejectedCount:    1,
			RejectionReasons: map[string]int{trace.ReasonHazardous: 1},
		},
	}
	var buf bytes.Buffer
	res.write(&buf)
	out := buf.String()
	assert.Contains(t, out, "Violations           : 3")
	assert.Contains(t, out, trace.ReasonHazardous)
	assert.Contains(t, out, "admitted 4")
}

func TestMetricsServer_ServesStreamMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv, err := startMetricsServer("127.0.0.1:0", reg)
	require.NoError(t, err)

	_, err = runSimulation(context.Background(), smallRunConfig(), runOptions{Registerer: reg})
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + srv.addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "kongo_readings_produced_total")
	assert.Contains(t, string(body), "kongo_consumer_lag")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.stop(ctx))
}
