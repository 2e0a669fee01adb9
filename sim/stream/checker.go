package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/kongo-sim/kongo-sim/sim"
)

// Occupancy answers which goods are at a location right now.
// *sim.Simulator, *sim.Snapshot and *sim.World all satisfy it.
type Occupancy interface {
	GoodsAt(locationID string) ([]*sim.Goods, error)
}

// ViolationReport describes one goods item whose tolerance a reading broke.
type ViolationReport struct {
	ID              ulid.ULID
	Tick            int64
	GoodsID         string
	GoodsCategories []string
	OriginKind      sim.OriginKind
	OriginID        string
	Metric          sim.Metric
	Value           float64
	Violations      []sim.Violation
}

// ReportFunc receives violation reports. It is called from consumer
// goroutines and must be safe for concurrent use.
type ReportFunc func(ViolationReport)

// Checker consumes location queues and reports goods tolerance violations.
type Checker struct {
	occupancy Occupancy
	report    ReportFunc
	metrics   *Metrics
}

// NewChecker creates a checker. A nil occupancy makes consumers drain their
// queues without checking; report and m may be nil.
func NewChecker(occupancy Occupancy, report ReportFunc, m *Metrics) *Checker {
	return &Checker{occupancy: occupancy, report: report, metrics: m}
}

// Run consumes sub until ctx is cancelled or the router is closed and the
// queue drained. Both are clean stops and return nil.
func (c *Checker) Run(ctx context.Context, sub *Subscription) error {
	dedup := newDeduper()
	for {
		r, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrRouterClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logrus.Debugf("stream: consumer %s stopped: %v", sub.Location(), err)
				return nil
			}
			return err
		}
		if !dedup.first(r) {
			logrus.Debugf("stream: duplicate reading skipped: %s", r)
			continue
		}
		c.check(r)
	}
}

// Serve runs one consumer per subscription and waits for all of them.
func (c *Checker) Serve(ctx context.Context, subs []*Subscription) error {
	var wg sync.WaitGroup
	errs := make([]error, len(subs))
	for i, sub := range subs {
		i, sub := i, sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Run(ctx, sub)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (c *Checker) check(r sim.Reading) {
	if c.occupancy == nil {
		return
	}
	goods, err := c.occupancy.GoodsAt(r.OriginID)
	if err != nil {
		logrus.WithError(err).Warnf("stream: cannot check %s", r)
		return
	}
	for _, g := range goods {
		vs := sim.ViolatesSensorTolerance(g, r)
		if len(vs) == 0 {
			continue
		}
		rep := ViolationReport{
			ID:              ulid.Make(),
			Tick:            r.Tick,
			GoodsID:         g.ID,
			GoodsCategories: g.Categories.Strings(),
			OriginKind:      r.OriginKind,
			OriginID:        r.OriginID,
			Metric:          r.Metric,
			Value:           r.Value,
			Violations:      vs,
		}
		logrus.WithFields(logrus.Fields{
			"goods":      g.ID,
			"origin":     r.OriginID,
			"metric":     r.Metric,
			"value":      r.Value,
			"categories": g.Categories.String(),
		}).Warnf("[tick %d] sensor violation", r.Tick)
		c.metrics.violation(string(r.Metric))
		if c.report != nil {
			c.report(rep)
		}
	}
}

// deduper drops repeated (tick, metric) deliveries on one location's stream.
// Readings arrive in tick order, so only the current tick needs remembering.
type deduper struct {
	tick    int64
	started bool
	seen    map[sim.Metric]struct{}
}

func newDeduper() *deduper {
	return &deduper{seen: make(map[sim.Metric]struct{})}
}

func (d *deduper) first(r sim.Reading) bool {
	switch {
	case !d.started || r.Tick > d.tick:
		d.started = true
		d.tick = r.Tick
		clear(d.seen)
	case r.Tick < d.tick:
		return false
	}
	if _, ok := d.seen[r.Metric]; ok {
		return false
	}
	d.seen[r.Metric] = struct{}{}
	return true
}
