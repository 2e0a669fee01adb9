// Package stream delivers sensor readings from the tick loop to per-location
// consumers and checks them against the tolerances of the goods present.
package stream

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/kongo-sim/kongo-sim/sim"
)

// feed is the per-location state: one queue and its two counters.
type feed struct {
	queue    *readingQueue
	produced atomic.Int64
	consumed atomic.Int64

	// gaugeMu orders lag gauge writes so the last write sees both counters.
	gaugeMu sync.Mutex
}

func (c *feed) lag() int64 {
	return c.produced.Load() - c.consumed.Load()
}

// Router fans readings out to one ordered queue per location.
//
// Publish never blocks. Readings for one location are delivered in publish
// order; there is no ordering across locations. Counters survive Close so lag
// can be inspected after shutdown.
type Router struct {
	metrics *Metrics

	mu     sync.RWMutex
	feeds  map[string]*feed
	closed bool
}

// NewRouter creates an empty router. m may be nil.
func NewRouter(m *Metrics) *Router {
	return &Router{
		metrics: m,
		feeds:   make(map[string]*feed),
	}
}

// Subscription is the consuming end of one location's queue.
type Subscription struct {
	location string
	ch       *feed
	router   *Router
}

// Location returns the subscribed location id.
func (s *Subscription) Location() string { return s.location }

// Next blocks until a reading is available and returns it. It returns
// ctx.Err() as soon as ctx is cancelled, leaving queued readings as lag, and
// ErrRouterClosed once the router is closed and the queue drained.
func (s *Subscription) Next(ctx context.Context) (sim.Reading, error) {
	for {
		if err := ctx.Err(); err != nil {
			return sim.Reading{}, err
		}
		r, ok, drained := s.ch.queue.tryDequeue()
		if ok {
			s.ch.consumed.Add(1)
			s.router.metrics.consumed(s.location)
			s.router.updateLag(s.location, s.ch)
			return r, nil
		}
		if drained {
			return sim.Reading{}, routerClosed(s.location)
		}
		select {
		case <-ctx.Done():
			return sim.Reading{}, ctx.Err()
		case <-s.ch.queue.wait():
		}
	}
}

// Subscribe registers the single consumer of locationID.
func (r *Router) Subscribe(locationID string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, routerClosed(locationID)
	}
	if _, ok := r.feeds[locationID]; ok {
		return nil, oops.
			Code("ALREADY_SUBSCRIBED").
			With("location", locationID).
			Wrapf(ErrAlreadySubscribed, "location %q", locationID)
	}
	ch := &feed{queue: newReadingQueue()}
	r.feeds[locationID] = ch
	logrus.Debugf("stream: subscribed %s", locationID)
	return &Subscription{location: locationID, ch: ch, router: r}, nil
}

// SubscribeAll subscribes every location in order, stopping at the first error.
func (r *Router) SubscribeAll(locationIDs ...string) ([]*Subscription, error) {
	subs := make([]*Subscription, 0, len(locationIDs))
	for _, id := range locationIDs {
		sub, err := r.Subscribe(id)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Publish appends reading to the queue of its origin location. It fails with
// ErrNoSubscriber or ErrRouterClosed; a failed reading is not counted as produced.
func (r *Router) Publish(reading sim.Reading) error {
	r.mu.RLock()
	ch, ok := r.feeds[reading.OriginID]
	closed := r.closed
	r.mu.RUnlock()

	if closed {
		r.metrics.routingFailure(reasonClosed)
		return routerClosed(reading.OriginID)
	}
	if !ok {
		r.metrics.routingFailure(reasonNoSubscriber)
		return noSubscriber(reading.OriginID)
	}
	// count first so a fast consumer never drives lag below zero
	ch.produced.Add(1)
	if !ch.queue.enqueue(reading) {
		ch.produced.Add(-1)
		r.metrics.routingFailure(reasonClosed)
		return routerClosed(reading.OriginID)
	}
	r.metrics.produced(reading.OriginID)
	r.updateLag(reading.OriginID, ch)
	return nil
}

// updateLag publishes the current lag of ch. Reading the counters under
// gaugeMu means whichever goroutine writes last writes the newest value.
func (r *Router) updateLag(location string, ch *feed) {
	if r.metrics == nil {
		return
	}
	ch.gaugeMu.Lock()
	defer ch.gaugeMu.Unlock()
	r.metrics.lag(location, ch.lag())
}

func (r *Router) lookup(locationID string) (*feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.feeds[locationID]
	return ch, ok
}

// Lag returns produced minus consumed for locationID.
func (r *Router) Lag(locationID string) (int64, error) {
	ch, ok := r.lookup(locationID)
	if !ok {
		return 0, noSubscriber(locationID)
	}
	return ch.lag(), nil
}

// Produced returns how many readings were accepted for locationID.
func (r *Router) Produced(locationID string) int64 {
	if ch, ok := r.lookup(locationID); ok {
		return ch.produced.Load()
	}
	return 0
}

// Consumed returns how many readings the consumer of locationID has taken.
func (r *Router) Consumed(locationID string) int64 {
	if ch, ok := r.lookup(locationID); ok {
		return ch.consumed.Load()
	}
	return 0
}

// Pending returns the number of readings still queued for locationID.
func (r *Router) Pending(locationID string) int {
	if ch, ok := r.lookup(locationID); ok {
		return ch.queue.len()
	}
	return 0
}

// Locations returns every subscribed location, sorted.
func (r *Router) Locations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.feeds))
	for id := range r.feeds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TotalLag sums the lag of every location.
func (r *Router) TotalLag() int64 {
	var total int64
	for _, id := range r.Locations() {
		lag, _ := r.Lag(id)
		total += lag
	}
	return total
}

// Close stops accepting readings and wakes every consumer. Consumers drain
// what is already queued before seeing ErrRouterClosed. Safe to call twice.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, ch := range r.feeds {
		ch.queue.close()
	}
	logrus.Debugf("stream: router closed with %d locations", len(r.feeds))
}
