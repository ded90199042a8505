package dispatcher

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/weaveworks/pubbot/common"
	"github.com/weaveworks/pubbot/update"
)

var (
	updatesDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PrometheusNamespace,
		Name:      "updates_dispatched_total",
		Help:      "Number of decoded updates dispatched, by kind.",
	}, []string{"kind"})
	handlerInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PrometheusNamespace,
		Name:      "handler_invocations_total",
		Help:      "Number of handler invocations, by outcome.",
	}, []string{"kind", "handler", "result"})
	handlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: common.PrometheusNamespace,
		Name:      "handler_duration_seconds",
		Help:      "Time spent in handlers.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind", "handler"})
)

func init() {
	prometheus.MustRegister(updatesDispatched, handlerInvocations, handlerDuration)
}

// Dispatcher fans updates out to the bindings built by a Registry. It keeps no
// state between dispatches, so the same update dispatched twice runs its
// handlers twice.
type Dispatcher struct {
	bindings map[update.Kind][]Binding
}

// Dispatch decodes a raw update and runs every eligible handler, returning
// once they all finished. Only decoding errors are returned; handler failures
// are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) error {
	log.Debugf("update: %s", raw)
	u, err := update.Decode(raw)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	d.DispatchUpdate(ctx, u)
	return nil
}

// Match returns the bindings eligible for u, in registration order.
func (d *Dispatcher) Match(u update.Update) []Binding {
	var matched []Binding
	for _, b := range d.bindings[u.Kind()] {
		if b.Matches(u) {
			matched = append(matched, b)
		}
	}
	return matched
}

// DispatchUpdate runs every eligible handler for u concurrently and waits for all of them.
func (d *Dispatcher) DispatchUpdate(ctx context.Context, u update.Update) {
	updatesDispatched.WithLabelValues(string(u.Kind())).Inc()
	var wg sync.WaitGroup
	for _, b := range d.Match(u) {
		wg.Add(1)
		go func(b Binding) {
			defer wg.Done()
			invoke(ctx, b, u)
		}(b)
	}
	wg.Wait()
}

func invoke(ctx context.Context, b Binding, u update.Update) {
	logger := log.WithFields(log.Fields{
		"update_id": u.ID(),
		"kind":      u.Kind(),
		"handler":   b.Name,
	})
	start := time.Now()
	result := "success"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			logger.WithField("panic", fmt.Sprint(r)).Errorf("handler panicked\n%s", debug.Stack())
		}
		handlerDuration.WithLabelValues(string(b.Kind), b.Name).Observe(time.Since(start).Seconds())
		handlerInvocations.WithLabelValues(string(b.Kind), b.Name, result).Inc()
	}()

	if err := b.Handler.Handle(ctx, u); err != nil {
		result = "error"
		logger.WithError(err).Error("handler failed")
	}
}
