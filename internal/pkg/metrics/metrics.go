// Package metrics holds the Prometheus collectors for the token store.
package metrics

import (
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProviderSet is metrics providers.
var ProviderSet = wire.NewSet(
	NewRegistry,
	NewStore,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
)

const (
	namespace = "token"
	subsystem = "store"

	LabelOp     = "op"
	LabelResult = "result"

	ResultOK    = "ok"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Store 存储层指标
type Store struct {
	Commands   *prometheus.CounterVec
	Reconnects *prometheus.CounterVec
	LockWait   prometheus.Histogram
}

// NewRegistry 创建独立的 Registry，并注册进程与 Go 运行时指标
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return r
}

// NewStore 创建并注册存储层指标，r 为 nil 时只创建不注册
func NewStore(r prometheus.Registerer) *Store {
	s := &Store{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_total",
			Help:      "Number of token store operations by operation and result.",
		}, []string{LabelOp, LabelResult}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconnects_total",
			Help:      "Number of attempts to reestablish the shared store connection.",
		}, []string{LabelResult}),
		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for exclusive access to the shared store connection.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
	if r != nil {
		r.MustRegister(s.Commands, s.Reconnects, s.LockWait)
	}
	return s
}

func (s *Store) ObserveCommand(op, result string) {
	s.Commands.WithLabelValues(op, result).Inc()
}

func (s *Store) ObserveReconnect(err error) {
	s.Reconnects.WithLabelValues(resultOf(err)).Inc()
}

func (s *Store) ObserveLockWait(start time.Time) {
	s.LockWait.Observe(time.Since(start).Seconds())
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
