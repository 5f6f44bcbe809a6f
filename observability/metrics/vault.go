package metrics

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics tracks ledger operations and the global reserve counters.
type VaultMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	events     *prometheus.CounterVec
	totals     *prometheus.GaugeVec
}

var (
	vaultOnce     sync.Once
	vaultRegistry *VaultMetrics
)

// Vault returns the process-wide vault metrics registered with the default
// prometheus registerer.
func Vault() *VaultMetrics {
	vaultOnce.Do(func() {
		vaultRegistry = NewVaultMetrics(prometheus.DefaultRegisterer)
	})
	return vaultRegistry
}

// NewVaultMetrics builds an isolated metrics set. A nil registerer skips
// registration, which tests use to read values through testutil.
func NewVaultMetrics(reg prometheus.Registerer) *VaultMetrics {
	m := &VaultMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservevault",
			Name:      "operations_total",
			Help:      "Ledger operations segmented by name and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reservevault",
			Name:      "operation_duration_seconds",
			Help:      "Time spent executing and committing ledger operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservevault",
			Name:      "events_total",
			Help:      "Committed ledger events by type.",
		}, []string{"type"}),
		totals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reservevault",
			Name:      "totals",
			Help:      "Global reserve counters after the latest commit.",
		}, []string{"counter"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.latency, m.events, m.totals)
	}
	return m
}

// ObserveOperation records the outcome and latency of one executed operation.
func (m *VaultMetrics) ObserveOperation(name string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unknown"
	}
	outcome := "committed"
	if err != nil {
		outcome = "reverted"
	}
	m.operations.WithLabelValues(name, outcome).Inc()
	m.latency.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveEvent counts a committed event.
func (m *VaultMetrics) ObserveEvent(eventType string) {
	if m == nil || eventType == "" {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

// SetTotal publishes a global counter. Values beyond float64 precision are
// approximated.
func (m *VaultMetrics) SetTotal(counter string, value *uint256.Int) {
	if m == nil || counter == "" {
		return
	}
	if value == nil {
		m.totals.WithLabelValues(counter).Set(0)
		return
	}
	f, _ := new(big.Float).SetInt(value.ToBig()).Float64()
	m.totals.WithLabelValues(counter).Set(f)
}
