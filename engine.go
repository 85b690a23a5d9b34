package sentinel

import (
	"time"

	"github.com/sentinelforge/sentinel/attest"
	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/geo"
	internalaudit "github.com/sentinelforge/sentinel/internal/audit"
	"github.com/sentinelforge/sentinel/internal/flows"
	"github.com/sentinelforge/sentinel/internal/limiters"
	"github.com/sentinelforge/sentinel/password"
	"github.com/sentinelforge/sentinel/risk"
	"github.com/sentinelforge/sentinel/session"
)

// Engine is the assembled security core. Build it with [Builder]; a zero
// Engine is not usable. All methods are safe for concurrent use.
type Engine struct {
	config Config

	sessions      *session.Store
	users         UserProvider
	hasher        *password.Hasher
	evaluator     *password.Evaluator
	riskEngine    *risk.Engine
	lockout       *limiters.LockoutLimiter
	fingerprinter *device.Fingerprinter
	geo           geo.Resolver
	attest        *attest.Manager

	audit   *internalaudit.Dispatcher
	metrics *Metrics
	sweeper *sweeper
}

// Close stops the background sweeper and flushes the audit pipeline.
// Engine methods must not be called after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.sweeper != nil {
		e.sweeper.stop()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped due to a full
// buffer since the engine was built.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all metric values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	if e == nil || e.metrics == nil {
		return
	}
	for i := 0; i < n; i++ {
		e.metrics.Inc(id)
	}
}

func (e *Engine) ready() bool {
	return e != nil && e.sessions != nil && e.users != nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func (e *Engine) validateDeps() flows.ValidateDeps {
	return flows.ValidateDeps{
		Now:           nowUTC,
		MaxSessionAge: e.config.Session.MaxSessionAge,
	}
}

func (e *Engine) securityDeps() flows.SecurityDeps {
	return flows.SecurityDeps{
		Now:            nowUTC,
		PasswordMaxAge: e.config.Password.MaxAge,
	}
}

func (e *Engine) lifecycleDeps() flows.LifecycleDeps {
	return flows.LifecycleDeps{
		Now:        nowUTC,
		Workers:    e.config.Session.RevokeWorkers,
		SweepBatch: e.config.Sweep.BatchSize,
	}
}
