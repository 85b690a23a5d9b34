package sentinel

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/sentinelforge/sentinel/attest"
	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/geo"
	internalaudit "github.com/sentinelforge/sentinel/internal/audit"
	"github.com/sentinelforge/sentinel/internal/limiters"
	"github.com/sentinelforge/sentinel/password"
	"github.com/sentinelforge/sentinel/risk"
	"github.com/sentinelforge/sentinel/session"
)

// Builder assembles an Engine. It is single-use: Build validates the whole
// configuration, wires every component, and marks the builder spent.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	auditSink    AuditSink
	geoResolver  geo.Resolver

	built bool
}

// New creates a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing sessions and lockout tracking.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the application's user storage adapter.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink sets the destination for audit events. Ignored unless
// auditing is enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithGeoResolver sets the IP geolocation source. Optional; without one,
// location-based risk rules simply see no location.
func (b *Builder) WithGeoResolver(r geo.Resolver) *Builder {
	b.geoResolver = r
	return b
}

// WithMetricsEnabled toggles the metrics registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the assessment latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Engine. The sweeper
// starts here when enabled; callers own the returned engine and must Close
// it to stop background work.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password.argon2(), nil)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		sessions:  session.NewStore(b.redis, cfg.Session.RedisPrefix),
		users:     b.userProvider,
		hasher:    hasher,
		evaluator: password.NewEvaluator(cfg.Password.policy()),
		riskEngine: risk.NewEngine(risk.Config{
			SuspiciousCountries: cfg.Risk.SuspiciousCountries,
			TrustedCountries:    cfg.Risk.TrustedCountries,
		}),
		lockout:       limiters.NewLockoutLimiter(b.redis, cfg.Lockout.limiter()),
		fingerprinter: device.NewFingerprinter(nil),
		geo:           b.geoResolver,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	if cfg.Attest.Enabled {
		manager, err := attest.NewManager(attest.Config{
			TTL:           cfg.Attest.TTL,
			SigningMethod: attest.SigningMethod(cfg.Attest.SigningMethod),
			PrivateKey:    cfg.Attest.PrivateKey,
			PublicKey:     cfg.Attest.PublicKey,
			Issuer:        cfg.Attest.Issuer,
			KeyID:         cfg.Attest.KeyID,
			Leeway:        cfg.Attest.Leeway,
		})
		if err != nil {
			engine.Close()
			return nil, err
		}
		engine.attest = manager
	}

	if cfg.Sweep.Enabled {
		engine.sweeper = newSweeper(engine, cfg.Sweep.Interval)
	}

	b.built = true

	return engine, nil
}
