package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/arkoze/authcore/internal/audit"
	"github.com/arkoze/authcore/jwt"
	"github.com/arkoze/authcore/password"
)

// Builder assembles an Engine from its configuration and collaborators.
// A Builder is single-use: Build succeeds at most once.
type Builder struct {
	config Config
	redis  *redis.Client

	userStore UserStore
	notifier  Notifier
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
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

// WithRedis sets the Redis client backing all ephemeral stores.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the durable account store collaborator.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithNotifier sets the outbound delivery collaborator. Leaving it unset
// is an error; use NoOpNotifier to opt out of delivery explicitly.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink sets the sink receiving audit events. Without one, audit
// events are discarded even when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process metrics collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histogram collection.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every store against the Redis
// client, and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.userStore == nil {
		return nil, errors.New("user store required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		pendingStore: newPendingRegistrationStore(b.redis, cfg.Registration.RedisPrefix),
		otpStore:     newOTPChallengeStore(b.redis, cfg.OTP.RedisPrefix),
		limiter:      newAttemptLimiter(b.redis, cfg.RateLimit),
		revocations:  newRevocationStore(b.redis, cfg.JWT.RefreshTTL),
		csrf:         newCSRFStore(b.redis, cfg.CSRF.RedisPrefix, cfg.csrfTTL()),
		users:        b.userStore,
		notifier:     b.notifier,
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}

// ready reports whether every collaborator the flows touch is wired.
func (e *Engine) ready() bool {
	return e != nil &&
		e.pendingStore != nil &&
		e.otpStore != nil &&
		e.limiter != nil &&
		e.revocations != nil &&
		e.csrf != nil &&
		e.passwordHash != nil &&
		e.jwtManager != nil &&
		e.users != nil &&
		e.notifier != nil
}
