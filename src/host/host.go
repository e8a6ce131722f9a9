// Package host provides the default implementation of guardapi.Host: a log
// sink backed by log/slog (matching the teacher's logging style) with an
// optional logr.Logger adapter for control planes built on logr, a
// monotonic-enough wall clock, and a cached config reader.
package host

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
)

// ConfigSource fetches a single configuration value by key. Implementations
// are permitted to block (e.g. a control-plane RPC); Default caches the
// result so a guard's hot evaluation path never blocks on it (spec §5).
type ConfigSource interface {
	GetConfig(key string) (string, error)
}

// Default is the standard guardapi.Host: logs via slog, optionally mirrors
// to a logr.Logger, and caches config reads per key.
type Default struct {
	logger *slog.Logger
	logr   *logr.Logger // optional; nil if not wired

	source ConfigSource
	tracer trace.Tracer // optional; nil if not wired

	mu    sync.RWMutex
	cache map[string]string
}

// New constructs a Default host. logger must not be nil. source may be nil,
// in which case GetConfig always returns "".
func New(logger *slog.Logger, source ConfigSource) *Default {
	return &Default{
		logger: logger,
		source: source,
		cache:  make(map[string]string),
	}
}

// WithLogr mirrors every Log call to the given logr.Logger as well as the
// slog logger, for hosts (e.g. a controller-runtime based control plane)
// that standardize on logr.
func (d *Default) WithLogr(l logr.Logger) *Default {
	clone := *d
	clone.logr = &l
	return &clone
}

// WithTracer instruments GetTime with a span from the given tracer, for
// deployments that want the clock capability itself visible in a trace
// (e.g. to correlate a rug-pull baseline capture with the span that
// triggered it).
func (d *Default) WithTracer(t trace.Tracer) *Default {
	clone := *d
	clone.tracer = t
	return &clone
}

// Log implements guardapi.Host.
func (d *Default) Log(level guardapi.LogLevel, message string, kv ...any) {
	switch level {
	case guardapi.LogDebug:
		d.logger.Debug(message, kv...)
	case guardapi.LogInfo:
		d.logger.Info(message, kv...)
	case guardapi.LogWarn:
		d.logger.Warn(message, kv...)
	case guardapi.LogError:
		d.logger.Error(message, kv...)
	default:
		d.logger.Info(message, kv...)
	}

	if d.logr == nil {
		return
	}
	if level == guardapi.LogError {
		d.logr.Error(nil, message, kv...)
	} else {
		d.logr.Info(message, kv...)
	}
}

// GetTime implements guardapi.Host, returning seconds since epoch. When a
// tracer is wired via WithTracer, the read itself is wrapped in a span so a
// trace backend can see how often and how expensively guards consult the
// clock.
func (d *Default) GetTime() uint64 {
	if d.tracer != nil {
		_, span := d.tracer.Start(context.Background(), "host.get_time")
		defer span.End()
	}
	return uint64(time.Now().Unix())
}

// GetConfig implements guardapi.Host. The first successful fetch of a key
// is cached and served from then on without consulting the ConfigSource
// again. A host-capability failure (the ConfigSource erroring before a
// value is cached) falls back to "" — the guard boundary treats that as
// "use the default config", per spec §7 rule 4. Failures are logged at
// LogError.
func (d *Default) GetConfig(key string) string {
	d.mu.RLock()
	cached, ok := d.cache[key]
	d.mu.RUnlock()

	if ok || d.source == nil {
		return cached // "" if never fetched
	}

	value, err := d.source.GetConfig(key)
	if err != nil {
		d.Log(guardapi.LogError, "config fetch failed, using default value", "key", key, "err", err)
		return cached
	}

	d.mu.Lock()
	d.cache[key] = value
	d.mu.Unlock()
	return value
}

// StaticSource is a ConfigSource backed by a fixed map, useful for tests
// and for hosts that load configuration once at startup.
type StaticSource map[string]string

func (s StaticSource) GetConfig(key string) (string, error) {
	return s[key], nil
}
