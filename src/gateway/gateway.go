package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/config"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/pii"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/poisoning"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/rugpull"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guards/spoofing"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/host"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/pipeline"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/store"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/transport"
)

// Gateway is the top-level orchestrator. It wires config, transports,
// the guard pipeline, tool registry, and the sanitization pipeline
// together.
type Gateway struct {
	cfg    config.Config
	logger *slog.Logger

	// transportFactory is injected for testing; nil uses the default.
	transportFactory transport.TransportFactory
}

// New creates a Gateway from the given config and logger.
func New(cfg config.Config, logger *slog.Logger) *Gateway {
	return &Gateway{cfg: cfg, logger: logger}
}

// NewWithTransportFactory creates a Gateway with a custom transport factory
// (primarily for testing).
func NewWithTransportFactory(cfg config.Config, logger *slog.Logger, factory transport.TransportFactory) *Gateway {
	return &Gateway{cfg: cfg, logger: logger, transportFactory: factory}
}

// Run starts the gateway: connects downstream, runs the guard pipeline
// and sanitizer over discovered tools, registers proxied handlers, and
// starts the upstream server. Blocks until SIGINT/SIGTERM or ctx
// cancellation.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g.logger.Info("starting gateway")

	// 1. Connect to downstream servers.
	dm, err := transport.NewDownstreamManager(ctx, g.cfg.Downstream, g.logger, g.transportFactory)
	if err != nil {
		return fmt.Errorf("downstream: %w", err)
	}
	defer dm.Close()

	// 2. Create upstream server.
	upstream := transport.NewUpstream(g.cfg.Upstream, g.logger)

	// 3. Build the guard pipeline over shared, process-wide guard state.
	guardHost := host.New(g.logger, nil).WithTracer(otel.Tracer("github.com/Easy-Infra-Ltd/mcp-guard-suite/src/host"))
	guards := newGuardPipeline(g.cfg.Guards, guardHost)

	// 4. Discover tools, run them through the guard pipeline and
	//    sanitizer, and register proxied handlers.
	reg := NewRegistry(upstream, dm, g.cfg.Sanitization, guards, g.logger)
	count, err := reg.DiscoverAndRegister(ctx)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	g.logger.Info("tool discovery complete", "total", count)

	// 5. Start upstream (blocks until ctx cancelled).
	g.logger.Info("upstream ready", "transport", g.cfg.Upstream.Transport)
	return upstream.Run(ctx)
}

// newGuardPipeline constructs the four concrete guards against fresh,
// process-wide guard state and assembles them into a Pipeline. Order
// matches spec §9's suggested evaluation order: identity/provenance
// checks first (Server Spoofing), then catalogue content (Tool
// Poisoning), then catalogue drift (Rug Pull), then response content
// (PII) — only PII implements EvaluateToolResponse, so ordering among
// the others only affects which deny reason surfaces first.
func newGuardPipeline(cfg config.GuardsConfig, h *host.Default) *pipeline.Pipeline {
	registry := store.NewToolRegistry()
	baselines := store.NewBaselines()

	guards := []guardapi.Guard{
		spoofing.New(cfg.Spoofing, registry),
		poisoning.New(cfg.Poisoning),
		rugpull.New(cfg.RugPull, baselines).WithClock(h.GetTime),
		pii.New(cfg.PII),
	}

	return pipeline.New(guards...)
}
