package pipeline

import (
	"context"
	"testing"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/decision"
	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
)

// stubGuard returns a fixed decision.Decision from whichever evaluate
// method is called, and can optionally panic to exercise Safe().
type stubGuard struct {
	guardapi.NoopGuard
	name       string
	connection decision.Decision
	toolsList  decision.Decision
	panics     bool
}

func (s *stubGuard) Type() string { return s.name }

func (s *stubGuard) EvaluateServerConnection(context.Context, guardapi.GuardContext) decision.Decision {
	if s.panics {
		panic("boom")
	}
	return s.connection
}

func (s *stubGuard) EvaluateToolsList(context.Context, []guardapi.Tool, guardapi.GuardContext) decision.Decision {
	return s.toolsList
}

func (s *stubGuard) SettingsSchema() (string, error) { return "{}", nil }
func (s *stubGuard) DefaultConfig() (string, error)  { return "{}", nil }

func TestPipelineAllowAllAllows(t *testing.T) {
	p := New(
		&stubGuard{name: "a", connection: decision.Allow()},
		&stubGuard{name: "b", connection: decision.Allow()},
	)
	d := p.Connection(context.Background(), guardapi.GuardContext{ServerName: "x"})
	if d.Verdict != decision.VerdictAllow {
		t.Fatalf("verdict = %v, want Allow", d.Verdict)
	}
}

func TestPipelineShortCircuitsOnDeny(t *testing.T) {
	p := New(
		&stubGuard{name: "first", connection: decision.Deny("x", "stop here", nil)},
		&stubGuard{name: "second", connection: decision.Allow()},
	)

	d := p.Connection(context.Background(), guardapi.GuardContext{ServerName: "x"})
	if !d.IsDeny() {
		t.Fatalf("expected deny, got %v", d.Verdict)
	}
	if d.Reason.Code != "x" {
		t.Errorf("reason code = %q", d.Reason.Code)
	}
}

func TestPipelineAccumulatesWarnings(t *testing.T) {
	p := New(
		&stubGuard{name: "a", connection: decision.Warn("warn-a")},
		&stubGuard{name: "b", connection: decision.Warn("warn-b")},
	)
	d := p.Connection(context.Background(), guardapi.GuardContext{ServerName: "x"})
	if d.Verdict != decision.VerdictWarn {
		t.Fatalf("verdict = %v, want Warn", d.Verdict)
	}
	if len(d.Warnings) != 2 {
		t.Fatalf("warnings = %v", d.Warnings)
	}
}

func TestPipelinePanicBecomesInternalErrorDeny(t *testing.T) {
	p := New(&stubGuard{name: "panicky", panics: true})
	d := p.Connection(context.Background(), guardapi.GuardContext{ServerName: "x"})
	if !d.IsDeny() {
		t.Fatalf("expected deny from recovered panic, got %v", d.Verdict)
	}
	if d.Reason.Code != decision.CodeGuardInternalError {
		t.Errorf("code = %q, want %q", d.Reason.Code, decision.CodeGuardInternalError)
	}
}

func TestPipelineToolsListDecisionTotality(t *testing.T) {
	p := New(&stubGuard{name: "a", toolsList: decision.Allow()})
	d := p.ToolsList(context.Background(), nil, guardapi.GuardContext{ServerName: "x"})
	switch d.Verdict {
	case decision.VerdictAllow, decision.VerdictWarn, decision.VerdictDeny:
	default:
		t.Fatalf("decision must be exactly one of Allow/Warn/Deny, got %v", d.Verdict)
	}
}
