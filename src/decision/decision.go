// Package decision defines the ternary result every guard returns: allow,
// warn, or deny with a structured reason. It is the shared vocabulary the
// guard contract (src/guardapi) and every concrete guard build on.
package decision

import (
	"fmt"

	"github.com/google/uuid"
)

// Verdict identifies which of the three Decision variants is in play.
type Verdict int

const (
	// VerdictAllow means the guard found nothing worth reporting.
	VerdictAllow Verdict = iota
	// VerdictWarn means the guard has advisory observations; callers log
	// but proceed.
	VerdictWarn
	// VerdictDeny means the guard found a policy violation and the phase
	// must be short-circuited.
	VerdictDeny
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allow"
	case VerdictWarn:
		return "warn"
	case VerdictDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// Stable deny codes. These are part of the wire contract (spec §6) — never
// rename or remove one; add new codes additively.
const (
	CodeServerNotWhitelisted   = "server_not_whitelisted"
	CodeTyposquatDetected      = "typosquat_detected"
	CodeTLSRequired            = "tls_required"
	CodeToolMimicryDetected    = "tool_mimicry_detected"
	CodeToolNamespaceCollision = "tool_namespace_collision"
	CodeToolPoisoningDetected  = "tool_poisoning_detected"
	CodeRugPullDetected        = "rug_pull_detected"
	CodePIIDetected            = "pii_detected"
	CodeAuthRequired           = "auth_required"
	CodeResponseBlocked        = "response_sanitization_blocked"
	CodeGuardInternalError     = "guard_internal_error"
)

// DenyReason is the structured payload attached to a Deny decision. ID is a
// fresh correlation identifier per deny, so a control plane can tie a
// rejected request back to this exact evaluation in its own audit log.
type DenyReason struct {
	ID      string         `json:"decision_id"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (r DenyReason) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Decision is the tagged union every guard evaluation returns. Exactly one
// of Warnings/Reason is meaningful, selected by Verdict — callers should
// switch on Verdict rather than inspecting the other fields directly.
type Decision struct {
	Verdict  Verdict
	Warnings []string
	Reason   *DenyReason
}

// Allow constructs a clean pass-through decision.
func Allow() Decision {
	return Decision{Verdict: VerdictAllow}
}

// Warn constructs an allow-with-warnings decision. Panics if messages is
// empty — a Warn with nothing to say should be Allow.
func Warn(messages ...string) Decision {
	if len(messages) == 0 {
		panic("decision: Warn requires at least one message")
	}
	return Decision{Verdict: VerdictWarn, Warnings: messages}
}

// Deny constructs a deny decision carrying a stable code, human message, and
// optional structured details.
func Deny(code, message string, details map[string]any) Decision {
	return Decision{
		Verdict: VerdictDeny,
		Reason:  &DenyReason{ID: uuid.NewString(), Code: code, Message: message, Details: details},
	}
}

// InternalError wraps an unexpected error as a fail-closed deny, per the
// guard boundary contract in spec §7: internal errors never become allow.
func InternalError(err error) Decision {
	return Deny(CodeGuardInternalError, err.Error(), nil)
}

// IsDeny reports whether d is a deny decision.
func (d Decision) IsDeny() bool { return d.Verdict == VerdictDeny }

// IsWarn reports whether d is a warn decision.
func (d Decision) IsWarn() bool { return d.Verdict == VerdictWarn }

// Merge combines warnings from multiple Allow/Warn decisions accumulated
// across a phase's guard set, per spec §2: "Warnings accumulate and are
// surfaced as a single allow-with-warnings result." The first Deny
// encountered by the caller should short-circuit before Merge is ever
// called with it; Merge itself ignores any Deny passed to it defensively.
func Merge(decisions ...Decision) Decision {
	var warnings []string
	for _, d := range decisions {
		if d.Verdict == VerdictDeny {
			continue
		}
		warnings = append(warnings, d.Warnings...)
	}
	if len(warnings) == 0 {
		return Allow()
	}
	return Decision{Verdict: VerdictWarn, Warnings: warnings}
}
