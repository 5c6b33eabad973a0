// Package tracer is a thin tracing abstraction so the issuance engine and the
// status-list allocator can emit spans without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: tests
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanIssuanceAttempt  = "issuance.attempt"
	SpanIssuanceGenerate = "issuance.generate"
	SpanIssuanceDeliver  = "issuance.deliver"
	SpanStatusListRotate = "statuslist.rotate"
	SpanStatusListRevoke = "statuslist.revoke"
)

// Attribute keys.
const (
	AttrProcessID          = "issuance.process_id"
	AttrParticipantContext = "participant_context_id"
	AttrStateCount         = "issuance.state_count"
	AttrCredentialCount    = "issuance.credential_count"
	AttrStatusListID       = "statuslist.credential_id"
	AttrStatusListIndex    = "statuslist.index"
)
