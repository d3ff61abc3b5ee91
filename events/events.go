package events

import (
	"context"
	"time"

	"github.com/ficoreafrica/ledger/action"
	audithook "github.com/ficoreafrica/ledger/audit_hook"
	"github.com/ficoreafrica/ledger/id"
)

// Publisher is what the service needs from a producer.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// ToolUsage records that an account used a tool.
type ToolUsage struct {
	Type      string      `json:"type"`
	Tool      string      `json:"tool"`
	Action    action.Kind `json:"action"`
	AccountID string      `json:"account_id"`
	SessionID string      `json:"session_id,omitempty"`
	At        time.Time   `json:"at"`
}

// ToolBudget is the tool name for every budget route.
const ToolBudget = "budget"

// NewToolUsage builds a budget tool-usage event.
func NewToolUsage(accountID id.AccountID, sessionID string, kind action.Kind) *ToolUsage {
	return &ToolUsage{
		Type:      "tool_usage",
		Tool:      ToolBudget,
		Action:    kind,
		AccountID: accountID.String(),
		SessionID: sessionID,
		At:        time.Now().UTC(),
	}
}

// Audit wraps an audit hook event for publishing.
type Audit struct {
	Type  string                `json:"type"`
	Event *audithook.AuditEvent `json:"event"`
	At    time.Time             `json:"at"`
}

// AuditRecorder returns an audithook.Recorder that publishes through p.
func AuditRecorder(p Publisher) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, e *audithook.AuditEvent) error {
		return p.Publish(ctx, e.ResourceID, &Audit{Type: "audit", Event: e, At: time.Now().UTC()})
	})
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, string, any) error { return nil }
