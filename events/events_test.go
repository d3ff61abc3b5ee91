package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ficoreafrica/ledger/action"
	audithook "github.com/ficoreafrica/ledger/audit_hook"
	"github.com/ficoreafrica/ledger/events"
	"github.com/ficoreafrica/ledger/id"
)

type memPublisher struct {
	keys   []string
	values []any
}

func (m *memPublisher) Publish(_ context.Context, key string, v any) error {
	m.keys = append(m.keys, key)
	m.values = append(m.values, v)
	return nil
}

func TestProducerWithoutBrokersSkips(t *testing.T) {
	p := events.NewProducer(events.Config{Topic: "ficore"}, nil)
	if p.Enabled() {
		t.Fatal("producer without brokers should be disabled")
	}
	if err := p.Publish(context.Background(), "k", map[string]string{"a": "b"}); err != nil {
		t.Errorf("expected skip, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	var nilProducer *events.Producer
	if err := nilProducer.Publish(context.Background(), "k", nil); err != nil {
		t.Errorf("nil producer should skip, got %v", err)
	}
}

func TestToolUsageEncoding(t *testing.T) {
	accountID := id.NewAccountID()
	u := events.NewToolUsage(accountID, "sess-1", action.CreateBudget)

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["tool"] != "budget" || decoded["action"] != "create_budget" || decoded["account_id"] != accountID.String() {
		t.Errorf("unexpected payload: %s", data)
	}
}

func TestAuditRecorderPublishes(t *testing.T) {
	pub := &memPublisher{}
	rec := events.AuditRecorder(pub)

	evt := &audithook.AuditEvent{Action: audithook.ActionCreditsDebited, ResourceID: "ctxn_1"}
	if err := rec.Record(context.Background(), evt); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(pub.keys) != 1 || pub.keys[0] != "ctxn_1" {
		t.Fatalf("unexpected keys: %v", pub.keys)
	}
	a, ok := pub.values[0].(*events.Audit)
	if !ok || a.Event != evt {
		t.Errorf("unexpected value: %#v", pub.values[0])
	}
}
