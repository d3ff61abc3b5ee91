package events

import (
	"testing"
	"time"
)

func TestProducerFlushesQuickly(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}, Topic: "ficore.events"}, nil)
	t.Cleanup(func() { _ = p.Close() })

	if p.writer.BatchTimeout <= 0 || p.writer.BatchTimeout > 50*time.Millisecond {
		t.Errorf("BatchTimeout = %v, want at most 50ms", p.writer.BatchTimeout)
	}
	if p.writer.Async {
		t.Error("publishes should report broker errors to the caller")
	}
}
