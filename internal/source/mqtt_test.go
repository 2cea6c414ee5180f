package source

import (
	"testing"

	"warehousemon/internal/config"
)

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(config.BrokerConfig{}); err == nil {
		t.Error("expected error for missing broker URL")
	}
}

func TestNewDefaultsClientID(t *testing.T) {
	m, err := New(config.BrokerConfig{URL: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.cfg.ClientID == "" {
		t.Error("client ID should be defaulted when unset")
	}
}

func TestTopicSegment(t *testing.T) {
	tests := []struct {
		topic string
		n     int
		want  string
		ok    bool
	}{
		{"warehouses/WH-1/config", 1, "WH-1", true},
		{"sensors/WH-2/reading", 1, "WH-2", true},
		{"users/snapshot", 1, "snapshot", true},
		{"warehouses//config", 1, "", false},
		{"short", 1, "", false},
	}
	for _, tt := range tests {
		got, ok := topicSegment(tt.topic, tt.n)
		if got != tt.want || ok != tt.ok {
			t.Errorf("topicSegment(%q, %d) = (%q, %v), want (%q, %v)", tt.topic, tt.n, got, ok, tt.want, tt.ok)
		}
	}
}
