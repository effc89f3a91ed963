package telemetry

import (
	"context"
	"testing"
)

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), Config{}, "test")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestExporterOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg  Config
		want int
	}{
		{Config{Endpoint: "localhost:4318"}, 1},
		{Config{Endpoint: "http://collector:4318/v1/traces"}, 1},
		{Config{Endpoint: "localhost:4318", Insecure: true}, 2},
	}
	for _, tt := range tests {
		if got := len(exporterOptions(tt.cfg)); got != tt.want {
			t.Errorf("exporterOptions(%+v) = %d options, want %d", tt.cfg, got, tt.want)
		}
	}
}

func TestSampler(t *testing.T) {
	t.Parallel()

	if got := sampler(0).Description(); got != "AlwaysOnSampler" {
		t.Errorf("sampler(0) = %q", got)
	}
	if got := sampler(0.25).Description(); got != "TraceIDRatioBased{0.25}" {
		t.Errorf("sampler(0.25) = %q", got)
	}
}
