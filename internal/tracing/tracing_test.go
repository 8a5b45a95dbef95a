package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/torosent/stampede/internal/config"
	"github.com/torosent/stampede/internal/tracing"
)

func TestInitDisabled(t *testing.T) {
	provider, err := tracing.Init(context.Background(), config.TracingConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if provider.Tracer() == nil {
		t.Fatal("disabled provider must still hand out a tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown of disabled provider: %v", err)
	}
}

func TestInitRejectsUnknownProtocol(t *testing.T) {
	_, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint: "localhost:4317",
		Protocol: "carrier-pigeon",
	})
	if err == nil {
		t.Fatal("expected error for unknown protocol")
	}
}

func TestInitRejectsBadSampleRate(t *testing.T) {
	_, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:   "localhost:4317",
		Protocol:   "grpc",
		Insecure:   true,
		SampleRate: 1.5,
	})
	if err == nil {
		t.Fatal("expected error for out-of-range sample rate")
	}
}

func TestNilProviderIsSafe(t *testing.T) {
	var provider *tracing.Provider
	if provider.Tracer() == nil {
		t.Fatal("nil provider must hand out a no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Shutdown of nil provider: %v", err)
	}
}

func TestSpanHelpersWithNoopTracer(t *testing.T) {
	provider, err := tracing.Init(context.Background(), config.TracingConfig{})
	if err != nil {
		t.Fatal(err)
	}

	_, span := tracing.StartRunSpan(context.Background(), provider.Tracer(), "shape", 2048, 1024, 512)
	tracing.EndSpan(span, nil)

	_, span = tracing.StartRunSpan(context.Background(), provider.Tracer(), "police", 2048, 1024, 512)
	tracing.EndSpan(span, errors.New("contract violated"))
}
