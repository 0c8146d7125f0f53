package internal

import (
	"context"
	"sync"
)

// telemetry.go
// Lightweight telemetry hook layer for the form engine. Callers may register
// a real emitter (or a test stub) via RegisterTelemetryEmitter; the default
// is a no-op so there is no hard dependency on a metrics SDK.

type telemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {
		// noop by default
	}
)

// RegisterTelemetryEmitter registers a custom emitter function.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

// EmitBuildLatency records form build latency (milliseconds) per layer.
func EmitBuildLatency(ctx context.Context, layer string, ms int64) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, "form_build_latency_histogram", map[string]string{"layer": layer}, ms)
}

// EmitElementSkipped counts elements dropped during form build.
func EmitElementSkipped(ctx context.Context, elementType string) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, "form_element_skipped_count", map[string]string{"element": elementType}, int64(1))
}

// EmitSaveResult counts save outcomes per layer.
// outcome: "saved" | "failed".
func EmitSaveResult(ctx context.Context, layer, outcome string) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, "form_save_count", map[string]string{"layer": layer, "outcome": outcome}, int64(1))
}
