package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesFixedAndScopedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core), observability.F("component", "test"))

	log.With(observability.F("request_id", "r-1")).Info("state_changed",
		observability.F("cart_lines", 2),
	)

	entries := logs.FilterMessage("state_changed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "test" {
		t.Errorf("component = %v", ctx["component"])
	}
	if ctx["request_id"] != "r-1" {
		t.Errorf("request_id = %v", ctx["request_id"])
	}
	if ctx["cart_lines"] != int64(2) {
		t.Errorf("cart_lines = %v (%T)", ctx["cart_lines"], ctx["cart_lines"])
	}
}

func TestLoggerEncodesErrorsAsStrings(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.Error("external_call_done", observability.F("error", errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["error"]; got != "boom" {
		t.Errorf("error = %v", got)
	}
}
