package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jmallon/parley/providers/observability"
)

func newCaptureObserver(level slog.Level) (*Observer, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	return New(logger), &buf
}

func TestLogLevels(t *testing.T) {
	observer, buf := newCaptureObserver(slog.LevelDebug - 4)
	ctx := context.Background()

	observer.Trace(ctx, "trace message")
	observer.Debug(ctx, "debug message")
	observer.Info(ctx, "info message", observability.String("k", "v"))
	observer.Warn(ctx, "warn message")
	observer.Error(ctx, "error message")

	out := buf.String()
	for _, want := range []string{"trace message", "debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Errorf("attribute not rendered: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	observer, buf := newCaptureObserver(slog.LevelWarn)
	ctx := context.Background()

	observer.Debug(ctx, "should not appear")
	observer.Warn(ctx, "should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("debug leaked through a warn-level handler: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn missing: %s", out)
	}
}

func TestSpanLifecycle(t *testing.T) {
	observer, buf := newCaptureObserver(slog.LevelDebug)
	ctx := context.Background()

	spanCtx, span := observer.StartSpan(ctx, "llm.send", observability.String("llm.provider", "openai"))

	if got := observability.SpanFromContext(spanCtx); got != span {
		t.Error("StartSpan did not attach the span to the context")
	}

	span.AddEvent("llm.request.start")
	span.SetAttributes(observability.Int("http.status_code", 200))
	span.End()

	out := buf.String()
	for _, want := range []string{"span started", "llm.request.start", "span ended", `"span":"llm.send"`} {
		if !strings.Contains(out, want) {
			t.Errorf("span output missing %q:\n%s", want, out)
		}
	}
}

func TestSpanErrorStatusLogsAtWarn(t *testing.T) {
	observer, buf := newCaptureObserver(slog.LevelWarn)

	_, span := observer.StartSpan(context.Background(), "failing.op")
	span.RecordError(errors.New("boom"))
	span.End()

	// The debug-level start is filtered, the warn-level end is not.
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON entry, got: %s", buf.String())
	}
	if entry["msg"] != "span ended" {
		t.Errorf("msg = %v, want span ended", entry["msg"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error attribute = %v, want boom", entry["error"])
	}
}

func TestCounterAccumulates(t *testing.T) {
	observer, buf := newCaptureObserver(slog.LevelDebug)
	ctx := context.Background()

	counter := observer.Counter("requests.total")
	counter.Add(ctx, 1)
	counter.Add(ctx, 2)

	// The same name resolves to the same underlying value.
	observer.Counter("requests.total").Add(ctx, 4)

	if !strings.Contains(buf.String(), `"total":7`) {
		t.Errorf("counter did not accumulate to 7:\n%s", buf.String())
	}
}

func TestHistogramRecords(t *testing.T) {
	observer, buf := newCaptureObserver(slog.LevelDebug)

	observer.Histogram("request.duration").Record(context.Background(), 12.5)

	out := buf.String()
	if !strings.Contains(out, `"metric":"request.duration"`) || !strings.Contains(out, `"value":12.5`) {
		t.Errorf("histogram output incomplete:\n%s", out)
	}
}

func TestNilLoggerFallsBack(t *testing.T) {
	observer := New(nil)
	// Must not panic.
	observer.Info(context.Background(), "fine")
}
