package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tailored-agentic-units/docchat/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 1, want: "TRACE"},
		{name: "verbose maps to DEBUG", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info maps to INFO", level: observability.LevelInfo, want: "INFO"},
		{name: "warning maps to WARN", level: observability.LevelWarning, want: "WARN"},
		{name: "error maps to ERROR", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 21, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  slog.Level
	}{
		{name: "verbose maps to Debug", level: observability.LevelVerbose, want: slog.LevelDebug},
		{name: "info maps to Info", level: observability.LevelInfo, want: slog.LevelInfo},
		{name: "warning maps to Warn", level: observability.LevelWarning, want: slog.LevelWarn},
		{name: "error maps to Error", level: observability.LevelError, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.SlogLevel(); got != tt.want {
				t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    observability.Level
		wantErr bool
	}{
		{in: "debug", want: observability.LevelVerbose},
		{in: "INFO", want: observability.LevelInfo},
		{in: "", want: observability.LevelInfo},
		{in: " warn ", want: observability.LevelWarning},
		{in: "error", want: observability.LevelError},
		{in: "loud", want: observability.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := observability.ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEmit(t *testing.T) {
	var events []observability.Event
	obs := &captureObserver{events: &events}

	observability.Emit(context.Background(), obs, "session.compact", observability.LevelInfo, "session", nil)
	observability.Emit(context.Background(), nil, "ignored", observability.LevelInfo, "session", nil)

	if len(events) != 1 {
		t.Fatalf("received %d events, want 1", len(events))
	}
	got := events[0]
	if got.Type != "session.compact" || got.Source != "session" {
		t.Errorf("event = %+v", got)
	}
	if got.Data == nil {
		t.Error("Data should default to an empty map")
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestOrNoOp(t *testing.T) {
	if _, ok := observability.OrNoOp(nil).(observability.NoOpObserver); !ok {
		t.Error("OrNoOp(nil) should return NoOpObserver")
	}
	custom := &captureObserver{events: new([]observability.Event)}
	if observability.OrNoOp(custom) != custom {
		t.Error("OrNoOp should return a non-nil observer unchanged")
	}
}

func TestMultiObserver(t *testing.T) {
	var events1, events2 []observability.Event

	multi := observability.NewMultiObserver(
		&captureObserver{events: &events1},
		&captureObserver{events: &events2},
	)

	multi.OnEvent(context.Background(), observability.Event{
		Type:      "test.event",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "test",
	})

	if len(events1) != 1 || len(events2) != 1 {
		t.Fatalf("fan-out = %d/%d, want 1/1", len(events1), len(events2))
	}
	if events1[0].Type != "test.event" {
		t.Errorf("observer 1 event type = %q, want %q", events1[0].Type, "test.event")
	}
}

func TestMultiObserver_NilFiltering(t *testing.T) {
	var events []observability.Event
	multi := observability.NewMultiObserver(nil, &captureObserver{events: &events}, nil)

	multi.OnEvent(context.Background(), observability.Event{Type: "test.event"})

	if len(events) != 1 {
		t.Errorf("received %d events, want 1", len(events))
	}
}

func TestSlogObserver_LevelMapping(t *testing.T) {
	tests := []struct {
		name      string
		level     observability.Level
		minLevel  slog.Level
		expectLog bool
	}{
		{name: "verbose at debug handler", level: observability.LevelVerbose, minLevel: slog.LevelDebug, expectLog: true},
		{name: "verbose at info handler", level: observability.LevelVerbose, minLevel: slog.LevelInfo, expectLog: false},
		{name: "info at warn handler", level: observability.LevelInfo, minLevel: slog.LevelWarn, expectLog: false},
		{name: "error at error handler", level: observability.LevelError, minLevel: slog.LevelError, expectLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.minLevel}))

			observability.NewSlogObserver(logger).OnEvent(context.Background(), observability.Event{
				Type:   "test.event",
				Level:  tt.level,
				Source: "test",
			})

			if hasOutput := buf.Len() > 0; hasOutput != tt.expectLog {
				t.Errorf("log output = %v, want %v (buf: %q)", hasOutput, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogObserver_EventTypeAsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	observability.NewSlogObserver(logger).OnEvent(context.Background(), observability.Event{
		Type:   "kernel.run.start",
		Level:  observability.LevelInfo,
		Source: "kernel",
		Data: map[string]any{
			"session_id":      "s1",
			"question_length": 42,
		},
	})

	output := buf.String()
	for _, want := range []string{"kernel.run.start", "source=kernel", "question_length=42", "session_id=s1"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
	if strings.Index(output, "question_length") > strings.Index(output, "session_id") {
		t.Errorf("attributes not sorted: %s", output)
	}
}

func TestMetricsObserver(t *testing.T) {
	m := observability.NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, observability.Event{Type: "graph.node.complete", Level: observability.LevelVerbose, Source: "graph",
		Data: map[string]any{"node": "classify", "duration": 20 * time.Millisecond}})
	m.OnEvent(ctx, observability.Event{Type: "graph.node.complete", Level: observability.LevelVerbose, Source: "graph",
		Data: map[string]any{"node": "generate", "duration": 40 * time.Millisecond}})
	m.OnEvent(ctx, observability.Event{Type: "session.reset", Level: observability.LevelInfo, Source: "session"})

	count, err := testutil.GatherAndCount(m.Registry(), "docchat_events_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Errorf("events_total series = %d, want 2", count)
	}

	hist, err := testutil.GatherAndCount(m.Registry(), "docchat_step_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if hist != 2 {
		t.Errorf("step_duration series = %d, want 2", hist)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `docchat_events_total{level="DEBUG",source="graph",type="graph.node.complete"} 2`) {
		t.Errorf("metrics body missing node counter:\n%s", rec.Body.String())
	}
}

func TestRegistry_GetObserver(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "noop exists", key: "noop"},
		{name: "slog exists", key: "slog"},
		{name: "unknown fails", key: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observability.GetObserver(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetObserver(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && obs == nil {
				t.Errorf("GetObserver(%q) returned nil observer", tt.key)
			}
		})
	}
}

func TestRegistry_ResolveObservers(t *testing.T) {
	var events []observability.Event
	observability.RegisterObserver("test-capture", &captureObserver{events: &events})

	obs, err := observability.ResolveObservers("noop", "test-capture")
	if err != nil {
		t.Fatalf("ResolveObservers: %v", err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "test.event"})
	if len(events) != 1 {
		t.Errorf("received %d events, want 1", len(events))
	}

	if _, err := observability.ResolveObservers("noop", "missing"); err == nil {
		t.Error("expected error for unknown observer")
	}

	empty, err := observability.ResolveObservers()
	if err != nil {
		t.Fatalf("ResolveObservers(): %v", err)
	}
	if _, ok := empty.(observability.NoOpObserver); !ok {
		t.Errorf("ResolveObservers() = %T, want NoOpObserver", empty)
	}
}

type captureObserver struct {
	events *[]observability.Event
}

func (c *captureObserver) OnEvent(_ context.Context, event observability.Event) {
	*c.events = append(*c.events, event)
}
