package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/amelia-cook/BME-Project/internal/logic"
)

func testConfig() Config {
	return Config{
		TickMs:      10,
		DebounceMs:  20,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPPort:    ":80",
	}
}

func TestNewTrackerDefaults(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())

	snap := tr.Snapshot()
	if snap.State != logic.StateInit {
		t.Errorf("state: got %s, want INIT", snap.State)
	}
	if snap.FreqHz != logic.DefaultFreqHz {
		t.Errorf("freq: got %d, want %d", snap.FreqHz, logic.DefaultFreqHz)
	}
	if !snap.StartTime.Equal(start) {
		t.Errorf("start time: got %v, want %v", snap.StartTime, start)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTT disconnected initially")
	}
}

func TestTrackerUpdate(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())

	tr.Update(logic.StateError, 6, logic.EventCounts{StateChanges: 2, FreqChanges: 4, Faults: 1})
	tr.SetMQTTConnected(true)

	snap := tr.Snapshot()
	if snap.State != logic.StateError {
		t.Errorf("state: got %s, want ERROR", snap.State)
	}
	if snap.FreqHz != 6 {
		t.Errorf("freq: got %d, want 6", snap.FreqHz)
	}
	if snap.Counts.Faults != 1 {
		t.Errorf("faults: got %d, want 1", snap.Counts.Faults)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTT connected")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := NewTracker(start, testConfig())

	up := tr.Snapshot().Uptime()
	if up < 89*time.Second || up > 92*time.Second {
		t.Errorf("uptime: got %v, want ~90s", up)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, testConfig())
	tr.Update(logic.StateBlinkRun, 3, logic.EventCounts{StateChanges: 1})

	data := FormatJSON(tr.Snapshot())

	var sj StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.State != "BLINK_RUN" {
		t.Errorf("state: got %q, want BLINK_RUN", sj.Status.State)
	}
	if sj.Status.FreqHz != 3 {
		t.Errorf("freq: got %d, want 3", sj.Status.FreqHz)
	}
	if sj.Status.Counts.StateChanges != 1 {
		t.Errorf("state changes: got %d, want 1", sj.Status.Counts.StateChanges)
	}
	if sj.Status.Config.TickMs != 10 {
		t.Errorf("tick ms: got %d, want 10", sj.Status.Config.TickMs)
	}
	if sj.Status.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("start time: got %q", sj.Status.StartTime)
	}
	if sj.Status.Event != "" {
		t.Errorf("web JSON must not carry an event, got %q", sj.Status.Event)
	}
}

func TestFormatJSONUnknownState(t *testing.T) {
	var snap Snapshot
	snap.Now = time.Now()

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.State != "UNKNOWN" {
		t.Errorf("empty state should render as UNKNOWN, got %q", sj.Status.State)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), testConfig())
	data := FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM")

	var sj StatusJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", sj.Status.Event)
	}
	if sj.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", sj.Status.Reason)
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("broker: got %q", sj.Status.MQTT.Broker)
	}
}
