package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/amelia-cook/BME-Project/internal/logic"
)

func TestFormatPayloadStateChange(t *testing.T) {
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	event := logic.Event{
		Timestamp: ts,
		Type:      logic.EventStateChange,
		From:      logic.StateBlinkRun,
		To:        logic.StateSleep,
		FreqHz:    3,
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if p.Pump.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("timestamp: got %q", p.Pump.Timestamp)
	}
	if p.Pump.Event != "STATE_CHANGE" {
		t.Errorf("event: got %q, want STATE_CHANGE", p.Pump.Event)
	}
	if p.Pump.From != "BLINK_RUN" || p.Pump.To != "SLEEP" {
		t.Errorf("transition: got %s->%s", p.Pump.From, p.Pump.To)
	}
	if p.Pump.FreqHz != 3 {
		t.Errorf("freq: got %d, want 3", p.Pump.FreqHz)
	}
}

func TestFormatPayloadFreqChangeOmitsStates(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Type:      logic.EventFreqChange,
		FreqHz:    4,
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	pump := raw["pump"]
	if _, ok := pump["from"]; ok {
		t.Error("from should be omitted for non-transition events")
	}
	if _, ok := pump["to"]; ok {
		t.Error("to should be omitted for non-transition events")
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var p SystemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.System.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", p.System.Event)
	}
	if p.System.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", p.System.Reason)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"state":"BLINK_RUN"}}`)
	event := SystemEvent{Event: "STARTUP", RawPayload: raw}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := logic.Event{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Type:      logic.EventFault,
		FreqHz:    6,
	}
	if err := f.Publish(event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(f.Events) != 1 || f.Events[0].Type != logic.EventFault {
		t.Errorf("events: got %+v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("payloads: got %d, want 1", len(f.Payloads))
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "HEARTBEAT" {
		t.Errorf("system events: got %+v", f.SystemEvents)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("publish failed")
	f.PublishSystemError = errors.New("system publish failed")

	if err := f.Publish(logic.Event{}); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes must not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Type: logic.EventFreqChange})
	f.Connected = true
	f.Close()

	f.Reset()

	if len(f.Events) != 0 || len(f.Payloads) != 0 || f.Closed || f.Connected {
		t.Error("Reset did not clear recorded state")
	}
}
