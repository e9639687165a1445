package model

import (
	"testing"
	"time"
)

func TestEventFieldValue(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := &Event{
		ID:      42,
		Type:    "user_update",
		Time:    ts,
		Payload: map[string]string{"name": "alice", "city": ""},
	}

	for _, tc := range []struct {
		field string
		want  any
	}{
		{"id", int64(42)},
		{"type", "user_update"},
		{"timestamp", ts},
		{"name", "alice"},
		{"city", ""},
		{"missing", ""},
	} {
		if got := ev.FieldValue(tc.field); got != tc.want {
			t.Errorf("FieldValue(%q) = %v, want %v", tc.field, got, tc.want)
		}
	}
}

func TestEventFieldValueNilPayload(t *testing.T) {
	ev := &Event{ID: 1, Type: "t"}
	if got := ev.FieldValue("anything"); got != "" {
		t.Errorf("FieldValue on nil payload = %v, want empty string", got)
	}
}

func TestMalformedEventError(t *testing.T) {
	err := &MalformedEventError{BatchID: 7, Reason: "missing ev_type"}
	want := "malformed event in batch 7: missing ev_type"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
