package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsDropBlanks(t *testing.T) {
	fields := StringFields(
		StringField{Key: " user_id ", Value: " U1 "},
		StringField{Key: FieldCommand, Value: "  "},
		StringField{Key: "", Value: "orphan"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != "user_id" || fields[0].String != "U1" {
		t.Fatalf("unexpected field %+v", fields[0])
	}
}

func TestWithHelpers(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	tests := []struct {
		name   string
		log    *zap.Logger
		expect map[string]any
	}{
		{"component", WithComponent(base, "server"), map[string]any{FieldComponent: "server"}},
		{"provider", WithProvider(base, "gemini", "gemini-2.5-flash"), map[string]any{
			FieldProvider: "gemini", FieldModel: "gemini-2.5-flash",
		}},
		{"provider without model", WithProvider(base, "gemini", ""), map[string]any{FieldProvider: "gemini"}},
		{"user", WithUser(base, "U1", "favorites"), map[string]any{FieldUserID: "U1", FieldCommand: "favorites"}},
		{"user without command", WithUser(base, "U1", ""), map[string]any{FieldUserID: "U1"}},
		{"nothing", WithFields(base), map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.log.Info("entry")
			entries := observed.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			got := entries[0].ContextMap()
			if len(got) != len(tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
			for k, v := range tt.expect {
				if got[k] != v {
					t.Fatalf("field %s: expected %v, got %v", k, v, got[k])
				}
			}
		})
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	log := WithUser(nil, "U1", "")
	if log == nil {
		t.Fatalf("expected a no-op logger")
	}
	log.Info("discarded")
}
