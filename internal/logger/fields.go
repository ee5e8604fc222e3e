package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log keys shared across packages.
const (
	FieldComponent = "component"
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldUserID    = "user_id"
	FieldCommand   = "command"
	FieldStage     = "stage"
	FieldListingID = "listing_id"
)

// StringField is a key/value pair that is dropped from the log entry when
// either side is blank.
type StringField struct {
	Key   string
	Value string
}

func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields returns log with the fields attached. A nil log becomes a no-op logger.
func WithFields(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// WithComponent names the subsystem writing the entries.
func WithComponent(log *zap.Logger, name string) *zap.Logger {
	return WithFields(log, StringFields(StringField{Key: FieldComponent, Value: name})...)
}

// WithProvider tags entries written on behalf of an AI provider.
func WithProvider(log *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(log, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}

// UserFields identifies a chat user and the command being handled.
func UserFields(userID, command string) []zap.Field {
	return StringFields(
		StringField{Key: FieldUserID, Value: userID},
		StringField{Key: FieldCommand, Value: command},
	)
}

func WithUser(log *zap.Logger, userID, command string) *zap.Logger {
	return WithFields(log, UserFields(userID, command)...)
}
