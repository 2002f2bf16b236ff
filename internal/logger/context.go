package logger

import "context"

type contextKey string

const fieldsKey contextKey = "log_fields"

// Fields are attached to every log record emitted with the carrying context
type Fields struct {
	RunID     string // Analysis run ID
	Source    string // Input file being processed
	Component string // e.g. "pipeline", "batch"
}

// WithFields merges fields into the context. Non-empty values win.
func WithFields(ctx context.Context, fields Fields) context.Context {
	merged := GetFields(ctx)
	if fields.RunID != "" {
		merged.RunID = fields.RunID
	}
	if fields.Source != "" {
		merged.Source = fields.Source
	}
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, fieldsKey, merged)
}

// GetFields returns the fields stored in ctx, or the zero value
func GetFields(ctx context.Context) Fields {
	if fields, ok := ctx.Value(fieldsKey).(Fields); ok {
		return fields
	}
	return Fields{}
}
