package utils

import (
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/rs/zerolog"
	"github.com/vgarvardt/gue/v5/adapter"
)

// GueLogAdapter routes gue pool logs to goapp.Log, tagged with the pool name
type GueLogAdapter struct {
	pool   string
	fields []adapter.Field
}

// NewGueLoggerAdapter creates adapter for the pool
func NewGueLoggerAdapter(pool string) *GueLogAdapter {
	return &GueLogAdapter{pool: pool}
}

// Debug implements adapter.Logger
func (l *GueLogAdapter) Debug(msg string, fields ...adapter.Field) {
	l.do(goapp.Log.Debug(), fields...).Msg(msg)
}

// Info implements adapter.Logger
func (l *GueLogAdapter) Info(msg string, fields ...adapter.Field) {
	l.do(goapp.Log.Info(), fields...).Msg(msg)
}

// Error implements adapter.Logger
func (l *GueLogAdapter) Error(msg string, fields ...adapter.Field) {
	l.do(goapp.Log.Error(), fields...).Str(zerolog.ErrorFieldName, msg).Send()
}

// With implements adapter.Logger, fields accumulate
func (l *GueLogAdapter) With(fields ...adapter.Field) adapter.Logger {
	res := &GueLogAdapter{pool: l.pool, fields: make([]adapter.Field, 0, len(l.fields)+len(fields))}
	res.fields = append(res.fields, l.fields...)
	res.fields = append(res.fields, fields...)
	return res
}

func (l *GueLogAdapter) do(le *zerolog.Event, fields ...adapter.Field) *zerolog.Event {
	if l.pool != "" {
		le = le.Str("pool", l.pool)
	}
	for _, f := range l.fields {
		le = le.Interface(f.Key, f.Value)
	}
	for _, f := range fields {
		le = le.Interface(f.Key, f.Value)
	}
	return le
}
