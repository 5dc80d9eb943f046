package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{in: "debug", want: slog.LevelDebug, wantOK: true},
		{in: "INFO", want: slog.LevelInfo, wantOK: true},
		{in: "", want: slog.LevelInfo, wantOK: true},
		{in: "warn", want: slog.LevelWarn, wantOK: true},
		{in: "error", want: slog.LevelError, wantOK: true},
		{in: "verbose", want: slog.LevelInfo, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestInitWithWriter_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn")

	L.Info("hidden")
	L.Warn("shown", "bucket", "stocks_india")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"bucket":"stocks_india"`)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil)).With("requestID", "r-1")

	ctx := ToContext(context.Background(), l)
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"requestID":"r-1"`)
	assert.Equal(t, L, FromContext(context.Background()))
}
