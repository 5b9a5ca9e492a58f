package trace

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
)

func observed() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core)), logs
}

func sample() Exchange {
	return Exchange{
		Method:         "POST",
		URL:            "http://x.test/p",
		RequestHeader:  http.Header{"User-Agent": {"UA-X"}, "Authorization": {"Basic abc"}},
		Skipped:        []string{"Host"},
		Params:         []form.KeyValue{form.Field("a", "1")},
		Body:           "a=1",
		Status:         201,
		ResponseHeader: http.Header{"Content-Type": {"text/plain"}},
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"Basic", Basic, false},
		{" header ", Header, false},
		{"BODY", Body, false},
		{"verbose", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "header", Header.String())
}

func TestTryRecord_None(t *testing.T) {
	tracer, logs := observed()
	assert.True(t, tracer.TryRecord(None, sample()))
	assert.Equal(t, 0, logs.Len())
}

func TestTryRecord_Basic(t *testing.T) {
	tracer, logs := observed()
	require.True(t, tracer.TryRecord(Basic, sample()))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "http://x.test/p", fields["url"])
	assert.EqualValues(t, 201, fields["status"])
	assert.NotContains(t, fields, "request_headers")
	assert.NotContains(t, fields, "body")
}

func TestTryRecord_Header(t *testing.T) {
	tracer, logs := observed()
	require.True(t, tracer.TryRecord(Header, sample()))

	fields := logs.All()[0].ContextMap()
	headers, ok := fields["request_headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "UA-X", headers["User-Agent"])
	assert.Equal(t, "[redacted]", headers["Authorization"])
	assert.Equal(t, []interface{}{"Host"}, fields["skipped_headers"])
	assert.NotContains(t, fields, "body")
}

func TestTryRecord_Body(t *testing.T) {
	tracer, logs := observed()
	require.True(t, tracer.TryRecord(Body, sample()))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "a=1", fields["body"])
	assert.Equal(t, []interface{}{"a=1"}, fields["params"])
}

func TestTryRecord_Failure(t *testing.T) {
	tracer, logs := observed()
	ex := sample()
	ex.Status = 0
	ex.Err = errors.New("connection refused")
	require.True(t, tracer.TryRecord(Basic, ex))

	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "connection refused", entry.ContextMap()["error"])
}

func TestTryRecord_RecoversFromPanics(t *testing.T) {
	tracer := New(zap.New(panicCore{}))
	assert.False(t, tracer.TryRecord(Basic, sample()))
}

func TestTryRecord_NilTracer(t *testing.T) {
	var tracer *Tracer
	assert.True(t, tracer.TryRecord(Body, sample()))
}

type panicCore struct{}

func (panicCore) Enabled(zapcore.Level) bool          { return true }
func (c panicCore) With([]zapcore.Field) zapcore.Core { return c }
func (c panicCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(e, c)
}
func (panicCore) Write(zapcore.Entry, []zapcore.Field) error { panic("sink exploded") }
func (panicCore) Sync() error                                { return nil }
