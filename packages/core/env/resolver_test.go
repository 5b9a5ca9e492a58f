package env

import (
	"testing"

	"github.com/abdul-hamid-achik/easyhttp/packages/builtin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(WithLookup(fakeEnv(map[string]string{"HOME": "/home/ada"})))
	r.Set("host", "api.test")
	r.Set("port", 8080)
	SetAll(r, map[string]any{"user.id": 7})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"variable", "http://{{host}}/x", "http://api.test/x"},
		{"formatted value", "{{host}}:{{port}}", "api.test:8080"},
		{"dotted name", "/users/{{ user.id }}", "/users/7"},
		{"environment", "{{$HOME}}/file", "/home/ada/file"},
		{"function", "{{base64(ab)}}", "YWI="},
		{"unknown kept", "{{missing}} {{$NOPE}} {{nope()}}", "{{missing}} {{$NOPE}} {{nope()}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.input))
		})
	}
}

func TestUnresolved(t *testing.T) {
	r := NewResolver(WithLookup(fakeEnv(nil)))
	r.Set("a", "1")

	assert.Empty(t, r.Unresolved("{{a}} and text"))
	assert.Equal(t, []string{"b", "$HOME", "random(x)"}, r.Unresolved("{{a}}{{b}}{{$HOME}}{{random(x)}}"))
}

func TestResolve_CustomRegistry(t *testing.T) {
	reg := builtin.NewRegistry()
	reg.Register("answer", func([]string) (string, error) { return "42", nil })

	r := NewResolver(WithRegistry(reg))
	assert.Equal(t, "42", r.Resolve("{{answer()}}"))
}

func TestResolve_LogsUnresolved(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewResolver(WithLogger(zap.New(core)), WithLookup(fakeEnv(nil)))

	r.Resolve("{{ghost}}")

	entries := logs.FilterMessage("unresolved placeholder").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "ghost", entries[0].ContextMap()["expr"])
	}
}

func TestSetAll_LaterWins(t *testing.T) {
	r := NewResolver()
	SetAll(r, map[string]string{"k": "first"})
	SetAll(r, map[string]string{"k": "second"})

	v, ok := r.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "second", v)
}
