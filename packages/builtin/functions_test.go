package builtin

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		expr string
		want string
	}{
		{`base64(hello)`, "aGVsbG8="},
		{`base64Decode("aGVsbG8=")`, "hello"},
		{`md5(abc)`, "900150983cd24fb0d6963f7d28e17f72"},
		{`sha256('abc')`, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{`urlEncode("a b&c")`, "a+b%26c"},
		{`urlDecode(a+b%26c)`, "a b&c"},
		{`random(7, 7)`, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Call(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCall_Generated(t *testing.T) {
	r := NewRegistry()

	id, err := r.Call("uuid()")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	ts, err := r.Call("timestamp()")
	require.NoError(t, err)
	n, err := strconv.ParseInt(ts, 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().Unix(), n, 5)

	s, err := r.Call("randomString(12)")
	require.NoError(t, err)
	assert.Len(t, s, 12)

	d, err := r.Call("date(2006)")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(time.Now().UTC().Year()), d)

	for range 50 {
		v, err := r.Call("random(1, 3)")
		require.NoError(t, err)
		assert.Contains(t, []string{"1", "2", "3"}, v)
	}
}

func TestCall_Env(t *testing.T) {
	t.Setenv("EASYHTTP_BUILTIN_TEST", "yes")

	got, err := NewRegistry().Call("env(EASYHTTP_BUILTIN_TEST)")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)
}

func TestCall_Errors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Call("plainName")
	assert.ErrorIs(t, err, ErrNotCall)

	_, err = r.Call("nope()")
	assert.ErrorIs(t, err, ErrUnknownFunction)

	for _, expr := range []string{"random(a, 2)", "random(5, 1)", "random(1)", "base64()", "base64Decode(@@@)", "randomString(x)"} {
		_, err := r.Call(expr)
		assert.Error(t, err, expr)
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("shout", func(args []string) (string, error) { return args[0] + "!", nil })

	got, err := r.Call("shout(hi)")
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)
	assert.Contains(t, r.Names(), "shout")
	assert.IsNonDecreasing(t, r.Names())
}

func TestSplitArgs(t *testing.T) {
	assert.Nil(t, splitArgs(" "))
	assert.Equal(t, []string{"a", "b"}, splitArgs("a, b"))
	assert.Equal(t, []string{"a,b", "c"}, splitArgs(`"a,b", c`))
	assert.Equal(t, []string{"it's"}, splitArgs(`"it's"`))
	assert.Equal(t, []string{"", ""}, splitArgs(","))
}
