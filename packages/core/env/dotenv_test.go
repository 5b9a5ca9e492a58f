package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	content := `# comment
API_KEY=secret123
QUOTED="with spaces"
SINGLE='it is'
export EXPORTED=yes
INLINE=value # trailing
HASH="keep # this"
EMPTY=
URL=http://x.test/?a=1&b=2
 =nokey
no_equals
`
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	vars, err := LoadDotEnv(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"API_KEY":  "secret123",
		"QUOTED":   "with spaces",
		"SINGLE":   "it is",
		"EXPORTED": "yes",
		"INLINE":   "value",
		"HASH":     "keep # this",
		"EMPTY":    "",
		"URL":      "http://x.test/?a=1&b=2",
	}, vars)
}

func TestLoadDotEnv_Missing(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv(SystemPrefix+"TOKEN", "abc")
	t.Setenv("UNRELATED_TOKEN", "zzz")

	vars := LoadSystemEnv(SystemPrefix)
	assert.Equal(t, "abc", vars["TOKEN"])
	assert.NotContains(t, vars, "UNRELATED_TOKEN")
}

func TestParseAssignments(t *testing.T) {
	vars, err := ParseAssignments([]string{"a=1", "b=x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, vars)

	_, err = ParseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseAssignments([]string{"=1"})
	assert.Error(t, err)
}
