package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, conn string) *Store {
	t.Helper()
	s, err := Open(conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func recording(method, url string, status int, at time.Time) record.Recording {
	return record.Recording{
		Time:         at,
		Method:       method,
		URL:          url,
		Path:         "/",
		Status:       status,
		ResponseBody: "ok",
		Duration:     25 * time.Millisecond,
	}
}

func TestOpen_ConnectionForms(t *testing.T) {
	dir := t.TempDir()
	for _, conn := range []string{
		"sqlite://" + filepath.Join(dir, "a.db"),
		"sqlite:" + filepath.Join(dir, "b.db"),
		filepath.Join(dir, "c.db"),
	} {
		s, err := Open(conn)
		require.NoError(t, err, conn)
		require.NoError(t, s.Close())
	}

	_, err := Open("  ")
	assert.Error(t, err)
}

func TestAddAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "history.db"))

	base := time.Now().Add(-time.Hour)
	_, err := s.Add(ctx, recording("GET", "http://x.test/1", 200, base))
	require.NoError(t, err)
	_, err = s.Add(ctx, recording("POST", "http://x.test/2", 201, base.Add(time.Minute)))
	require.NoError(t, err)
	id3, err := s.Add(ctx, recording("DELETE", "http://x.test/3", 404, base.Add(2*time.Minute)))
	require.NoError(t, err)

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id3, entries[0].ID)
	assert.Equal(t, "DELETE", entries[0].Method)
	assert.Equal(t, 404, entries[0].Status)
	assert.Equal(t, 25*time.Millisecond, entries[0].Duration)
	assert.Equal(t, "ok", entries[0].Recording.ResponseBody)
	assert.Equal(t, "POST", entries[1].Method)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "history.db"))

	id, err := s.Add(ctx, recording("GET", "http://x.test/", 200, time.Time{}))
	require.NoError(t, err)

	e, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "http://x.test/", e.URL)
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)

	e, err = s.Get(ctx, id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)

	_, err = s.Get(ctx, "00000000-no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "history.db"))

	for range 3 {
		_, err := s.Add(ctx, recording("GET", "http://x.test/", 200, time.Now()))
		require.NoError(t, err)
	}

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "sqlite:"+filepath.Join(t.TempDir(), "history.db"))

	for _, status := range []int{200, 200, 500} {
		_, err := s.Add(ctx, recording("GET", "http://x.test/", status, time.Now()))
		require.NoError(t, err)
	}

	res, err := s.Query(ctx, `SELECT status, COUNT(*) AS n FROM exchanges GROUP BY status ORDER BY status`)
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "n"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(200), res.Rows[0]["status"])
	assert.Equal(t, int64(2), res.Rows[0]["n"])

	res, err = s.Query(ctx, `SELECT url FROM exchanges WHERE status = ?`, 404)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)

	_, err = s.Query(ctx, `SELECT nope FROM nowhere`)
	assert.Error(t, err)
}
