package mock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routesYAML = `
routes:
  - name: user
    method: GET
    path: /users/{{id}}
    headers:
      Content-Type: application/json
    body: '{"id": "{{id}}", "trace": "{{uuid()}}", "keep": "{{other}}"}'
  - name: create
    method: post
    path: /users/
    status: 201
    body: created
  - name: any
    method: "*"
    path: /files/{{dir}}/{{name}}.txt
    body: "{{dir}}:{{name}}"
`

func loadRoutes(t *testing.T, content, name string, opts ...Option) *Responder {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	r, err := Load(path, opts...)
	require.NoError(t, err)
	return r
}

func dispatch(t *testing.T, r *Responder, method, rawURL string) (*http.Response, string) {
	t.Helper()
	req, err := transport.Open(method, rawURL)
	require.NoError(t, err)
	resp, err := r.Dispatch(&transport.Prepared{Request: req})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestLoad_YAML(t *testing.T) {
	r := loadRoutes(t, routesYAML, "routes.yaml")
	require.Len(t, r.Routes(), 3)
	assert.Equal(t, http.StatusOK, r.Routes()[0].Status)
	assert.Equal(t, http.StatusCreated, r.Routes()[1].Status)
}

func TestLoad_JSON(t *testing.T) {
	r := loadRoutes(t, `{"routes":[{"method":"GET","path":"/ping","body":"pong"}]}`, "routes.json")

	resp, body := dispatch(t, r, http.MethodGet, "http://mock.test/ping")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", body)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes: [ {path: "), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - method: GET\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "no path")
}

func TestDispatch_PathParamsAndBuiltins(t *testing.T) {
	r := loadRoutes(t, routesYAML, "routes.yaml")

	resp, body := dispatch(t, r, http.MethodGet, "http://mock.test/users/42?x=1")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "200 OK", resp.Status)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotNil(t, resp.Request)

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "42", doc["id"])
	assert.Equal(t, "{{other}}", doc["keep"])
	_, err := uuid.Parse(doc["trace"])
	assert.NoError(t, err)
}

func TestDispatch_MethodAndTrailingSlash(t *testing.T) {
	r := loadRoutes(t, routesYAML, "routes.yaml")

	resp, body := dispatch(t, r, http.MethodPost, "http://mock.test/users")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "created", body)

	resp, _ = dispatch(t, r, http.MethodDelete, "http://mock.test/users")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = dispatch(t, r, http.MethodPut, "http://mock.test/files/docs/readme.txt")
	assert.Equal(t, "docs:readme", body)

	resp, _ = dispatch(t, r, http.MethodGet, "http://mock.test/files/docs/readmeXtxt")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "literal dots are not wildcards")
}

func TestDispatch_Unmatched(t *testing.T) {
	r := NewResponder()

	resp, body := dispatch(t, r, http.MethodGet, "http://mock.test/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no mock route for GET /nowhere\n", body)
}

func TestDispatch_DelayHonoursContext(t *testing.T) {
	r := NewResponder(WithDelay(time.Second))
	require.NoError(t, r.Add(&Route{Path: "/slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, err := transport.Open(http.MethodGet, "http://mock.test/slow")
	require.NoError(t, err)

	_, err = r.Dispatch(&transport.Prepared{Request: req.WithContext(ctx)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServeHTTP(t *testing.T) {
	r := loadRoutes(t, routesYAML, "routes.yaml")
	server := httptest.NewServer(r)
	defer server.Close()

	resp, err := http.Get(server.URL + "/users/9")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"id": "9"`)
}
