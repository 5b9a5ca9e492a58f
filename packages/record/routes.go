package record

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/easyhttp/packages/mock"
	"gopkg.in/yaml.v3"
)

// replayHeaders are response headers worth replaying.
var replayHeaders = []string{"Content-Type", "Location", "Cache-Control", "Etag", "Set-Cookie"}

// Routes turns recordings into mock routes, one per successful exchange,
// in recording order.
func Routes(recs []Recording) []*mock.Route {
	var routes []*mock.Route
	for i, rec := range recs {
		if rec.Error != "" || rec.Status == 0 {
			continue
		}
		body := rec.ResponseBody
		if rec.BodyEncoding == "base64" {
			if raw, err := base64.StdEncoding.DecodeString(body); err == nil {
				body = string(raw)
			}
		}
		rt := &mock.Route{
			Name:   fmt.Sprintf("recorded-%d", i+1),
			Method: rec.Method,
			Path:   rec.Path,
			Status: rec.Status,
			Body:   body,
		}
		for _, name := range replayHeaders {
			if v, ok := rec.ResponseHeader[name]; ok {
				if rt.Headers == nil {
					rt.Headers = make(map[string]string)
				}
				rt.Headers[name] = v
			}
		}
		routes = append(routes, rt)
	}
	return routes
}

// WriteRoutes writes recs as a YAML route table that mock.Load reads.
func WriteRoutes(path string, recs []Recording) error {
	data, err := yaml.Marshal(mock.File{Routes: Routes(recs)})
	if err != nil {
		return fmt.Errorf("encoding routes: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing routes: %w", err)
	}
	return nil
}
