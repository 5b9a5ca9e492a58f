package stress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
)

// Target is one request template. Each execution configures a fresh request
// on the session it is handed.
type Target struct {
	Name    string
	Method  string
	URL     string
	Params  []form.KeyValue
	Headers http.Header
	Body    string
	Weight  int
}

func (t *Target) label() string {
	if t.Name != "" {
		return t.Name
	}
	return strings.ToUpper(t.method()) + " " + t.URL
}

func (t *Target) String() string {
	return fmt.Sprintf("%s (weight %d)", t.label(), t.Weight)
}

func (t *Target) method() string {
	if t.Method == "" {
		return http.MethodGet
	}
	return t.Method
}

// Hit runs the target once on c and drains the response. Statuses of 400
// and above are reported as *easyhttp.StatusError.
func (t *Target) Hit(ctx context.Context, c *easyhttp.Client) error {
	if err := c.NewRequest(t.URL); err != nil {
		return err
	}
	c.Params(t.Params...)
	for name, values := range t.Headers {
		for _, v := range values {
			c.Header(name, v)
		}
	}
	if t.Body != "" {
		c.Body(t.Body)
	}

	resp, err := c.ExecuteContext(ctx, t.method())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("%w: %v", easyhttp.ErrTransport, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &easyhttp.StatusError{
			Method:     strings.ToUpper(t.method()),
			URL:        t.URL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}
	return nil
}
