package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/assertions"
	"github.com/abdul-hamid-achik/easyhttp/packages/capture"
	"github.com/abdul-hamid-achik/easyhttp/packages/core/env"
	"github.com/abdul-hamid-achik/easyhttp/packages/form"
	"github.com/abdul-hamid-achik/easyhttp/packages/history"
	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataFlags        []string
	formFlags        []string
	headerFlags      []string
	cookieFlags      []string
	bodyFlag         string
	userAgentFlag    string
	acceptFlag       string
	refererFlag      string
	contentTypeFlag  string
	userFlag         string
	timeoutFlag      time.Duration
	noRedirectFlag   bool
	multipartFlag    bool
	encodingFlag     string
	postEncodingFlag string
	outputFileFlag   string
	imageFlag        bool
	selectFlag       string
	schemaFlag       string
	captureFlags     []string
	expectFlags      []string
	historyFlag      string
	recordFlag       string
	mockFlag         string
	watchFlag        bool
	envFileFlag      string
	varFlags         []string
	verboseFlag      int // 0=off, 1=-v headers, 2=-vv debug logging
	quietFlag        bool
	jsonFlag         bool
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var sendExamples = map[string]string{
	http.MethodGet: `  easyhttp get https://httpbin.org/get -d q=search -H "X-Trace: 1"
  easyhttp get https://example.com/logo.png -o logo.png
  easyhttp get https://api.example.com/user --select login --history history.db`,
	http.MethodPost: `  easyhttp post https://httpbin.org/post -d name=ann -d age=7
  easyhttp post https://api.example.com/upload -F file=@photo.jpg;type=image/jpeg -d note=hi
  easyhttp post https://api.example.com/items --body @item.json --content-type application/json --watch
  easyhttp post https://api.example.com/login -d user={{USER}} --env-file .env --capture token=body:token`,
	http.MethodPut: `  easyhttp put https://api.example.com/items/1 -d name=renamed
  easyhttp put https://api.example.com/items/1 --body '{"name":"renamed"}' --content-type application/json`,
	http.MethodDelete: `  easyhttp delete https://api.example.com/items/1 -H "Authorization: Bearer {{$TOKEN}}"
  easyhttp delete https://api.example.com/items/1 --mock routes.yaml`,
}

func newSendCmd(method string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <url>",
		Short: fmt.Sprintf("Send a %s request", method),
		Long: fmt.Sprintf(`Send a %s request built from flags and print the response.

Placeholders such as {{name}}, {{$ENV_VAR}} and {{uuid()}} are filled from
--var, --env-file, EASYHTTP_VAR_* variables and earlier captures.

Examples:
%s`, method, sendExamples[method]),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendCommand(cmd, method, args[0])
		},
	}
	addSendFlags(cmd)
	return cmd
}

func addSendFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Request flags
	f.StringArrayVarP(&dataFlags, "data", "d", nil, "Form or query field key=value (repeatable, a=1&b=2 adds both)")
	f.StringArrayVarP(&formFlags, "form", "F", nil, "Multipart field key=value or file key=@path[;type=mime] (repeatable)")
	f.StringArrayVarP(&headerFlags, "header", "H", nil, `Request header "Name: value" (repeatable)`)
	f.StringArrayVar(&cookieFlags, "cookie", nil, `Cookies "a=1; b=2" (repeatable)`)
	f.StringVar(&bodyFlag, "body", "", "Raw request body, or @path to read it from a file")
	f.StringVar(&userAgentFlag, "user-agent", getEnvString("EASYHTTP_USER_AGENT", ""), "User-Agent header (env: EASYHTTP_USER_AGENT)")
	f.StringVar(&acceptFlag, "accept", "", "Accept header")
	f.StringVar(&refererFlag, "referer", "", "Referer header")
	f.StringVar(&contentTypeFlag, "content-type", "", "Content-Type header")
	f.StringVarP(&userFlag, "user", "u", "", "Basic auth credentials user:password")
	f.DurationVar(&timeoutFlag, "timeout", getEnvDuration("EASYHTTP_TIMEOUT", 0), "Request timeout, e.g. 5s (env: EASYHTTP_TIMEOUT)")
	f.BoolVar(&noRedirectFlag, "no-redirect", false, "Do not follow redirects")
	f.BoolVar(&multipartFlag, "multipart", false, "Send fields as multipart/form-data even without files")
	f.StringVar(&encodingFlag, "encoding", "", "Response charset, or auto to detect it")
	f.StringVar(&postEncodingFlag, "post-encoding", "", "Charset of the form body")

	// Output flags
	f.StringVarP(&outputFileFlag, "output", "o", "", "Write the response body to a file")
	f.BoolVar(&imageFlag, "image", false, "Decode the response as an image and print its size")
	f.StringVar(&selectFlag, "select", "", "Print only this JSON path of the response (gjson syntax)")
	f.StringVar(&schemaFlag, "schema", "", "Validate the JSON response against a JSON Schema file")
	f.StringArrayVar(&expectFlags, "expect", nil, `Check the response, e.g. "status == 200" or "body.id exists" (repeatable)`)
	f.StringArrayVar(&captureFlags, "capture", nil, "Capture name=source[:path], source is body, header or status (repeatable)")
	f.CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v headers, -vv debug logging)")
	f.BoolVarP(&quietFlag, "quiet", "q", getEnvBool("EASYHTTP_QUIET", false), "Print the body only (env: EASYHTTP_QUIET)")
	f.BoolVar(&jsonFlag, "json", false, "Print the exchange as JSON")

	// Session flags
	f.StringVar(&historyFlag, "history", getEnvString("EASYHTTP_HISTORY", ""), "Store the exchange in this SQLite database (env: EASYHTTP_HISTORY)")
	f.StringVar(&recordFlag, "record", "", "Write the exchange to a recordings JSON file")
	f.StringVar(&mockFlag, "mock", getEnvString("EASYHTTP_MOCK", ""), "Answer from mock routes in this YAML or JSON file (env: EASYHTTP_MOCK)")
	f.BoolVarP(&watchFlag, "watch", "w", false, "Send again whenever the body, an upload or the env file changes")
	f.StringVar(&envFileFlag, "env-file", getEnvString("EASYHTTP_ENV_FILE", ""), "Path to .env file for variable interpolation (env: EASYHTTP_ENV_FILE)")
	f.StringArrayVar(&varFlags, "var", nil, "Variable name=value for placeholders (repeatable)")

	for _, name := range []string{"output", "schema", "history", "record", "env-file"} {
		_ = cmd.MarkFlagFilename(name)
	}
	_ = cmd.MarkFlagFilename("mock", "yaml", "yml", "json")
}

func init() {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		rootCmd.AddCommand(newSendCmd(method))
	}
}

// upload is one -F key=@path[;type=mime] flag.
type upload struct {
	key         string
	path        string
	contentType string
}

// headerLine is one -H flag.
type headerLine struct {
	name  string
	value string
}

func parseHeader(h string) (headerLine, error) {
	name, value, ok := strings.Cut(h, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return headerLine{}, fmt.Errorf("%w: invalid header %q: want \"Name: value\"", errUsage, h)
	}
	return headerLine{name: name, value: strings.TrimSpace(value)}, nil
}

// requestFlags is the request as given on the command line, placeholders
// still in place.
type requestFlags struct {
	fields    []form.KeyValue
	uploads   []upload
	headers   []headerLine
	cookies   []string
	multipart bool
	body      string
	bodyFile  string
	captures  []capture.Capture
	expects   []*assertions.Assertion
}

func parseRequestFlags() (*requestFlags, error) {
	rf := &requestFlags{multipart: multipartFlag, cookies: cookieFlags}

	for _, d := range dataFlags {
		rf.fields = append(rf.fields, form.Decode(d)...)
	}

	for _, f := range formFlags {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: invalid form field %q: want key=value or key=@path", errUsage, f)
		}
		rf.multipart = true
		path, ok := strings.CutPrefix(value, "@")
		if !ok {
			rf.fields = append(rf.fields, form.Field(key, value))
			continue
		}
		u := upload{key: key, path: path}
		if p, params, found := strings.Cut(path, ";"); found {
			u.path = p
			if t, ok := strings.CutPrefix(strings.TrimSpace(params), "type="); ok {
				u.contentType = t
			}
		}
		if u.path == "" {
			return nil, fmt.Errorf("%w: invalid form field %q: empty file path", errUsage, f)
		}
		rf.uploads = append(rf.uploads, u)
	}

	for _, h := range headerFlags {
		line, err := parseHeader(h)
		if err != nil {
			return nil, err
		}
		rf.headers = append(rf.headers, line)
	}

	if path, ok := strings.CutPrefix(bodyFlag, "@"); ok {
		rf.bodyFile = path
	} else {
		rf.body = bodyFlag
	}

	for _, expr := range captureFlags {
		c, err := capture.ParseCapture(expr)
		if err != nil {
			return nil, err
		}
		rf.captures = append(rf.captures, c)
	}

	expects, err := assertions.ParseAll(expectFlags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	rf.expects = expects

	return rf, nil
}

// watchedFiles lists the local files a request reads.
func (rf *requestFlags) watchedFiles() []string {
	var files []string
	for _, u := range rf.uploads {
		files = append(files, u.path)
	}
	if rf.bodyFile != "" {
		files = append(files, rf.bodyFile)
	}
	if envFileFlag != "" {
		files = append(files, envFileFlag)
	}
	return files
}

func newResolver(logger *zap.Logger) (*env.Resolver, error) {
	r := env.NewResolver(env.WithLogger(logger))
	env.SetAll(r, env.LoadSystemEnv(env.SystemPrefix))
	if envFileFlag != "" {
		vars, err := env.LoadDotEnv(envFileFlag)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errConfig, err)
		}
		env.SetAll(r, vars)
	}
	vars, err := env.ParseAssignments(varFlags)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	env.SetAll(r, vars)
	return r, nil
}

// sender sends the same command line request, possibly many times.
type sender struct {
	method   string
	rawURL   string
	flags    *requestFlags
	session  *session
	resolver *env.Resolver
	store    *history.Store
	out      output.Formatter
}

func sendCommand(cmd *cobra.Command, method, rawURL string) error {
	rf, err := parseRequestFlags()
	if err != nil {
		return err
	}

	s, err := newSession(sessionOptions{
		mockFile: mockFlag,
		record:   historyFlag != "" || recordFlag != "",
		verbose:  verboseFlag,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	if postEncodingFlag != "" {
		s.client.PostEncoding(postEncodingFlag)
	}

	resolver, err := newResolver(s.logger)
	if err != nil {
		return err
	}

	snd := &sender{
		method:   method,
		rawURL:   rawURL,
		flags:    rf,
		session:  s,
		resolver: resolver,
		out: output.New(jsonFlag, cmd.OutOrStdout(),
			output.WithVerbose(verboseFlag > 0),
			output.WithQuiet(quietFlag),
			output.WithNoColor(colorDisabled(s.cfg)),
		),
	}

	if historyFlag != "" {
		store, err := history.Open(historyFlag)
		if err != nil {
			return fmt.Errorf("%w: %w", errConfig, err)
		}
		defer store.Close()
		snd.store = store
	}

	ctx, cancel := signalContext()
	defer cancel()

	err = snd.send(ctx)
	if !watchFlag {
		return err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	}
	return snd.watch(ctx, cmd)
}

func (s *sender) resolve(v string) string {
	return s.resolver.Resolve(v)
}

// configure starts a new request on the session client from the flags.
func (s *sender) configure() error {
	c := s.session.client
	if err := c.NewRequest(s.resolve(s.rawURL)); err != nil {
		return err
	}

	rf := s.flags
	for _, kv := range rf.fields {
		c.Data(s.resolve(kv.Key), s.resolve(kv.Value))
	}
	for _, u := range rf.uploads {
		path := s.resolve(u.path)
		c.FileWithType(u.key, filepath.Base(path), path, u.contentType)
	}
	if rf.multipart {
		c.AsMultipart()
	}
	for _, h := range rf.headers {
		c.Header(h.name, s.resolve(h.value))
	}
	for _, ck := range rf.cookies {
		c.Cookies(s.resolve(ck))
	}

	body := rf.body
	if rf.bodyFile != "" {
		data, err := os.ReadFile(rf.bodyFile)
		if err != nil {
			return fmt.Errorf("%w: %w", easyhttp.ErrEncode, err)
		}
		body = string(data)
	}
	if body != "" {
		c.Body(s.resolve(body))
	}

	for _, opt := range []struct {
		value string
		set   func(string) *easyhttp.Client
	}{
		{userAgentFlag, c.UserAgent},
		{acceptFlag, c.Accept},
		{refererFlag, c.Referer},
		{contentTypeFlag, c.ContentType},
		{encodingFlag, c.ResponseEncoding},
	} {
		if opt.value != "" {
			opt.set(s.resolve(opt.value))
		}
	}
	if userFlag != "" {
		user, pass, _ := strings.Cut(s.resolve(userFlag), ":")
		c.Credentials(user, pass)
	}
	if timeoutFlag > 0 {
		c.Timeout(timeoutFlag)
	}
	if noRedirectFlag {
		c.FollowRedirects(false)
	}
	return nil
}

// send performs one exchange and prints it. Captures are kept for later
// sends of a watch session.
func (s *sender) send(ctx context.Context) error {
	if err := s.configure(); err != nil {
		return err
	}

	c := s.session.client
	res := &output.Result{Method: s.method, URL: c.URL()}
	start := time.Now()

	var err error
	switch {
	case outputFileFlag != "":
		var fr easyhttp.FileResult
		fr, err = c.ExecuteForFile(s.method, outputFileFlag)
		res.SavedTo, res.Written = outputFileFlag, fr.Written
		if err == nil && !fr.Complete() {
			err = fmt.Errorf("%w: wrote %d of %d bytes to %s", errFailed, fr.Written, fr.Expected, outputFileFlag)
		}
	case imageFlag:
		img, imgErr := c.ExecuteForImage(s.method)
		if err = imgErr; err == nil {
			b := img.Bounds()
			res.Body = fmt.Appendf(nil, "image %dx%d", b.Dx(), b.Dy())
		}
	default:
		res.Body, err = s.text(ctx)
	}
	res.Duration = time.Since(start)

	if c.Phase() != easyhttp.PhaseCompleted {
		return err
	}
	resp := c.LastResponse()
	res.Status, res.StatusText, res.Proto, res.Header = resp.StatusCode, resp.Status, resp.Proto, resp.Header
	if resp.Request != nil {
		res.URL = resp.Request.URL.String()
	}

	if checkErr := s.check(res); err == nil {
		err = checkErr
	}
	if id, ok := s.remember(ctx); ok {
		res.HistoryID = id
	}

	if fmtErr := s.out.Format(res); fmtErr != nil {
		return fmtErr
	}
	return err
}

// text executes and decodes the body. A status of 400 or more still
// returns the body, together with a *StatusError.
func (s *sender) text(ctx context.Context) ([]byte, error) {
	c := s.session.client
	resp, err := c.ExecuteContext(ctx, s.method)
	if err != nil {
		return nil, err
	}
	body, err := c.ReadString(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return []byte(body), &easyhttp.StatusError{
			Method:     s.method,
			URL:        c.URL(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}
	return []byte(body), nil
}

// check applies captures, --expect, --schema and --select to res.
func (s *sender) check(res *output.Result) error {
	var err error
	if len(s.flags.expects) > 0 {
		res.Checks = assertions.EvaluateAll(&assertions.Response{
			Status:   res.Status,
			Header:   res.Header,
			Body:     res.Body,
			Duration: res.Duration,
		}, s.flags.expects)
		if failed := assertions.Failed(res.Checks); len(failed) > 0 {
			err = fmt.Errorf("%w: %d of %d checks failed", errFailed, len(failed), len(res.Checks))
		}
	}
	if len(s.flags.captures) > 0 {
		res.Captures = capture.NewExtractor(s.session.client.LastResponse(), res.Body).ExtractAll(s.flags.captures)
		env.SetAll(s.resolver, res.Captures)
	}
	if schemaFlag != "" && res.SavedTo == "" {
		if schemaErr := capture.ValidateSchema(schemaFlag, res.Body); schemaErr != nil {
			res.SchemaErr = schemaErr
			if err == nil {
				err = fmt.Errorf("%w: %w", errFailed, schemaErr)
			}
		}
	}
	if selectFlag != "" && res.SavedTo == "" {
		v, ok := capture.Select(res.Body, selectFlag)
		if !ok && err == nil {
			err = fmt.Errorf("%w: nothing at %q", errFailed, selectFlag)
		}
		res.Body = []byte(v)
	}
	return err
}

// remember writes the last exchange to --record and --history.
func (s *sender) remember(ctx context.Context) (string, bool) {
	rec, ok := s.session.lastRecording()
	if !ok {
		return "", false
	}
	if recordFlag != "" {
		if err := s.session.recorder.WriteFile(recordFlag); err != nil {
			s.session.logger.Warn("writing recordings", zap.String("file", recordFlag), zap.Error(err))
		}
	}
	if s.store == nil {
		return "", false
	}
	id, err := s.store.Add(ctx, rec)
	if err != nil {
		s.session.logger.Warn("storing history", zap.Error(err))
		return "", false
	}
	return id, true
}

// watch sends again after any watched file is written, until ctx ends.
func (s *sender) watch(ctx context.Context, cmd *cobra.Command) error {
	files := s.flags.watchedFiles()
	if len(files) == 0 {
		return fmt.Errorf("%w: --watch needs --body @file, an -F upload or --env-file", errUsage)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")
	return watchFiles(ctx, files, func(name string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\nSending again...\n\n", name)
		if envFileFlag != "" {
			if vars, err := env.LoadDotEnv(envFileFlag); err == nil {
				env.SetAll(s.resolver, vars)
			}
		}
		if err := s.send(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")
	})
}
