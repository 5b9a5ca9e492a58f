package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/header"
	"github.com/abdul-hamid-achik/easyhttp/packages/record"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recordPortFlag    int
	recordTargetFlag  string
	recordOutputFlag  string
	recordRoutesFlag  string
	recordExcludeFlag string
	recordVerboseFlag bool
	recordDedupeFlag  bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Start a recording proxy to capture HTTP requests",
	Long: `Start an HTTP proxy that records requests and responses, then writes
them out on exit.

The proxy:
- Forwards all requests to the target server
- Records requests and responses
- Replaces sensitive headers (Authorization, Cookie, etc.) with {{NAME}}
  placeholders
- Writes a recordings JSON file, and mock routes with --routes

Examples:
  easyhttp record --port 8080 --target https://api.example.com
  easyhttp record --target https://api.example.com -o session.json --routes routes.yaml
  easyhttp record --target https://api.example.com --exclude "/health,/metrics" --dedupe`,
	Args: cobra.NoArgs,
	RunE: recordCommand,
}

func init() {
	recordCmd.Flags().IntVarP(&recordPortFlag, "port", "p", 8080, "Port to run the proxy on")
	recordCmd.Flags().StringVarP(&recordTargetFlag, "target", "t", "", "Target URL to proxy to (required)")
	recordCmd.Flags().StringVarP(&recordOutputFlag, "output", "o", "recordings.json", "Recordings file")
	recordCmd.Flags().StringVar(&recordRoutesFlag, "routes", "", "Also write the recordings as mock routes to this YAML file")
	recordCmd.Flags().StringVar(&recordExcludeFlag, "exclude", "", "Paths to exclude from recording (comma-separated)")
	recordCmd.Flags().BoolVarP(&recordVerboseFlag, "verbose", "v", false, "Enable verbose logging")
	recordCmd.Flags().BoolVar(&recordDedupeFlag, "dedupe", false, "Skip duplicate requests (same method+path)")

	_ = recordCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(recordCmd)
}

func recordCommand(cmd *cobra.Command, args []string) error {
	target, err := transport.ValidateURL(recordTargetFlag)
	if err != nil {
		return fmt.Errorf("%w: --target: %w", errUsage, err)
	}

	// Parse exclude paths
	var excludePaths []string
	for _, p := range strings.Split(recordExcludeFlag, ",") {
		if p = strings.TrimSpace(p); p != "" {
			excludePaths = append(excludePaths, p)
		}
	}

	verbosity := 0
	if recordVerboseFlag {
		verbosity = 2
	}
	logger := newLogger(verbosity)
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	recorder := record.New(newNetTransport(cfg),
		record.WithExclude(excludePaths...),
		record.WithDeduplicate(recordDedupeFlag),
		record.WithLogger(logger),
	)

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", recordPortFlag),
		Handler:           forwarder(target, recorder, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := serveUntilDone(ctx, cmd, srv, logger, "recording proxy"); err != nil {
		return err
	}

	recordings := recorder.Recordings()
	if len(recordings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nRecorded %d requests\n", len(recordings))

	if err := recorder.WriteFile(recordOutputFlag); err != nil {
		return fmt.Errorf("failed to write recordings: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", recordOutputFlag)

	if recordRoutesFlag != "" {
		if err := record.WriteRoutes(recordRoutesFlag, recordings); err != nil {
			return fmt.Errorf("failed to write routes: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Mock routes written to %s\n", recordRoutesFlag)
	}
	return nil
}

// hopHeaders are not forwarded by the proxy.
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
	// dropped so the upstream answer arrives decompressed and readable
	"Accept-Encoding",
}

// forwarder sends every incoming request to target through d and copies the
// answer back.
func forwarder(target *url.URL, d transport.Dispatcher, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		out := *target
		out.Path = strings.TrimSuffix(target.Path, "/") + r.URL.Path
		out.RawQuery = r.URL.RawQuery

		req, err := http.NewRequestWithContext(r.Context(), r.Method, out.String(), bytes.NewReader(body))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Header = r.Header.Clone()
		for _, h := range hopHeaders {
			req.Header.Del(h)
		}

		resp, err := d.Dispatch(&transport.Prepared{
			Request: req,
			Options: header.Options{FollowRedirects: header.Some(false)},
		})
		if err != nil {
			logger.Warn("upstream request failed", zap.String("url", out.String()), zap.Error(err))
			http.Error(w, "upstream: "+err.Error(), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for k, vs := range resp.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.Header().Del("Content-Length")
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	})
}
