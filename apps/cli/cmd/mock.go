package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/mock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mockPortFlag    int
	mockDelayFlag   time.Duration
	mockVerboseFlag bool
)

var mockCmd = &cobra.Command{
	Use:   "mock <routes.yaml>",
	Short: "Serve canned responses from a routes file",
	Long: `Start an HTTP mock server that answers from a YAML or JSON routes file.
The same file can be passed to "easyhttp get --mock" to answer without a
server.

The mock server:
- Matches routes by method and path
- Supports path parameters (e.g., /users/{{id}}) and builtin functions
  such as {{uuid()}} in bodies
- Can add artificial delays to simulate network latency

Routes files come from hand or from "easyhttp record --routes".

Examples:
  easyhttp mock routes.yaml
  easyhttp mock routes.yaml --port 3000 --delay 100ms`,
	Args: cobra.ExactArgs(1),
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", getEnvInt("EASYHTTP_MOCK_PORT", 3000), "Port to run the mock server on (env: EASYHTTP_MOCK_PORT)")
	mockCmd.Flags().DurationVarP(&mockDelayFlag, "delay", "d", 0, "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(mockCmd)
}

func mockCommand(cmd *cobra.Command, args []string) error {
	verbosity := 0
	if mockVerboseFlag {
		verbosity = 2
	}
	logger := newLogger(verbosity)
	defer func() { _ = logger.Sync() }()

	responder, err := mock.Load(args[0], mock.WithDelay(mockDelayFlag), mock.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	routes := responder.Routes()
	if len(routes) == 0 {
		return fmt.Errorf("%w: no routes found in %s", errConfig, args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d routes from %s\n", len(routes), args[0])

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", mockPortFlag),
		Handler:           responder,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, cmd, srv, logger, "mock server")
}

// serveUntilDone runs srv until ctx ends, then shuts it down gracefully.
func serveUntilDone(ctx context.Context, cmd *cobra.Command, srv *http.Server, logger *zap.Logger, name string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "%s listening on http://localhost%s\n", name, srv.Addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nShutting down %s...\n", name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return nil
}
