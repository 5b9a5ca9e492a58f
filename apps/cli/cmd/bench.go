package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
	"github.com/abdul-hamid-achik/easyhttp/packages/mock"
	"github.com/abdul-hamid-achik/easyhttp/packages/stress"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var benchCmd = &cobra.Command{
	Use:   "bench <url> [url...]",
	Short: "Load test one or more endpoints",
	Long: `Send requests at a fixed rate, or from looping virtual users, and
report latency percentiles. Every worker is an independent session with its
own cookies; all of them share one connection pool.

Examples:
  # Simple constant rate test
  easyhttp bench https://api.example.com/health --duration 1m --rate 100

  # Virtual users mode with think time
  easyhttp bench https://api.example.com/items --vus 50 --think-time 1s

  # Form posts with ramp-up
  easyhttp bench https://api.example.com/login -X POST -d user=ann --rate 200 --ramp-up 30s

  # With thresholds for CI/CD
  easyhttp bench https://api.example.com/ -t 1m -r 100 --threshold "p95<200ms,errors<0.1%"`,
	Args: cobra.MinimumNArgs(1),
	RunE: benchCommand,
}

var (
	benchMethodFlag     string
	benchDataFlags      []string
	benchHeaderFlags    []string
	benchBodyFlag       string
	benchDurationFlag   time.Duration
	benchRateFlag       float64
	benchVUsFlag        int
	benchMaxVUsFlag     int
	benchThinkTimeFlag  time.Duration
	benchRampUpFlag     time.Duration
	benchThresholdFlag  string
	benchNoProgressFlag bool
	benchVerboseFlag    bool
	benchJSONFlag       bool
	benchMockFlag       string
)

func init() {
	benchCmd.Flags().StringVarP(&benchMethodFlag, "method", "X", http.MethodGet, "Request method")
	benchCmd.Flags().StringArrayVarP(&benchDataFlags, "data", "d", nil, "Form or query field key=value (repeatable)")
	benchCmd.Flags().StringArrayVarP(&benchHeaderFlags, "header", "H", nil, `Request header "Name: value" (repeatable)`)
	benchCmd.Flags().StringVar(&benchBodyFlag, "body", "", "Raw request body")
	benchCmd.Flags().DurationVarP(&benchDurationFlag, "duration", "t", getEnvDuration("EASYHTTP_BENCH_DURATION", 30*time.Second), "Test duration (env: EASYHTTP_BENCH_DURATION)")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", 10, "Target requests per second")
	benchCmd.Flags().IntVarP(&benchVUsFlag, "vus", "u", 0, "Number of virtual users (alternative to rate)")
	benchCmd.Flags().IntVar(&benchMaxVUsFlag, "max-vus", getEnvInt("EASYHTTP_BENCH_MAX_VUS", 100), "Maximum concurrent requests (env: EASYHTTP_BENCH_MAX_VUS)")
	benchCmd.Flags().DurationVar(&benchThinkTimeFlag, "think-time", 0, "Think time between requests per VU")
	benchCmd.Flags().DurationVar(&benchRampUpFlag, "ramp-up", 0, "Ramp-up time to reach target rate/VUs")
	benchCmd.Flags().StringVar(&benchThresholdFlag, "threshold", "", `Pass/fail thresholds (e.g., "p95<200ms,errors<0.1%")`)
	benchCmd.Flags().BoolVar(&benchNoProgressFlag, "no-progress", false, "Disable real-time progress display")
	benchCmd.Flags().BoolVarP(&benchVerboseFlag, "verbose", "v", false, "Verbose output with per-target breakdown")
	benchCmd.Flags().BoolVar(&benchJSONFlag, "json", false, "Output results as JSON")
	benchCmd.Flags().StringVar(&benchMockFlag, "mock", "", "Answer from mock routes instead of the network")

	rootCmd.AddCommand(benchCmd)
}

func benchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := buildBenchConfig()
	if err != nil {
		return err
	}
	targets, err := buildTargets(args)
	if err != nil {
		return err
	}

	fileConfig, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(0)
	defer func() { _ = logger.Sync() }()

	var base transport.Dispatcher = newNetTransport(fileConfig)
	if benchMockFlag != "" {
		responder, err := mock.Load(benchMockFlag, mock.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("%w: %w", errConfig, err)
		}
		base = responder
	}
	opts, err := clientOptions(fileConfig, logger, base)
	if err != nil {
		return err
	}

	// With --json the human readable report goes to stderr.
	out := cmd.OutOrStdout()
	if benchJSONFlag {
		out = cmd.ErrOrStderr()
	}
	reporter := stress.NewReporter(
		stress.WithWriter(out),
		stress.WithNoColor(colorDisabled(fileConfig)),
		stress.WithProgress(!benchNoProgressFlag),
		stress.WithVerbose(benchVerboseFlag),
	)

	runner := stress.NewRunner(cfg, targets,
		stress.WithReporter(reporter),
		stress.WithSessionFactory(stress.SharedTransportSessions(opts...)),
		stress.WithLogger(logger),
	)

	ctx, cancel := signalContext()
	defer cancel()

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Debug("bench finished", zap.Int64("requests", result.Summary.Total))

	if benchJSONFlag {
		if err := stress.NewReporter(stress.WithWriter(cmd.OutOrStdout())).JSON(result); err != nil {
			return err
		}
	}

	if !result.Passed() {
		return fmt.Errorf("%w: thresholds not met", errFailed)
	}
	return nil
}

func buildBenchConfig() (*stress.Config, error) {
	cfg := stress.DefaultConfig()
	cfg.Duration = benchDurationFlag
	cfg.Rate = benchRateFlag
	cfg.MaxVUs = benchMaxVUsFlag
	cfg.ThinkTime = benchThinkTimeFlag
	cfg.RampUp = benchRampUpFlag
	if benchVUsFlag > 0 {
		cfg.Mode = stress.VUMode
		cfg.VUs = benchVUsFlag
	}

	if benchThresholdFlag != "" {
		thresholds, err := stress.ParseThresholds(benchThresholdFlag)
		if err != nil {
			return nil, err
		}
		cfg.Thresholds = thresholds
	}

	return cfg, cfg.Validate()
}

func buildTargets(urls []string) ([]*stress.Target, error) {
	var params []form.KeyValue
	for _, d := range benchDataFlags {
		params = append(params, form.Decode(d)...)
	}

	headers := make(http.Header)
	for _, h := range benchHeaderFlags {
		line, err := parseHeader(h)
		if err != nil {
			return nil, err
		}
		headers.Add(line.name, line.value)
	}

	targets := make([]*stress.Target, 0, len(urls))
	for _, u := range urls {
		if _, err := transport.ValidateURL(u); err != nil {
			return nil, err
		}
		targets = append(targets, &stress.Target{
			Method:  strings.ToUpper(benchMethodFlag),
			URL:     u,
			Params:  params,
			Headers: headers,
			Body:    benchBodyFlag,
			Weight:  1,
		})
	}
	return targets, nil
}
