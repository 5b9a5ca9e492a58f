package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag   string
	noColorFlag  bool
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "easyhttp",
	Short: "Fluent HTTP requests from the command line.",
	Long: `easyhttp sends HTTP requests built from flags: form fields, file
uploads, cookies and headers, with the response printed, saved or
checked. Sessions keep cookies between requests.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("EASYHTTP_CONFIG", ""), "Path to config file (env: EASYHTTP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("EASYHTTP_NO_COLOR", false), "Disable colored output (env: EASYHTTP_NO_COLOR)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", getEnvString("EASYHTTP_LOG_LEVEL", ""), "Request trace level: none, basic, header, body (env: EASYHTTP_LOG_LEVEL)")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	rootCmd.AddCommand(versionCmd)
}
