package cmd

import (
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/easyhttp/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	initForceFlag   bool
	initHeaderFlags []string
	initUAFlag      string
)

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file with session defaults",
	Long: `Write a configuration file with the session defaults every request
starts from. The format follows the extension: .yaml/.yml or .json.

When --config names an existing file that differs from the defaults, its
values are carried over, which converts between formats.

Examples:
  easyhttp init
  easyhttp init .easyhttp.json --user-agent "bot/1.0" -H "X-Team: qa"
  easyhttp init .easyhttp.yaml --config old.json --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "Overwrite an existing file")
	initCmd.Flags().StringArrayVarP(&initHeaderFlags, "header", "H", nil, `Default header "Name: value" (repeatable)`)
	initCmd.Flags().StringVar(&initUAFlag, "user-agent", "", "Default User-Agent")
	rootCmd.AddCommand(initCmd)
}

func initCommand(cmd *cobra.Command, args []string) error {
	path := ".easyhttp.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if !initForceFlag {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s already exists (use --force to overwrite)", errUsage, path)
		}
	}

	cfg := config.DefaultConfig()
	if configFlag != "" {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		if !loaded.IsDefault() {
			cfg = loaded
		}
	}

	if initUAFlag != "" {
		cfg.UserAgent = initUAFlag
	}
	for _, h := range initHeaderFlags {
		line, err := parseHeader(h)
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[line.name] = line.value
	}

	if err := cfg.SaveConfig(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
