package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// completionShells maps each supported shell to its generator.
var completionShells = map[string]func(*cobra.Command, *cobra.Command) error{
	"bash": func(root, cmd *cobra.Command) error {
		return root.GenBashCompletionV2(cmd.OutOrStdout(), true)
	},
	"zsh": func(root, cmd *cobra.Command) error {
		return root.GenZshCompletion(cmd.OutOrStdout())
	},
	"fish": func(root, cmd *cobra.Command) error {
		return root.GenFishCompletion(cmd.OutOrStdout(), true)
	},
	"powershell": func(root, cmd *cobra.Command) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <bash|zsh|fish|powershell>",
	Short: "Print a shell completion script",
	Long: `Print a completion script for the given shell on stdout.

  source <(easyhttp completion bash)
  easyhttp completion zsh > "${fpath[1]}/_easyhttp"
  easyhttp completion fish > ~/.config/fish/completions/easyhttp.fish
  easyhttp completion powershell | Out-String | Invoke-Expression

Flags such as --history, --env-file and --mock complete file names.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, ok := completionShells[args[0]]
		if !ok {
			return fmt.Errorf("%w: unsupported shell %q", errUsage, args[0])
		}
		return gen(cmd.Root(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
