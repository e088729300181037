package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/hyperspace/schema"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for the hyperspace CLI. Entry paths of the
configured model complete as arguments of inspect and resolve.

To load completions:

Bash:

  $ source <(hyperspace completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ hyperspace completion bash > /etc/bash_completion.d/hyperspace
  # macOS:
  $ hyperspace completion bash > $(brew --prefix)/etc/bash_completion.d/hyperspace

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ hyperspace completion zsh > "${fpath[1]}/_hyperspace"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ hyperspace completion fish | source

  # To load completions for each session, execute once:
  $ hyperspace completion fish > ~/.config/fish/completions/hyperspace.fish

PowerShell:

  PS> hyperspace completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> hyperspace completion powershell > hyperspace.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeEntryPath offers the entry paths of the configured model as the
// first argument
func (a *app) completeEntryPath(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if a.cfg == nil {
		if err := a.setup(cmd); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
	}
	build, ok := lookupModel(a.cfg.Model)
	if !ok {
		return nil, cobra.ShellCompDirectiveError
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := build(ctx, a.registry)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var paths []string
	m.Walk(func(e *schema.EntryMetadata) bool {
		if rel := relativePath(m, e); strings.HasPrefix(rel, toComplete) {
			paths = append(paths, rel)
		}
		return true
	})
	return paths, cobra.ShellCompDirectiveNoFileComp
}
