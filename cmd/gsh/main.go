// Command gsh is the interactive job-control shell's entrypoint: a re-exec
// dispatch check ahead of cobra (the same shape as
// teleport-job-worker/cmd/job-worker's commands.Child() hidden subcommand,
// except this module's helper is keyed off an env var rather than an argv
// subcommand, leaving "--command" free for interactive one-shot use), then
// a single root command carrying the shell's own flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gsh-project/gsh/internal/sessionhelper"
	"github.com/gsh-project/gsh/internal/shell"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if sessionhelper.IsHelperInvocation() {
		sessionhelper.Serve()
		return
	}

	os.Exit(run())
}

func run() int {
	var (
		command          string
		historyFile      string
		noRC             bool
		noJobControl     bool
		useSessionHelper bool
	)

	root := &cobra.Command{
		Use:   "gsh",
		Short: "A POSIX-ish job-control shell",

		// Silenced so a parse error from a malformed line doesn't print
		// cobra's usage block on top of the shell's own error message.
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := shell.Config{
				Prompt:           "$ ",
				HistoryFile:      historyFile,
				NoRC:             noRC,
				JobControl:       !noJobControl,
				UseSessionHelper: useSessionHelper,
				Stdout:           cmd.OutOrStdout(),
				Stderr:           cmd.ErrOrStderr(),
			}

			sh, err := shell.New(cfg)
			if err != nil {
				return err
			}

			var code int
			if command != "" {
				code = sh.RunCommand(command)
			} else {
				code = sh.Run()
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	root.Flags().StringVarP(&command, "command", "c", "", "evaluate one line non-interactively and exit")
	root.Flags().StringVar(&historyFile, "history-file", defaultHistoryFile(), "line-editor history file")
	root.Flags().BoolVar(&noRC, "norc", false, "accepted for interface compatibility; this shell has no rc-file to skip")
	root.Flags().BoolVar(&noJobControl, "no-job-control", false, "disable process-group/tty ownership tracking")
	root.Flags().BoolVar(&useSessionHelper, "session-helper", false, "spawn jobs under a re-exec'd session leader")

	root.AddCommand(versionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gsh: %v\n", err)
		return 1
	}
	return 0
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the gsh version",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.gsh_history"
}
