// Command juscheck monitors court processes in the CNJ DataJud registry and
// emails subscribers when new movements appear.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/juscheck/internal/model"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	jsonOutput bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "juscheck",
		Short: "Monitor court processes and notify on new movements",
		Long: `JusCheck tracks judicial processes by CNJ number, polls the public
DataJud registry and emails each subscriber when new movements appear.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", model.DefaultConfigPath(), "path to the config file")
	root.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "output in JSON format")

	root.AddCommand(
		newServeCmd(flags),
		newSweepCmd(flags),
		newCheckCmd(flags),
		newAddCmd(flags),
		newListCmd(flags),
		newHistoryCmd(flags),
		newRemoveCmd(flags),
		newLookupCmd(flags),
		newWatchCmd(flags),
		newCredentialCmd(),
	)
	return root
}
