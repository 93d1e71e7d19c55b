// Command tb runs tick-driven message board simulations and inspects the
// journals they leave behind.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal("%v", err)
	}
}

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	journalPath string
	logLevel    string
}

func (o *globalOptions) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.configPath, "config", envOr("TICKBOARD_CONFIG", ""),
		"path of the TOML config (env TICKBOARD_CONFIG)")
	cmd.PersistentFlags().StringVar(&o.journalPath, "journal", envOr("TICKBOARD_JOURNAL", ""),
		"path of the SQLite journal (env TICKBOARD_JOURNAL)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "override the configured log level")
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "tb",
		Short: "tickboard: a deterministic message board simulation",
		Long: `tickboard runs a message board as actors on a discrete clock.

Every message takes a fixed number of ticks to arrive, so a run is fully
reproducible. Runs can be recorded into a SQLite journal and inspected later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(cmd)
	cmd.AddCommand(
		newCmdRun(opts),
		newCmdLog(opts),
		newCmdStatus(opts),
		newCmdInit(),
		newCmdVersion(),
	)
	return cmd
}

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tb", version)
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "tb: "+format+"\n", args...)
	os.Exit(1)
}
