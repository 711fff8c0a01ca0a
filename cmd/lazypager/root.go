// Command lazypager loads a statically linked 32-bit ELF executable,
// arms the lazy segment pager, transfers control to its entry point, and
// reports fault/allocation/fragmentation counters once it returns.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verboseFlag  bool
	profileFlag  string
	maxPagesFlag int
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lazypager <elf-path>",
		Short:         "Demand-page and run a 32-bit ELF executable",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoader(args[0])
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.BoolVarP(&verboseFlag, "verbose", "v", false, "log page-fault activity to stderr")
	pflags.StringVar(&profileFlag, "profile", "", "write a pprof profile of per-segment fault activity to this path")
	pflags.IntVar(&maxPagesFlag, "max-pages", 0, "abort once more than this many pages would be allocated (0 = unbounded)")

	return cmd
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	if verboseFlag {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
