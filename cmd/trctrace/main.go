// Command trctrace is a cobra-based CLI front end for the tracepoint
// package: it wires a TraceSession and TracepointStore over a real
// rsp.Conn (or, with --fake-target, an in-process fakedebug/fakestub
// pair) and exposes the command set documented for this subsystem.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-delve/tracepoint/internal/config"
	"github.com/go-delve/tracepoint/internal/logflags"
)

var (
	logEnabled bool
	logOutput  string
	remoteAddr string
	fakeTarget bool

	conf *config.Config
)

const longDesc = `trctrace drives the tracepoint subsystem of a remote-attached source
debugger: defining tracepoints, compiling their action programs, starting
and stopping a trace run, and replaying captured frames.`

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "trctrace",
		Short: "Tracepoint session driver",
		Long:  longDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logflags.Setup(logEnabled, logOutput)
		},
	}

	root.PersistentFlags().BoolVar(&logEnabled, "log", false, "enable logging")
	root.PersistentFlags().StringVar(&logOutput, "log-output", "", "comma separated list of log layers: tracewire,compiler,session")
	root.PersistentFlags().StringVar(&remoteAddr, "addr", "", "address of the remote stub, host:port")
	root.PersistentFlags().BoolVar(&fakeTarget, "fake-target", false, "drive an in-process fake target instead of dialing --addr")

	root.AddCommand(newTraceCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newEnableDisableDeleteCmd("enable"))
	root.AddCommand(newEnableDisableDeleteCmd("disable"))
	root.AddCommand(newEnableDisableDeleteCmd("delete"))
	root.AddCommand(newPasscountCmd())
	root.AddCommand(newActionsCmd())
	root.AddCommand(newTstartCmd())
	root.AddCommand(newTstopCmd())
	root.AddCommand(newTstatusCmd())
	root.AddCommand(newTfindCmd())
	root.AddCommand(newTdumpCmd())
	root.AddCommand(newSaveTracepointsCmd())
	root.AddCommand(newScopeCmd())

	return root
}

func main() {
	conf = config.LoadConfig()
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
