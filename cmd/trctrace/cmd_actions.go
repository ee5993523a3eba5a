package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/go-delve/tracepoint/tracepoint"
)

// newActionsCmd enters the multi-line action editor for a tracepoint.
// Input ends on a bare "end" line. A SIGINT during the read discards
// whatever partial ActionLine list had been built and returns
// ErrUserQuit, but only once the next line (or end of input) arrives: a
// read blocked waiting for input is not interrupted by the signal.
func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions [TP]",
		Short: "Enter the action editor for a tracepoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			text := ""
			if len(args) == 1 {
				text = args[0]
			}
			tp, err := env.store.LookupByNumber(text)
			if err != nil {
				return err
			}

			lines, err := readActions(os.Stdin, env.parser)
			if err != nil {
				return err
			}
			tp.Actions = lines
			env.compiler.Invalidate(tp)
			return nil
		},
	}
}

// readActions drives the cancellable multi-line read. If stdin is a
// terminal, it restores the terminal state saved on entry before
// returning, whether it returns normally or via ErrUserQuit. A SIGINT is
// acted on when the scanner next yields a line; if input ends first, the
// lines read so far are returned without ErrUserQuit.
func readActions(stdin *os.File, parser *tracepoint.ActionParser) ([]tracepoint.ActionLine, error) {
	var savedState *unix.Termios
	if isatty.IsTerminal(stdin.Fd()) {
		if st, err := unix.IoctlGetTermios(int(stdin.Fd()), ioctlGetTermios); err == nil {
			savedState = st
		}
	}
	restoreTerminal := func() {
		if savedState != nil {
			unix.IoctlSetTermios(int(stdin.Fd()), ioctlSetTermios, savedState)
		}
	}
	defer restoreTerminal()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)

	aborted := make(chan struct{})
	go func() {
		select {
		case <-sigc:
			close(aborted)
		case <-neverClosed:
		}
	}()

	var lines []tracepoint.ActionLine
	scanner := bufio.NewScanner(stdin)
	depth := 0
	for scanner.Scan() {
		select {
		case <-aborted:
			return nil, tracepoint.ErrUserQuit{}
		default:
		}

		raw := scanner.Text()
		al, perr := parser.Parse(raw)
		if perr != nil {
			fmt.Println(perr)
			continue
		}
		if al.Kind == tracepoint.KindInvalid {
			continue
		}
		if al.Kind == tracepoint.KindEnd && depth == 0 {
			break
		}
		lines = append(lines, al)
		switch al.Kind {
		case tracepoint.KindWhileStepping:
			depth++
		case tracepoint.KindEnd:
			depth--
		}
	}
	return lines, scanner.Err()
}

var neverClosed = make(chan struct{})
