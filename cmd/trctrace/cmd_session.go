package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-delve/tracepoint/tracepoint"
)

func newTstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tstart",
		Short: "Start a trace run",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()
			return env.session.Start()
		},
	}
}

func newTstopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tstop",
		Short: "Stop the current trace run",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()
			return env.session.Stop()
		},
	}
}

func newTstatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tstatus",
		Short: "Report trace run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()
			reply, err := env.session.Status()
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
}

// newTfindCmd implements the full "tfind" variant grammar:
// <n>, -, start, end, none, pc [A], tracepoint [N], line [LOC],
// range A,B, outside A,B.
func newTfindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tfind {<n>|-|start|end|none|pc [A]|tracepoint [N]|line [LOC]|range A,B|outside A,B}",
		Short: "Move the replay cursor",
		Args:  cobra.MinimumNArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			if err := runTfind(env.session, args); err != nil {
				return err
			}
			c := env.session.Cursor()
			fmt.Printf("frame %d tracepoint %d line %d func %q file %q\n", c.Frame, c.Tracepoint, c.Line, c.Func, c.File)
			return nil
		},
	}
}

func runTfind(session *tracepoint.TraceSession, args []string) error {
	if len(args) == 0 {
		return session.FindNumber(session.Cursor().Frame + 1)
	}
	switch args[0] {
	case "-":
		return session.FindNumber(session.Cursor().Frame - 1)
	case "start":
		return session.FindStart()
	case "end", "none":
		return session.FindEnd()
	case "pc":
		if len(args) == 2 {
			pc, err := strconv.ParseUint(strings.TrimPrefix(args[1], "0x"), 16, 64)
			if err != nil {
				return tracepoint.InvalidArgumentError{What: "bad pc: " + err.Error()}
			}
			return session.FindPC(pc)
		}
		return session.FindPC(0)
	case "tracepoint":
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return tracepoint.InvalidArgumentError{What: "bad tracepoint number: " + err.Error()}
			}
			return session.FindTracepoint(n)
		}
		return session.FindTracepoint(-1)
	case "line":
		if len(args) == 2 {
			return session.FindLine(args[1])
		}
		return session.FindLineOutside()
	case "range":
		start, end, err := parseRangeArgs(args[1:])
		if err != nil {
			return err
		}
		return session.FindRange(start, end)
	case "outside":
		start, end, err := parseRangeArgs(args[1:])
		if err != nil {
			return err
		}
		return session.FindOutside(start, end)
	default:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return tracepoint.InvalidArgumentError{What: "bad tfind argument: " + args[0]}
		}
		return session.FindNumber(n)
	}
}

func parseRangeArgs(args []string) (start, end uint64, err error) {
	joined := strings.Join(args, "")
	parts := strings.SplitN(joined, ",", 2)
	if len(parts) != 2 {
		return 0, 0, tracepoint.InvalidArgumentError{What: "expected A,B"}
	}
	s, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(parts[0]), "0x"), 16, 64)
	if err != nil {
		return 0, 0, tracepoint.InvalidArgumentError{What: "bad range start: " + err.Error()}
	}
	e, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(parts[1]), "0x"), 16, 64)
	if err != nil {
		return 0, 0, tracepoint.InvalidArgumentError{What: "bad range end: " + err.Error()}
	}
	return s, e, nil
}

func newTdumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tdump",
		Short: "Replay the current frame's collected data in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			c := env.session.Cursor()
			if c.Frame < 0 {
				return tracepoint.NotFoundError{What: "No current trace frame."}
			}
			fmt.Printf("Data collected at tracepoint %d, trace frame %d:\n", c.Tracepoint, c.Frame)
			fmt.Printf("%s:%d in %s\n", c.File, c.Line, c.Func)
			return nil
		},
	}
}
