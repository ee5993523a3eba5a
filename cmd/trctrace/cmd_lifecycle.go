package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/cosiner/argv"
	"github.com/spf13/cobra"

	"github.com/go-delve/tracepoint/tracepoint"
)

// newEnableDisableDeleteCmd builds the "enable"/"disable"/"delete"
// "tracepoints [NS...]" command family. With no numbers given, the
// operation spans every tracepoint; "delete" with no numbers also
// requires interactive confirmation.
func newEnableDisableDeleteCmd(verb string) *cobra.Command {
	cmd := &cobra.Command{Use: verb, Short: verb + " tracepoints"}
	cmd.AddCommand(&cobra.Command{
		Use:   "tracepoints [NS...]",
		Short: verb + " the named tracepoints, or all if none are named",
		RunE: func(c *cobra.Command, args []string) error {
			// cosiner/argv re-splits any quoted operand a shell-style
			// invocation might have passed through as a single arg.
			numbers, err := splitNumberArgs(args)
			if err != nil {
				return err
			}

			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			var targets []*tracepoint.Tracepoint
			if len(numbers) == 0 {
				targets = env.store.All()
				if verb == "delete" && !confirm(fmt.Sprintf("Delete %d tracepoints? (y or n) ", len(targets))) {
					return nil
				}
			} else {
				for _, n := range numbers {
					tp, ok := env.store.Get(n)
					if !ok {
						fmt.Printf("No tracepoint number %d.\n", n)
						continue
					}
					targets = append(targets, tp)
				}
			}

			for _, tp := range targets {
				switch verb {
				case "enable":
					env.store.Enable(tp)
				case "disable":
					env.store.Disable(tp)
				case "delete":
					env.store.Delete(tp)
				}
			}
			return nil
		},
	})
	return cmd
}

func splitNumberArgs(args []string) ([]int, error) {
	var fields []string
	for _, a := range args {
		toks, err := argv.Argv(a, nil, nil)
		if err != nil {
			return nil, err
		}
		for _, group := range toks {
			fields = append(fields, group...)
		}
	}
	var numbers []int
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, tracepoint.InvalidArgumentError{What: "not a tracepoint number: " + f}
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return len(line) > 0 && (line[0] == 'y' || line[0] == 'Y')
}

func newPasscountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passcount N [TP|all]",
		Short: "Set a tracepoint's pass count",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return tracepoint.InvalidArgumentError{What: "bad pass count: " + err.Error()}
			}

			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			if len(args) == 2 && args[1] != "all" {
				tp, err := env.store.LookupByNumber(args[1])
				if err != nil {
					return err
				}
				env.store.SetPassCount(tp, n)
				return nil
			}
			if len(args) == 2 && args[1] == "all" {
				env.store.SetPassCount(nil, n)
				return nil
			}
			tp, err := env.store.LookupByNumber("")
			if err != nil {
				return err
			}
			env.store.SetPassCount(tp, n)
			return nil
		},
	}
}
