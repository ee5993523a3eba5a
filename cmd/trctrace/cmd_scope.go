package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-delve/tracepoint/tracepoint"
)

// newScopeCmd implements "scope LOC", a diagnostic not present on the
// original command line: it resolves LOC and lists every symbol visible
// there along with the storage class the collector would dispatch on,
// making the collection plan a collect item picks up legible before
// committing it to a tracepoint's action list.
func newScopeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scope LOC",
		Short: "List symbols visible at LOC and their storage class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			loc, err := env.resolver.Resolve(args[0])
			if err != nil {
				return err
			}

			block := env.symbols.BlockForPC(loc.Address)
			if block == nil {
				return tracepoint.BadActionError{Reason: "No symbols found in scope."}
			}

			for b := block; b != nil; b = b.Super {
				for _, sym := range b.Symbols {
					fmt.Printf("%-20s %s\n", sym.Name, sym.Class)
				}
				if b.FunctionBoundary {
					break
				}
			}
			return nil
		},
	}
}
