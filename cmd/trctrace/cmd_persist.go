package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/go-delve/tracepoint/tracepoint"
)

// newSaveTracepointsCmd implements "save-tracepoints FILE", writing the
// current catalogue as a re-sourceable script, and its inverse form
// "save-tracepoints --load FILE" for restoring one.
func newSaveTracepointsCmd() *cobra.Command {
	var load bool
	cmd := &cobra.Command{
		Use:   "save-tracepoints FILE",
		Short: "Save (or, with --load, restore) the tracepoint catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			if load {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				_, err = tracepoint.LoadTracepoints(f, env.store, env.resolver, env.parser, env.convvars)
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return tracepoint.SaveTracepoints(f, env.store.All())
		},
	}
	cmd.Flags().BoolVar(&load, "load", false, "restore tracepoints from FILE instead of saving to it")
	return cmd
}
