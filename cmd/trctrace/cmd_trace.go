package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-delve/tracepoint/tracepoint"
)

func newTraceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace LOC",
		Short: "Define a tracepoint at LOC",
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
			tp := env.store.Create(loc, env.convvars)
			if conf != nil {
				tp.PassCount = conf.DefaultPassCount
			}
			fmt.Printf("Tracepoint %d at 0x%x\n", tp.Number, tp.Address)
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	info := &cobra.Command{Use: "info", Short: "Information commands"}
	info.AddCommand(&cobra.Command{
		Use:   "tracepoints [N]",
		Short: "List all or one tracepoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := buildEnvironment()
			if err != nil {
				return err
			}
			defer env.closer()

			var tps []*tracepoint.Tracepoint
			if len(args) == 1 {
				tp, err := env.store.LookupByNumber(args[0])
				if err != nil {
					return err
				}
				tps = []*tracepoint.Tracepoint{tp}
			} else {
				tps = env.store.All()
			}
			for _, tp := range tps {
				state := "enabled"
				if !tp.Enabled {
					state = "disabled"
				}
				fmt.Printf("%-4d %-8s 0x%016x pass %d step %d\n", tp.Number, state, tp.Address, tp.PassCount, tp.StepCount)
			}
			return nil
		},
	})
	return info
}
