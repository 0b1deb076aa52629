package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kkloberdanz/moose/kernel"
	"github.com/kkloberdanz/moose/launcher"
	"github.com/kkloberdanz/moose/networking"
	"github.com/kkloberdanz/moose/session"
	"github.com/kkloberdanz/moose/storage"
	"github.com/kkloberdanz/moose/value"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		identity  string
		storeRoot string
		debug     bool
		args      []string
	)

	cmd := &cobra.Command{
		Use:   "run <session-file>",
		Short: "Load a session descriptor and run its computation as one party",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cliArgs []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sig
				cancel()
			}()

			var store storage.Storage = storage.NewMemory()
			if storeRoot != "" {
				store = storage.NewFile(storeRoot)
			}

			cfg := session.Config{}
			if debug {
				cfg.Debug = session.DebugVerbose
				cfg.Logf = func(format string, a ...interface{}) {
					fmt.Fprintf(os.Stderr, format+"\n", a...)
				}
			}

			inputs, err := parseArgFlags(args)
			if err != nil {
				return err
			}

			outputs, err := launcher.Run(ctx, cliArgs[0], identity, kernel.Default(), networking.NewLocal(), store, inputs, cfg)
			if err != nil {
				return err
			}
			for name, v := range outputs {
				fmt.Printf("%s = %s\n", name, v.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "this party's identity (must match a roles[] endpoint in the session file)")
	cmd.Flags().StringVar(&storeRoot, "storage-dir", "", "directory for persistent Load/Save storage (defaults to in-memory)")
	cmd.Flags().BoolVar(&debug, "debug", false, "log every operation as it is evaluated")
	cmd.Flags().StringArrayVar(&args, "arg", nil, "bind an Input operation's arg_name, as name=value (repeatable)")
	cmd.MarkFlagRequired("identity")
	return cmd
}

// parseArgFlags turns --arg name=value flags into Input bindings. Only
// string-valued arguments are supported from the CLI; richer values are
// passed by constructing a Computation programmatically instead.
func parseArgFlags(args []string) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(args))
	for _, a := range args {
		name, val, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("--arg %q must be of the form name=value", a)
		}
		out[name] = value.StringValue(val)
	}
	return out, nil
}
