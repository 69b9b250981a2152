// Command weakdict-churn stresses a weak dictionary and reports how it
// shrinks once keys are dropped.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bemobolo/weakdict/internal/churn"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"vawter.tech/stopper"
)

// slogLogger adapts log/slog to weakdict.Logger.
type slogLogger struct{}

func (slogLogger) Debug(msg string, keyvals ...interface{}) { slog.Debug(msg, keyvals...) }
func (slogLogger) Info(msg string, keyvals ...interface{})  { slog.Info(msg, keyvals...) }
func (slogLogger) Warn(msg string, keyvals ...interface{})  { slog.Warn(msg, keyvals...) }
func (slogLogger) Error(msg string, keyvals ...interface{}) { slog.Error(msg, keyvals...) }

func command() *cobra.Command {
	opts := churn.Options{Logger: slogLogger{}}
	cmd := &cobra.Command{
		Use:   "weakdict-churn",
		Args:  cobra.NoArgs,
		Short: "insert keys from many goroutines, drop most of them and watch eviction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := stopper.From(cmd.Context())
			report, err := churn.Run(ctx, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "inserted   %s in %s\n", humanize.Comma(int64(report.Inserted)), report.Insert)
			fmt.Fprintf(out, "retained   %s\n", humanize.Comma(int64(report.Retained)))
			fmt.Fprintf(out, "remaining  %s after %d GC cycles in %s\n",
				humanize.Comma(int64(report.Remaining)), report.GCCycles, report.Converge)
			fmt.Fprintf(out, "evicted    %s by cleanups, %s by purge\n",
				humanize.Comma(int64(report.Stats.Evictions)), humanize.Comma(int64(report.Stats.Purged)))
			if !report.Converged {
				return fmt.Errorf("dictionary did not converge to the retained set within %s", opts.Timeout)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 8, "concurrent inserting goroutines")
	cmd.Flags().IntVarP(&opts.Keys, "keys", "k", 10_000, "keys inserted per worker")
	cmd.Flags().Float64VarP(&opts.Retain, "retain", "r", 0.1, "fraction of keys kept reachable")
	cmd.Flags().BoolVar(&opts.Purge, "purge", false, "purge dead entries between collections")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "convergence timeout")
	return cmd
}

func main() {
	var verbose bool
	root := command()
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
		return nil
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	ctx := stopper.WithContext(context.Background())
	ctx.Go(func(ctx *stopper.Context) error {
		ch := make(chan os.Signal, 1)
		defer close(ch)

		signal.Notify(ch, os.Interrupt)
		defer signal.Stop(ch)

		select {
		case <-ch:
			ctx.Stop(time.Second)
		case <-ctx.Stopping():
		}
		return nil
	})

	err := root.ExecuteContext(ctx)
	ctx.Stop(0)
	if err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
	os.Exit(0)
}
