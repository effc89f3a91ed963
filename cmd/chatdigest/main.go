// Package main is the entry point for the chatdigest CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/flemzord/chatdigest/internal/config"
	"github.com/flemzord/chatdigest/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatdigest",
		Short:         "Daily topic digests and trigger replies for Telegram group chats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(
		versionCmd(),
		startCmd(),
		digestCmd(),
		traitsCmd(),
		configCmd(),
		initCmd(),
		serviceCmd(),
	)
	return root
}

func params(cmd *cobra.Command) app.Params {
	path, _ := cmd.Flags().GetString("config")
	return app.Params{ConfigPath: path, Version: version}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// buildBot loads the config and wires a Bot for a one-off command.
func buildBot(ctx context.Context, cmd *cobra.Command) (*app.Bot, error) {
	p := params(cmd)
	cfg, _, err := app.Load(p)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, p)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatdigest %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the bot, scheduler and ops server until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), params(cmd))
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Load and validate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params(cmd)
			if len(args) == 1 {
				p.ConfigPath = args[0]
			}
			cfg, path, err := app.Load(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK: %s\n", path)
			fmt.Fprintf(out, "  backends:      %v\n", cfg.Backends())
			fmt.Fprintf(out, "  allowed chats: %d\n", len(cfg.Telegram.AllowedChats))
			fmt.Fprintf(out, "  routed chats:  %d\n", len(cfg.Routes()))
			fmt.Fprintf(out, "  storage:       %s\n", cfg.Storage.Driver)
			fmt.Fprintf(out, "  digest:        %q (%s)\n", cfg.Digest.Schedule, cfg.Timezone)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "List the locations searched for " + config.FileName,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, p := range config.Candidates() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
		},
	})
	return cmd
}
