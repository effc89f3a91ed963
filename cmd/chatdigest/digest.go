package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/chatdigest/pkg/app"
)

func digestCmd() *cobra.Command {
	var (
		chatID    int64
		day       string
		intensity int
		post      bool
	)
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Generate one digest and print it",
		Long: "Generate a digest for one chat outside the schedule. Without --date\n" +
			"it covers today so far in the configured timezone.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := app.DigestRequest{ChatID: chatID, Intensity: intensity, Post: post}
			if day != "" {
				d, err := time.Parse(time.DateOnly, day)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				req.Date = d
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			bot, err := buildBot(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = bot.Close(context.Background()) }()

			if !cmd.Flags().Changed("intensity") {
				req.Intensity = bot.Config.Digest.Level()
			}
			text, err := bot.Digest(ctx, req)
			if errors.Is(err, app.ErrNoDigest) {
				fmt.Fprintln(cmd.ErrOrStderr(), "nothing to digest in this window")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Telegram chat id")
	cmd.Flags().StringVar(&day, "date", "", "Local day to cover (YYYY-MM-DD)")
	cmd.Flags().IntVar(&intensity, "intensity", 9, "Intensity level 0-9")
	cmd.Flags().BoolVar(&post, "post", false, "Also post the digest to the chat")
	_ = cmd.MarkFlagRequired("chat")
	return cmd
}

func traitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traits",
		Short: "Participant trait profiles",
	}

	var user string
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute trait profiles now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var userID int64
			if user != "" {
				id, err := strconv.ParseInt(user, 10, 64)
				if err != nil {
					return fmt.Errorf("--user: %w", err)
				}
				userID = id
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()
			bot, err := buildBot(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = bot.Close(context.Background()) }()

			n, err := bot.RefreshTraits(ctx, userID)
			fmt.Fprintf(cmd.OutOrStdout(), "%d profile(s) refreshed\n", n)
			return err
		},
	}
	refresh.Flags().StringVar(&user, "user", "", "Refresh a single user id")
	cmd.AddCommand(refresh)
	return cmd
}
