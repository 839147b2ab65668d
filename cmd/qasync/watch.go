package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qa-sync/qasync/pkg/config"
	"github.com/qa-sync/qasync/pkg/state"
	"github.com/qa-sync/qasync/pkg/watcher"
	slackapi "github.com/slack-go/slack"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the Slack channel for QA feedback",
	Long: `Poll the configured Slack channel or thread, classify new feedback
messages as bug, improvement or data error, and record them in the
project state so each message is handled once.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use --config)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Slack.Token == "" || cfg.Slack.Channel == "" {
		return fmt.Errorf("slack token and channel are required in config")
	}

	if cfg.Project.Name == "" {
		return fmt.Errorf("project name is required in config")
	}

	statePath, err := state.DefaultPath()
	if err != nil {
		return err
	}

	stateMgr := state.NewManager(log, statePath)

	// Record the project and its channel so later invocations share state.
	if _, err := stateMgr.CreateProject(cfg.Project.Name, state.ProjectConfig{
		SiteURL:       cfg.Project.SiteURL,
		SlackChannel:  cfg.Slack.Channel,
		SlackThreadTS: cfg.Slack.ThreadTS,
	}); err != nil {
		return fmt.Errorf("recording project: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	w := watcher.New(log, &watcher.Config{
		ProjectName:  cfg.Project.Name,
		Channel:      cfg.Slack.Channel,
		ThreadTS:     cfg.Slack.ThreadTS,
		PollInterval: cfg.SlackPollInterval(),
	}, slackapi.New(cfg.Slack.Token), stateMgr)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watching channel: %w", err)
	}

	return nil
}
