// Package watcher polls a Slack channel for QA feedback, classifies new
// messages and records the issues created for them.
package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/qa-sync/qasync/pkg/state"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// DefaultPollInterval between channel polls.
const DefaultPollInterval = 30 * time.Second

// Issue types derived from feedback messages.
const (
	IssueBug         = "bug"
	IssueImprovement = "improvement"
	IssueDataError   = "data_error"
)

// Feedback is one classified feedback message.
type Feedback struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	User      string `json:"user,omitempty"`
	Timestamp string `json:"ts"`
}

// Keyword sets checked in priority order: an improvement keyword wins over
// a data keyword, which wins over a bug keyword. Bug is the default for
// anything else, since unclassified QA feedback is most often a defect.
var (
	improvementKeywords = []string{
		"좋겠", "개선", "추가", "제안", "하면", "있으면",
		"improve", "suggest", "feature", "would be nice",
	}
	dataKeywords = []string{
		"틀림", "안 맞", "중복", "잘못", "데이터", "값이", "표시",
		"wrong value", "duplicate", "mismatch",
	}
)

// Classify maps feedback text to an issue type.
func Classify(text string) string {
	lower := strings.ToLower(text)

	for _, kw := range improvementKeywords {
		if strings.Contains(lower, kw) {
			return IssueImprovement
		}
	}

	for _, kw := range dataKeywords {
		if strings.Contains(lower, kw) {
			return IssueDataError
		}
	}

	return IssueBug
}

// Analyze builds a classified feedback record from a raw message.
func Analyze(text, user, ts string) Feedback {
	return Feedback{
		Type:      Classify(text),
		Title:     makeTitle(text),
		Text:      text,
		User:      user,
		Timestamp: ts,
	}
}

// makeTitle derives a short issue title from the message text.
func makeTitle(text string) string {
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= 30 {
		return text
	}

	return string(runes[:30]) + "..."
}

// Config for the watcher.
type Config struct {
	ProjectName  string
	Channel      string
	ThreadTS     string
	PollInterval time.Duration
}

// Watcher polls one project's feedback channel.
type Watcher struct {
	log    logrus.FieldLogger
	cfg    *Config
	slack  *slack.Client
	state  *state.Manager
	lastTS string
}

// New creates a watcher.
func New(log logrus.FieldLogger, cfg *Config, client *slack.Client, stateMgr *state.Manager) *Watcher {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &Watcher{
		log:   log.WithField("component", "watcher"),
		cfg:   cfg,
		slack: client,
		state: stateMgr,
	}
}

// Run polls until the context is cancelled. Poll errors are logged and
// retried on the next tick; only context cancellation ends the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.WithFields(logrus.Fields{
		"project":  w.cfg.ProjectName,
		"channel":  w.cfg.Channel,
		"interval": w.cfg.PollInterval,
	}).Info("Watching for feedback")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.poll(ctx); err != nil {
			w.log.WithError(err).Warn("Poll failed")
		}

		select {
		case <-ctx.Done():
			w.log.Info("Watcher stopped")

			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll fetches messages newer than the last seen timestamp and processes
// the ones not yet synced.
func (w *Watcher) poll(ctx context.Context) error {
	messages, err := w.fetch(ctx)
	if err != nil {
		return err
	}

	return w.process(messages)
}

// process records each new message. The fetch cursor advances only after
// the whole batch is handled, so a state error leaves the unprocessed
// messages in range for the next poll instead of dropping them.
func (w *Watcher) process(messages []slack.Message) error {
	maxTS := w.lastTS

	for _, msg := range messages {
		if msg.Timestamp > maxTS {
			maxTS = msg.Timestamp
		}

		synced, err := w.state.IsMessageSynced(w.cfg.ProjectName, msg.Timestamp)
		if err != nil {
			return err
		}

		if synced || msg.Text == "" {
			continue
		}

		feedback := Analyze(msg.Text, msg.User, msg.Timestamp)

		// Issue creation itself is an external concern; the watcher
		// records the feedback so downstream tooling can pick it up.
		issueID := fmt.Sprintf("ISSUE-%d", time.Now().Unix())

		w.log.WithFields(logrus.Fields{
			"type":  feedback.Type,
			"title": feedback.Title,
			"ts":    feedback.Timestamp,
		}).Info("New feedback")

		if err := w.state.MarkMessageSynced(
			w.cfg.ProjectName, msg.Timestamp, issueID, feedback.Type,
		); err != nil {
			return err
		}
	}

	w.lastTS = maxTS

	return nil
}

// fetch reads new messages from the channel, or from the configured
// thread when one is set.
func (w *Watcher) fetch(ctx context.Context) ([]slack.Message, error) {
	if w.cfg.ThreadTS != "" {
		msgs, _, _, err := w.slack.GetConversationRepliesContext(ctx,
			&slack.GetConversationRepliesParameters{
				ChannelID: w.cfg.Channel,
				Timestamp: w.cfg.ThreadTS,
				Oldest:    w.lastTS,
				Limit:     100,
			})
		if err != nil {
			return nil, fmt.Errorf("fetching thread replies: %w", err)
		}

		return msgs, nil
	}

	resp, err := w.slack.GetConversationHistoryContext(ctx,
		&slack.GetConversationHistoryParameters{
			ChannelID: w.cfg.Channel,
			Oldest:    w.lastTS,
			Limit:     100,
		})
	if err != nil {
		return nil, fmt.Errorf("fetching channel history: %w", err)
	}

	return resp.Messages, nil
}
