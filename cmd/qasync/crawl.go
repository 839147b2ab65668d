package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/qa-sync/qasync/pkg/config"
	"github.com/qa-sync/qasync/pkg/crawler"
	"github.com/qa-sync/qasync/pkg/fsutil"
	"github.com/spf13/cobra"
)

var (
	crawlOutput      string
	crawlConcurrency int
	crawlScreenshots bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [url]...",
	Short: "Build a page element inventory",
	Long: `Analyze the given pages and write an inventory of their interactive
elements (buttons, links, forms, inputs) as JSON, to help with writing
scenario documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().StringVar(&crawlOutput, "output", "./crawl", "output directory")
	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", config.DefaultConcurrency,
		"concurrent browser sessions")
	crawlCmd.Flags().BoolVar(&crawlScreenshots, "screenshots", true, "capture page screenshots")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	if err := os.MkdirAll(crawlOutput, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	screenshotDir := ""
	if crawlScreenshots {
		screenshotDir = crawlOutput
	}

	factory := browser.NewFactory(log, &browser.Options{Headless: true})
	c := crawler.New(log, factory)

	start := time.Now()

	pages, err := c.CrawlAll(ctx, args, screenshotDir, crawlConcurrency)
	if err != nil {
		return fmt.Errorf("crawling pages: %w", err)
	}

	analyzed := 0

	for _, page := range pages {
		if page != nil {
			analyzed++
		}
	}

	inventory := map[string]any{
		"crawled_at": time.Now(),
		"pages":      pages,
	}

	path := filepath.Join(crawlOutput, "inventory.json")
	if err := fsutil.WriteJSON(path, inventory, 0644, nil); err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}

	log.WithField("pages", fmt.Sprintf("%d/%d", analyzed, len(args))).
		WithField("duration", time.Since(start).Round(time.Millisecond)).
		WithField("output", path).
		Info("Crawl finished")

	return nil
}
