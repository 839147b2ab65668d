package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/qa-sync/qasync/pkg/authstore"
	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/qa-sync/qasync/pkg/config"
	"github.com/qa-sync/qasync/pkg/engine"
	"github.com/qa-sync/qasync/pkg/fsutil"
	"github.com/qa-sync/qasync/pkg/report"
	"github.com/qa-sync/qasync/pkg/scenario"
	"github.com/qa-sync/qasync/pkg/sysinfo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runProject  string
	runURL      string
	runScenario string
	runOutput   string
	runAuthSite string
	runHeaded   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario tests",
	Long:  `Parse the scenario document and execute every test case against the target site.`,
	RunE:  runTests,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runProject, "project", "", "project name")
	runCmd.Flags().StringVar(&runURL, "url", "", "target site URL")
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "scenario markdown file")
	runCmd.Flags().StringVar(&runOutput, "output", "", "results directory")
	runCmd.Flags().StringVar(&runAuthSite, "auth-site", "", "use saved cookies for this site")
	runCmd.Flags().BoolVar(&runHeaded, "headed", false, "show the browser window")
}

// runInfo is the config.json snapshot written next to the reports.
type runInfo struct {
	ProjectName string        `json:"project_name"`
	SiteURL     string        `json:"site_url"`
	Scenario    string        `json:"scenario"`
	AuthSite    string        `json:"auth_site,omitempty"`
	Headless    bool          `json:"headless"`
	RunAt       string        `json:"run_at"`
	FinishedAt  string        `json:"finished_at"`
	Status      string        `json:"status"`
	CaseIDs     []string      `json:"case_ids"`
	System      *sysinfo.Info `json:"system,omitempty"`
}

func runTests(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	owner, err := fsutil.ParseOwner(cfg.Run.ResultsOwner)
	if err != nil {
		return fmt.Errorf("parsing results_owner: %w", err)
	}

	// Setup context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	doc, err := os.ReadFile(cfg.Project.Scenario)
	if err != nil {
		return fmt.Errorf("reading scenario file: %w", err)
	}

	parsed := scenario.Parse(string(doc), cfg.Project.SiteURL)

	if parsed.SkippedRows > 0 {
		log.WithField("rows", parsed.SkippedRows).Warn("Skipped malformed scenario rows")
	}

	log.WithFields(logrus.Fields{
		"project": cfg.Project.Name,
		"site":    cfg.Project.SiteURL,
		"cases":   len(parsed.Cases),
	}).Info("Scenario parsed")

	var cookies []browser.Cookie

	if cfg.Project.AuthSite != "" {
		authDir, err := authstore.DefaultDir()
		if err != nil {
			return err
		}

		cookies, err = authstore.NewStore(log, authDir).Load(cfg.Project.AuthSite)
		if err != nil {
			return fmt.Errorf("loading saved cookies: %w", err)
		}

		if len(cookies) == 0 {
			log.WithField("site", cfg.Project.AuthSite).Warn("No saved cookies, running unauthenticated")
		}
	}

	runDir := filepath.Join(
		cfg.Run.OutputDir,
		fmt.Sprintf("%d_%s", time.Now().Unix(), generateShortID()),
	)

	factory := browser.NewFactory(log, &browser.Options{
		Headless: *cfg.Run.Headless && !runHeaded,
	})

	eng := engine.New(log, &engine.Config{
		ProjectName: cfg.Project.Name,
		SiteURL:     cfg.Project.SiteURL,
		OutputDir:   runDir,
		Owner:       owner,
		Cookies:     cookies,
	}, factory)

	rep, err := eng.Run(ctx, parsed.Cases)
	if err != nil {
		return fmt.Errorf("running tests: %w", err)
	}

	if _, _, err := report.NewGenerator(log, owner).Write(runDir, rep); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	status := "completed"
	if ctx.Err() != nil {
		status = "interrupted"
	}

	caseIDs := make([]string, 0, len(parsed.Cases))
	for _, tc := range parsed.Cases {
		caseIDs = append(caseIDs, tc.ID)
	}

	info := runInfo{
		ProjectName: cfg.Project.Name,
		SiteURL:     cfg.Project.SiteURL,
		Scenario:    cfg.Project.Scenario,
		AuthSite:    cfg.Project.AuthSite,
		Headless:    *cfg.Run.Headless && !runHeaded,
		RunAt:       rep.RunAt,
		FinishedAt:  time.Now().Format(time.RFC3339),
		Status:      status,
		CaseIDs:     caseIDs,
		System:      sysinfo.Collect(context.Background()),
	}

	if err := fsutil.WriteJSON(
		filepath.Join(runDir, "config.json"), info, 0644, owner,
	); err != nil {
		log.WithError(err).Warn("Failed to write run config snapshot")
	}

	log.WithFields(logrus.Fields{
		"total":     rep.TotalTests,
		"passed":    rep.Passed,
		"failed":    rep.Failed,
		"errors":    rep.Error,
		"pass_rate": fmt.Sprintf("%.1f%%", rep.PassRate()),
	}).Info("Run finished")

	if rep.Failed+rep.Error > 0 {
		return fmt.Errorf("%d of %d test cases did not pass", rep.Failed+rep.Error, rep.TotalTests)
	}

	return nil
}

// loadRunConfig merges the config file and CLI flags; flags win.
func loadRunConfig() (*config.Config, error) {
	cfg := config.New()

	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		cfg = loaded
	}

	if runProject != "" {
		cfg.Project.Name = runProject
	}

	if runURL != "" {
		cfg.Project.SiteURL = runURL
	}

	if runScenario != "" {
		cfg.Project.Scenario = runScenario
	}

	if runOutput != "" {
		cfg.Run.OutputDir = runOutput
	}

	if runAuthSite != "" {
		cfg.Project.AuthSite = runAuthSite
	}

	if cfg.Project.Name == "" {
		cfg.Project.Name = "default"
	}

	if cfg.Project.SiteURL == "" {
		return nil, fmt.Errorf("site URL is required (use --url or the config file)")
	}

	if cfg.Project.Scenario == "" {
		return nil, fmt.Errorf("scenario file is required (use --scenario or the config file)")
	}

	return cfg, nil
}

func generateShortID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based ID if crypto/rand fails.
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
	}

	return hex.EncodeToString(b)
}
