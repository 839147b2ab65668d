// Package report renders a test report into its persisted artifacts: a
// structured JSON record and a human-readable markdown document.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/qa-sync/qasync/pkg/engine"
	"github.com/qa-sync/qasync/pkg/fsutil"
	"github.com/sirupsen/logrus"
)

// Artifact file names inside a run directory.
const (
	JSONFileName     = "report.json"
	MarkdownFileName = "report.md"
)

// Generator writes report artifacts. Rendering is deterministic: the same
// report renders to byte-identical output.
type Generator struct {
	log   logrus.FieldLogger
	owner *fsutil.OwnerConfig
}

// NewGenerator creates a report generator.
func NewGenerator(log logrus.FieldLogger, owner *fsutil.OwnerConfig) *Generator {
	return &Generator{
		log:   log.WithField("component", "report"),
		owner: owner,
	}
}

// Write renders both artifacts into dir and returns their paths.
func (g *Generator) Write(dir string, r *engine.TestReport) (jsonPath, mdPath string, err error) {
	if err := fsutil.MkdirAll(dir, 0755, g.owner); err != nil {
		return "", "", fmt.Errorf("creating report directory: %w", err)
	}

	data, err := RenderJSON(r)
	if err != nil {
		return "", "", err
	}

	jsonPath = filepath.Join(dir, JSONFileName)
	if err := fsutil.WriteFile(jsonPath, data, 0644, g.owner); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", JSONFileName, err)
	}

	mdPath = filepath.Join(dir, MarkdownFileName)
	if err := fsutil.WriteFile(mdPath, []byte(RenderMarkdown(r)), 0644, g.owner); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", MarkdownFileName, err)
	}

	g.log.WithFields(logrus.Fields{
		"json":     jsonPath,
		"markdown": mdPath,
	}).Info("Report written")

	return jsonPath, mdPath, nil
}

// RenderJSON renders the structured record, mirroring the data model with
// statuses as their lowercase string tags.
func RenderJSON(r *engine.TestReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}

	return data, nil
}
