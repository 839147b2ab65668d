// Package state persists project and session state between invocations:
// which scenarios completed, which feedback messages were already synced,
// and per-project issue statistics.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Version of the state document format.
const Version = "1.0.0"

// State is the root document.
type State struct {
	Version   string              `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Projects  map[string]*Project `json:"projects"`
}

// Project holds everything tracked for one QA project.
type Project struct {
	Name           string           `json:"name"`
	CreatedAt      time.Time        `json:"created_at"`
	Config         ProjectConfig    `json:"config"`
	Scenarios      []ScenarioStatus `json:"scenarios"`
	SyncedMessages []string         `json:"synced_messages"`
	IssuesCreated  []IssueRecord    `json:"issues_created"`
	Stats          Stats            `json:"stats"`
}

// ProjectConfig is the per-project configuration captured at setup time.
type ProjectConfig struct {
	SiteURL       string `json:"site_url,omitempty"`
	ScenarioPath  string `json:"scenario_path,omitempty"`
	SlackChannel  string `json:"slack_channel,omitempty"`
	SlackThreadTS string `json:"slack_thread_ts,omitempty"`
}

// ScenarioStatus tracks completion of one scenario.
type ScenarioStatus struct {
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IssueRecord links a synced feedback message to the issue created for it.
type IssueRecord struct {
	IssueID   string    `json:"issue_id"`
	MessageTS string    `json:"message_ts"`
	IssueType string    `json:"issue_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats are per-project counters, updated as messages are synced.
type Stats struct {
	TotalScenarios     int `json:"total_scenarios"`
	CompletedScenarios int `json:"completed_scenarios"`
	TotalIssues        int `json:"total_issues"`
	Bugs               int `json:"bugs"`
	Improvements       int `json:"improvements"`
	DataErrors         int `json:"data_errors"`
}

// Manager loads and saves the state file. Each mutating call is a full
// load-modify-save cycle; the file is small and contention is not a
// concern for a single-operator tool.
type Manager struct {
	log  logrus.FieldLogger
	path string
}

// DefaultPath returns the conventional state file path, ~/.qa-sync/state.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, ".qa-sync", "state.json"), nil
}

// NewManager creates a manager for the given state file path.
func NewManager(log logrus.FieldLogger, path string) *Manager {
	return &Manager{
		log:  log.WithField("component", "state"),
		path: path,
	}
}

// Load reads the state file, returning a fresh empty state when the file
// does not exist yet.
func (m *Manager) Load() (*State, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			now := time.Now()

			return &State{
				Version:   Version,
				CreatedAt: now,
				UpdatedAt: now,
				Projects:  make(map[string]*Project),
			}, nil
		}

		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}

	if st.Projects == nil {
		st.Projects = make(map[string]*Project)
	}

	return &st, nil
}

// Save writes the state file, stamping UpdatedAt.
func (m *Manager) Save(st *State) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	st.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}

	return nil
}

// GetProject returns a project by name, or nil when unknown.
func (m *Manager) GetProject(name string) (*Project, error) {
	st, err := m.Load()
	if err != nil {
		return nil, err
	}

	return st.Projects[name], nil
}

// CreateProject creates a project or merges config into an existing one.
func (m *Manager) CreateProject(name string, cfg ProjectConfig) (*Project, error) {
	st, err := m.Load()
	if err != nil {
		return nil, err
	}

	project, ok := st.Projects[name]
	if !ok {
		project = &Project{
			Name:      name,
			CreatedAt: time.Now(),
		}
		st.Projects[name] = project
	}

	mergeConfig(&project.Config, cfg)

	if err := m.Save(st); err != nil {
		return nil, err
	}

	return project, nil
}

// AddScenarios appends scenarios to a project, creating it if needed.
func (m *Manager) AddScenarios(name string, scenarios []string) error {
	st, err := m.Load()
	if err != nil {
		return err
	}

	project := ensureProject(st, name)

	for _, s := range scenarios {
		project.Scenarios = append(project.Scenarios, ScenarioStatus{Name: s})
	}

	project.Stats.TotalScenarios = len(project.Scenarios)

	return m.Save(st)
}

// MarkScenarioCompleted flags one scenario as done by index.
func (m *Manager) MarkScenarioCompleted(name string, index int) error {
	st, err := m.Load()
	if err != nil {
		return err
	}

	project, ok := st.Projects[name]
	if !ok || index < 0 || index >= len(project.Scenarios) {
		return nil
	}

	now := time.Now()
	project.Scenarios[index].Completed = true
	project.Scenarios[index].CompletedAt = &now

	completed := 0
	for _, s := range project.Scenarios {
		if s.Completed {
			completed++
		}
	}

	project.Stats.CompletedScenarios = completed

	return m.Save(st)
}

// IsMessageSynced reports whether a feedback message was already handled.
func (m *Manager) IsMessageSynced(name, messageTS string) (bool, error) {
	st, err := m.Load()
	if err != nil {
		return false, err
	}

	project, ok := st.Projects[name]
	if !ok {
		return false, nil
	}

	for _, ts := range project.SyncedMessages {
		if ts == messageTS {
			return true, nil
		}
	}

	return false, nil
}

// MarkMessageSynced records a handled message and its created issue, and
// updates the issue-type counters.
func (m *Manager) MarkMessageSynced(name, messageTS, issueID, issueType string) error {
	st, err := m.Load()
	if err != nil {
		return err
	}

	project := ensureProject(st, name)

	synced := false
	for _, ts := range project.SyncedMessages {
		if ts == messageTS {
			synced = true

			break
		}
	}

	if !synced {
		project.SyncedMessages = append(project.SyncedMessages, messageTS)
	}

	project.IssuesCreated = append(project.IssuesCreated, IssueRecord{
		IssueID:   issueID,
		MessageTS: messageTS,
		IssueType: issueType,
		CreatedAt: time.Now(),
	})

	project.Stats.TotalIssues++

	switch issueType {
	case "bug":
		project.Stats.Bugs++
	case "improvement":
		project.Stats.Improvements++
	case "data_error":
		project.Stats.DataErrors++
	}

	return m.Save(st)
}

// ListProjects returns the known project names, sorted.
func (m *Manager) ListProjects() ([]string, error) {
	st, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(st.Projects))
	for name := range st.Projects {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

func ensureProject(st *State, name string) *Project {
	project, ok := st.Projects[name]
	if !ok {
		project = &Project{
			Name:      name,
			CreatedAt: time.Now(),
		}
		st.Projects[name] = project
	}

	return project
}

func mergeConfig(dst *ProjectConfig, src ProjectConfig) {
	if src.SiteURL != "" {
		dst.SiteURL = src.SiteURL
	}

	if src.ScenarioPath != "" {
		dst.ScenarioPath = src.ScenarioPath
	}

	if src.SlackChannel != "" {
		dst.SlackChannel = src.SlackChannel
	}

	if src.SlackThreadTS != "" {
		dst.SlackThreadTS = src.SlackThreadTS
	}
}
