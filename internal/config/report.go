package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkurata/teampulse/internal/aggregate"
	"github.com/mkurata/teampulse/internal/delivery"
	"github.com/mkurata/teampulse/internal/domain"
	"github.com/mkurata/teampulse/internal/flow"
)

// ReportConfig is the YAML report configuration: data source scope,
// the team roster, bot patterns, workflow status sets, metric
// thresholds, and team category rules. It arrives fully validated at
// the engine; components receive plain values, never the file.
type ReportConfig struct {
	GitHubOrg    string   `yaml:"github_org,omitempty"`
	Repositories []string `yaml:"repositories,omitempty"`
	JiraProjects []string `yaml:"jira_projects,omitempty"`

	// TeamMembers maps raw identities (emails, GitHub logins) to
	// canonical display names. Several raw identities may map to one
	// name.
	TeamMembers map[string]string `yaml:"team_members,omitempty"`

	// DropUnmapped drops records from identities missing from
	// TeamMembers. Default false: unmapped contributors are shown
	// under their raw identity.
	DropUnmapped bool `yaml:"drop_unmapped,omitempty"`

	Bots     BotsConfig     `yaml:"bots,omitempty"`
	Statuses StatusesConfig `yaml:"statuses,omitempty"`
	Delivery DeliveryConfig `yaml:"delivery,omitempty"`

	WIPLimit int    `yaml:"wip_limit,omitempty"`
	Headline string `yaml:"headline_metric,omitempty"` // "prs" or "tickets"

	// Categories are evaluated in file order; that order also drives
	// display ordering in rendered reports.
	Categories []CategoryConfig `yaml:"team_categories,omitempty"`

	Coaching *CoachingThresholds `yaml:"coaching,omitempty"`

	MaxResults int `yaml:"max_results,omitempty"`
}

// BotsConfig configures bot exclusion
type BotsConfig struct {
	Exclude  bool     `yaml:"exclude"`
	Patterns []string `yaml:"patterns,omitempty"`
}

// StatusesConfig names the workflow status sets
type StatusesConfig struct {
	InProgress []string `yaml:"in_progress,omitempty"`
	Done       []string `yaml:"done,omitempty"`
	Active     []string `yaml:"active,omitempty"`
}

// DeliveryConfig configures the trivial-PR exclusion rule
type DeliveryConfig struct {
	TrivialLineThreshold int      `yaml:"trivial_line_threshold,omitempty"`
	TrivialTitlePatterns []string `yaml:"trivial_title_patterns,omitempty"`
}

// CategoryConfig is one team category rule as configured
type CategoryConfig struct {
	Name        string   `yaml:"name"`
	Components  []string `yaml:"components,omitempty"`
	Projects    []string `yaml:"projects,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Description string   `yaml:"description"`
}

// CoachingThresholds configures engineer-performance insights
type CoachingThresholds struct {
	MinPRsPerWeek          float64 `yaml:"min_prs_per_week,omitempty"`
	MaxWIP                 int     `yaml:"max_wip_threshold,omitempty"`
	MinReviewParticipation float64 `yaml:"min_review_participation,omitempty"`
	MinActiveWeekRatio     float64 `yaml:"min_active_week_ratio,omitempty"`
}

// LoadReport loads and validates a YAML report configuration,
// applying defaults for anything not set.
func LoadReport(path string) (*ReportConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := &ReportConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ReportConfig) applyDefaults() {
	if len(c.Statuses.InProgress) == 0 {
		c.Statuses.InProgress = []string{"In Progress"}
	}
	if len(c.Statuses.Done) == 0 {
		c.Statuses.Done = []string{"Done", "Closed"}
	}
	if len(c.Statuses.Active) == 0 {
		c.Statuses.Active = []string{"In Progress", "Review"}
	}
	if c.Delivery.TrivialLineThreshold == 0 {
		c.Delivery.TrivialLineThreshold = 5
	}
	if c.WIPLimit == 0 {
		c.WIPLimit = 5
	}
	if c.Headline == "" {
		c.Headline = string(domain.HeadlinePRs)
	}
	if c.MaxResults == 0 {
		c.MaxResults = 200
	}
}

// Validate checks structural requirements: category rules need a name,
// a description, and at least one matching dimension.
func (c *ReportConfig) Validate() error {
	if c.Headline != string(domain.HeadlinePRs) && c.Headline != string(domain.HeadlineTickets) {
		return &ConfigError{Field: "headline_metric", Message: "must be 'prs' or 'tickets'"}
	}
	seen := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return &ConfigError{Field: fmt.Sprintf("team_categories[%d].name", i), Message: "category name is required"}
		}
		if cat.Name == domain.UncategorizedBucket {
			return &ConfigError{Field: fmt.Sprintf("team_categories[%d].name", i), Message: "category name is reserved"}
		}
		if cat.Description == "" {
			return &ConfigError{Field: fmt.Sprintf("team_categories[%d].description", i), Message: "category description is required"}
		}
		if len(cat.Components) == 0 && len(cat.Projects) == 0 && len(cat.Keywords) == 0 {
			return &ConfigError{Field: fmt.Sprintf("team_categories[%d]", i), Message: "category needs components, projects, or keywords"}
		}
		if _, dup := seen[cat.Name]; dup {
			return &ConfigError{Field: fmt.Sprintf("team_categories[%d].name", i), Message: "duplicate category name"}
		}
		seen[cat.Name] = struct{}{}
	}
	return nil
}

// Rules converts the configured categories to domain rules in file order
func (c *ReportConfig) Rules() []domain.CategoryRule {
	rules := make([]domain.CategoryRule, 0, len(c.Categories))
	for _, cat := range c.Categories {
		rules = append(rules, domain.CategoryRule{
			Name:        cat.Name,
			Components:  cat.Components,
			Projects:    cat.Projects,
			Keywords:    cat.Keywords,
			Description: cat.Description,
		})
	}
	return rules
}

// FlowConfig builds the flow engine configuration
func (c *ReportConfig) FlowConfig() flow.Config {
	return flow.Config{
		InProgressStatuses: c.Statuses.InProgress,
		DoneStatuses:       c.Statuses.Done,
		ActiveStatuses:     c.Statuses.Active,
		WIPLimit:           c.WIPLimit,
	}
}

// DeliveryEngineConfig builds the delivery engine configuration
func (c *ReportConfig) DeliveryEngineConfig() delivery.Config {
	return delivery.Config{
		TrivialLineThreshold: c.Delivery.TrivialLineThreshold,
		TrivialTitlePatterns: c.Delivery.TrivialTitlePatterns,
	}
}

// CoachingConfig builds the coaching thresholds, falling back to the
// defaults for any unset value.
func (c *ReportConfig) CoachingConfig() aggregate.CoachingConfig {
	cfg := aggregate.DefaultCoachingConfig()
	if c.Coaching == nil {
		return cfg
	}
	if c.Coaching.MinPRsPerWeek > 0 {
		cfg.MinPRsPerWeek = c.Coaching.MinPRsPerWeek
	}
	if c.Coaching.MaxWIP > 0 {
		cfg.MaxWIP = c.Coaching.MaxWIP
	}
	if c.Coaching.MinReviewParticipation > 0 {
		cfg.MinReviewParticipation = c.Coaching.MinReviewParticipation
	}
	if c.Coaching.MinActiveWeekRatio > 0 {
		cfg.MinActiveWeekRatio = c.Coaching.MinActiveWeekRatio
	}
	return cfg
}

// HeadlineMetric returns the configured ranking metric
func (c *ReportConfig) HeadlineMetric() domain.HeadlineMetric {
	return domain.HeadlineMetric(c.Headline)
}
