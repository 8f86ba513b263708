package watch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSchedule is used when the rules file does not set one
const DefaultSchedule = "@every 5m"

// Rule is one alert threshold for a watched item
type Rule struct {
	Item     string  `yaml:"item"`
	MaxPrice float64 `yaml:"max_price,omitempty"`
	MinPrice float64 `yaml:"min_price,omitempty"`
}

// Rules is the watch configuration loaded from a yaml file
type Rules struct {
	// Schedule is a cron expression or @every duration
	Schedule string `yaml:"schedule"`
	Rules    []Rule `yaml:"rules"`
}

// LoadRules reads the yaml rules file at path
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if rules.Schedule == "" {
		rules.Schedule = DefaultSchedule
	}

	return &rules, nil
}

// forItem returns the rule matching an item name, or nil
func (r *Rules) forItem(item string) *Rule {
	for i := range r.Rules {
		if r.Rules[i].Item == item {
			return &r.Rules[i]
		}
	}
	return nil
}
