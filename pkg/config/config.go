// Package config handles loading and managing ossgrade configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// Config is the top-level configuration for ossgrade.
type Config struct {
	Classifier ClassifierConfig       `yaml:"classifier"`
	Checks     map[string]CheckConfig `yaml:"checks"`
	Storage    StorageConfig          `yaml:"storage"`
}

// ClassifierConfig controls training.
type ClassifierConfig struct {
	Reversed  []string                   `yaml:"reversed"`
	Synthetic map[string]SyntheticBounds `yaml:"synthetic"`
	Lookback  int                        `yaml:"lookback"`
}

// CheckConfig describes one check. Strategy maps period -> section(s) and
// falls back to the check's built-in strategy when omitted. Metrics maps
// period -> metric -> weight.
type CheckConfig struct {
	Strategy map[string]SectionList       `yaml:"strategy"`
	Metrics  map[string]map[string]float64 `yaml:"metrics"`
}

// StorageConfig selects the blob backend.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // local, gcs or s3
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// SyntheticBounds is written either as a scalar maximum (minimum 0) or as a
// [max, min] pair.
type SyntheticBounds grading.Bounds

// UnmarshalYAML accepts both forms.
func (b *SyntheticBounds) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var max float64
		if err := value.Decode(&max); err != nil {
			return fmt.Errorf("synthetic bound: %w", err)
		}
		*b = SyntheticBounds{Max: max}
		return nil
	case yaml.SequenceNode:
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return fmt.Errorf("synthetic bounds: %w", err)
		}
		switch len(pair) {
		case 1:
			*b = SyntheticBounds{Max: pair[0]}
		case 2:
			*b = SyntheticBounds{Max: pair[0], Min: pair[1]}
		default:
			return fmt.Errorf("line %d: synthetic bounds need [max, min], got %d values", value.Line, len(pair))
		}
		return nil
	}
	return fmt.Errorf("line %d: synthetic bounds must be a number or [max, min]", value.Line)
}

// SectionList is written either as a single section or a list of them.
type SectionList []string

// UnmarshalYAML accepts both forms.
func (s *SectionList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = SectionList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("sections: %w", err)
		}
		*s = list
		return nil
	}
	return fmt.Errorf("line %d: sections must be a name or a list of names", value.Line)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Reversed: []string{
				"issues_active_percent",
				"issues_open_percent",
				"issues_processed_in_avg",
				"pr_active_percent",
				"pr_processed_in_avg",
				"last_release_days",
			},
			Synthetic: map[string]SyntheticBounds{
				"issues_closed_percent": {Max: 100},
				"pr_merged_percent":     {Max: 100},
			},
			Lookback: grading.DefaultLookback,
		},
		Checks: map[string]CheckConfig{
			"popularity": {
				Metrics: map[string]map[string]float64{
					"total": {
						"stargazers_count":      5,
						"forks_count":           3,
						"users_involved_count":  5,
						"total_downloads_count": 5,
					},
					"last_year": {
						"stargazers_count":     3,
						"forks_count":          2,
						"users_involved_count": 5,
						"downloads_count":      5,
					},
				},
			},
			"maintenance": {
				Metrics: map[string]map[string]float64{
					"total": {
						"issues_active_percent":   3,
						"issues_processed_in_avg": 3,
						"pr_active_percent":       3,
						"pr_processed_in_avg":     3,
						"releases_count":          2,
					},
					"last_year": {
						"commits":                 5,
						"issues_processed_in_avg": 3,
						"pr_processed_in_avg":     3,
						"releases_count":          3,
						"last_release_days":       2,
					},
				},
			},
			"maturity": {
				Metrics: map[string]map[string]float64{
					"total": {
						"life_period_months":    5,
						"releases_count":        3,
						"contributors_count":    3,
						"issues_closed_percent": 2,
						"stargazers_count":      2,
					},
					"last_year": {
						"commits":            3,
						"contributors_count": 3,
						"pr_merged_percent":  2,
					},
				},
			},
		},
		Storage: StorageConfig{
			Backend: "local",
			Dir:     DataDir(),
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
//
// Scalars, lists and storage fields the file sets override the defaults. The
// checks and classifier.synthetic maps are replaced as a whole when present,
// so a file can drop a default check or synthetic metric.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var present struct {
		Classifier struct {
			Synthetic *yaml.Node `yaml:"synthetic"`
		} `yaml:"classifier"`
		Checks *yaml.Node `yaml:"checks"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if present.Checks != nil {
		cfg.Checks = nil
	}
	if present.Classifier.Synthetic != nil {
		cfg.Classifier.Synthetic = nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that check names, periods and sections are known.
func (c *Config) Validate() error {
	if _, err := c.CheckSpecs(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case "", "local", "gcs", "s3":
	default:
		return &grading.ConfigError{Field: "storage.backend", Msg: fmt.Sprintf("unknown backend %q", c.Storage.Backend)}
	}
	return nil
}

// TrainOptions converts the classifier section for grading.Train.
func (c *Config) TrainOptions() grading.TrainOptions {
	synthetic := make(map[string]grading.Bounds, len(c.Classifier.Synthetic))
	for name, b := range c.Classifier.Synthetic {
		synthetic[name] = grading.Bounds(b)
	}
	reversed := append([]string(nil), c.Classifier.Reversed...)
	sort.Strings(reversed)
	return grading.TrainOptions{
		Reversed:  reversed,
		Synthetic: synthetic,
		Lookback:  c.Classifier.Lookback,
	}
}

// CheckSpecs converts the checks section for grading.NewChecker.
func (c *Config) CheckSpecs() (map[grading.CheckKind]grading.CheckSpec, error) {
	if len(c.Checks) == 0 {
		return nil, &grading.ConfigError{Field: "checks", Msg: "no checks configured"}
	}
	specs := make(map[grading.CheckKind]grading.CheckSpec, len(c.Checks))
	for name, cc := range c.Checks {
		kind, err := grading.ParseCheckKind(name)
		if err != nil {
			return nil, err
		}

		strategy := grading.DefaultStrategy(kind)
		if len(cc.Strategy) > 0 {
			strategy = make(grading.Strategy, len(cc.Strategy))
			for p, sections := range cc.Strategy {
				period, err := grading.ParsePeriod(p)
				if err != nil {
					return nil, err
				}
				for _, s := range sections {
					section, err := grading.ParseSection(s)
					if err != nil {
						return nil, err
					}
					strategy[period] = append(strategy[period], section)
				}
			}
		}

		weights := make(grading.Weights, len(cc.Metrics))
		for p, metrics := range cc.Metrics {
			period, err := grading.ParsePeriod(p)
			if err != nil {
				return nil, err
			}
			weights[period] = make(map[string]float64, len(metrics))
			for m, w := range metrics {
				weights[period][m] = w
			}
		}

		spec := grading.CheckSpec{Strategy: strategy, Weights: weights}
		if err := spec.Validate(kind); err != nil {
			return nil, err
		}
		specs[kind] = spec
	}
	return specs, nil
}

// FindConfigFile looks for .ossgrade/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".ossgrade", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// DataDir returns the default local storage directory, ~/.cache/ossgrade.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "ossgrade")
}
