package dataset

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// Labels maps each grade to the names of the projects that exemplify it.
type Labels map[grading.Grade][]string

// LoadLabels reads a YAML labels file:
//
//	A: [django, flask]
//	B: [bottle]
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}

	labels := make(Labels, len(raw))
	for g, names := range raw {
		grade, err := grading.ParseGrade(g)
		if err != nil {
			return nil, err
		}
		labels[grade] = names
	}
	if err := labels.Validate(); err != nil {
		return nil, err
	}
	return labels, nil
}

// Validate rejects empty label sets and projects labeled twice.
func (l Labels) Validate() error {
	seen := make(map[string]grading.Grade)
	total := 0
	for _, g := range grading.Grades {
		for _, name := range l[g] {
			if prev, ok := seen[name]; ok {
				return &grading.ConfigError{Field: "labels", Msg: fmt.Sprintf("%s labeled both %s and %s", name, prev, g)}
			}
			seen[name] = g
			total++
		}
	}
	if total == 0 {
		return grading.ErrEmptyTrainingGroup
	}
	return nil
}

// Names returns every labeled project, sorted.
func (l Labels) Names() []string {
	var names []string
	for _, list := range l {
		names = append(names, list...)
	}
	sort.Strings(names)
	return names
}
