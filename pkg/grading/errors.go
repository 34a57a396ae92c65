package grading

import (
	"errors"
	"fmt"
	"math"
)

// ErrUntrained is returned when grading is attempted before a ready
// classifier has been trained or loaded.
var ErrUntrained = errors.New("classifier is not trained")

// ErrEmptyTrainingGroup is returned when no labeled project is available.
var ErrEmptyTrainingGroup = errors.New("training group has no projects")

// ConfigError reports missing or invalid grading configuration.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Msg)
}

// CorruptRangeError means a trained table does not partition the value
// space of a metric.
type CorruptRangeError struct {
	Section SectionKey
	Metric  string
	Value   float64
	Reason  string
}

func (e *CorruptRangeError) Error() string {
	msg := "corrupt classifier ranges"
	if e.Section != "" {
		msg += " in " + string(e.Section)
	}
	msg += fmt.Sprintf(" for metric %q", e.Metric)
	if !math.IsNaN(e.Value) {
		msg += fmt.Sprintf(" at %g", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	} else {
		msg += ": no grade covers the value"
	}
	return msg
}
