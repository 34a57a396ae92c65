package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// MarkdownRenderer produces Markdown suitable for a README badge section or
// an issue comment.
type MarkdownRenderer struct{}

func gradeIcon(grade grading.Grade) string {
	switch grade {
	case grading.GradeA, grading.GradeB:
		return ":green_circle:"
	case grading.GradeC:
		return ":yellow_circle:"
	default:
		return ":red_circle:"
	}
}

func (r *MarkdownRenderer) RenderReport(w io.Writer, report *Report) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## ossgrade: %s\n\n", report.Project))
	if len(report.Checks) == 0 {
		sb.WriteString("_No checks configured._\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	sb.WriteString("| Check | Grade | Gain |")
	for _, g := range grading.Grades {
		sb.WriteString(fmt.Sprintf(" %s |", g))
	}
	sb.WriteString("\n|-------|-------|------|")
	for range grading.Grades {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	for _, c := range report.Checks {
		sb.WriteString(fmt.Sprintf("| %s | %s **%s** | %.2f |", c.Kind, gradeIcon(c.Grade), c.Grade, c.Gain))
		for _, g := range grading.Grades {
			sb.WriteString(fmt.Sprintf(" %.2f |", c.Gains[g]))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\n_Classifier %s, lookback %d._\n", report.RunID, report.Lookback))

	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *MarkdownRenderer) RenderThresholds(w io.Writer, t *Thresholds) error {
	var sb strings.Builder

	sb.WriteString("## ossgrade thresholds\n\n")
	reversed := make(map[string]bool, len(t.Reversed))
	for _, m := range t.Reversed {
		reversed[m] = true
	}

	for _, key := range sortedSectionKeys(t.Sections) {
		metrics := t.Sections[key]
		sb.WriteString(fmt.Sprintf("### %s\n\n", key))
		sb.WriteString("| Metric |")
		for _, g := range grading.Grades {
			sb.WriteString(fmt.Sprintf(" %s |", g))
		}
		sb.WriteString("\n|--------|")
		for range grading.Grades {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for _, name := range sortedMetrics(metrics) {
			label := name
			if reversed[name] {
				label += " (lower is better)"
			}
			sb.WriteString(fmt.Sprintf("| %s |", label))
			for _, g := range grading.Grades {
				if v, ok := metrics[name][g]; ok {
					sb.WriteString(fmt.Sprintf(" %.2f |", v))
				} else {
					sb.WriteString(" - |")
				}
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("_Classifier %s, trained %s._\n", t.RunID, t.TrainedAt.UTC().Format("2006-01-02")))

	_, err := io.WriteString(w, sb.String())
	return err
}
