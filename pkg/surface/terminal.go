package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ossgrade/ossgrade/pkg/grading"
)

// TerminalRenderer renders reports as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func gradeColor(grade grading.Grade) string {
	if noColor() {
		return ""
	}
	switch grade {
	case grading.GradeA, grading.GradeB:
		return colorGreen
	case grading.GradeC:
		return colorYellow
	case grading.GradeD, grading.GradeE:
		return colorRed
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

// gainBar draws gain in [0,1] as a ten-cell bar.
func gainBar(gain float64) string {
	n := int(gain*10 + 0.5)
	if n < 0 {
		n = 0
	}
	if n > 10 {
		n = 10
	}
	return strings.Repeat("█", n) + strings.Repeat("·", 10-n)
}

func (r *TerminalRenderer) RenderReport(w io.Writer, report *Report) error {
	fmt.Fprintf(w, "%s\n", bold("ossgrade: "+report.Project))
	fmt.Fprintf(w, "%s\n\n", dim(fmt.Sprintf("classifier %s, lookback %d", report.RunID, report.Lookback)))

	if len(report.Checks) == 0 {
		fmt.Fprintln(w, "No checks configured.")
		return nil
	}

	for _, c := range report.Checks {
		fmt.Fprintf(w, "  %-12s %s  %s\n",
			c.Kind, bold(colored(string(c.Grade), gradeColor(c.Grade))), dim(fmt.Sprintf("gain %.2f", c.Gain)))
		for _, g := range grading.Grades {
			line := fmt.Sprintf("    %s %s %.2f", g, gainBar(c.Gains[g]), c.Gains[g])
			if g != c.Grade {
				line = dim(line)
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (r *TerminalRenderer) RenderThresholds(w io.Writer, t *Thresholds) error {
	fmt.Fprintf(w, "%s\n", bold("ossgrade thresholds"))
	fmt.Fprintf(w, "%s\n", dim(fmt.Sprintf("classifier %s, trained %s", t.RunID, t.TrainedAt.Format("2006-01-02 15:04 MST"))))
	if len(t.Reversed) > 0 {
		fmt.Fprintf(w, "%s\n", dim("lower is better: "+strings.Join(t.Reversed, ", ")))
	}
	fmt.Fprintln(w)

	reversed := make(map[string]bool, len(t.Reversed))
	for _, m := range t.Reversed {
		reversed[m] = true
	}

	for _, key := range sortedSectionKeys(t.Sections) {
		metrics := t.Sections[key]
		fmt.Fprintf(w, "%s\n", bold(string(key)))
		if len(metrics) == 0 {
			fmt.Fprintf(w, "  %s\n\n", dim("no metrics"))
			continue
		}

		width := 0
		for name := range metrics {
			if len(name) > width {
				width = len(name)
			}
		}
		header := fmt.Sprintf("  %-*s", width+1, "metric")
		for _, g := range grading.Grades {
			header += fmt.Sprintf(" %10s", g)
		}
		fmt.Fprintln(w, dim(header))

		for _, name := range sortedMetrics(metrics) {
			label := name
			if reversed[name] {
				label += "*"
			}
			line := fmt.Sprintf("  %-*s", width+1, label)
			for _, g := range grading.Grades {
				v, ok := metrics[name][g]
				if !ok {
					line += fmt.Sprintf(" %10s", "-")
					continue
				}
				line += fmt.Sprintf(" %10.2f", v)
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
		fmt.Fprintln(w)
	}
	return nil
}
