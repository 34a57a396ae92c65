package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ossgrade/ossgrade/pkg/grading"
	"github.com/ossgrade/ossgrade/pkg/surface"
)

type gradeOpts struct {
	file      string
	lookback  int
	outputFmt string
}

func addGradeFlags(cmd *cobra.Command, o *gradeOpts) {
	cmd.Flags().StringVar(&o.file, "file", "", "Grade a record file instead of an imported project")
	cmd.Flags().IntVar(&o.lookback, "lookback", grading.DefaultLookback, "Which completed year to read last-year metrics from (1 = most recent)")
	cmd.Flags().StringVar(&o.outputFmt, "output", "text", "Output format: text, json or markdown")
}

func newGradeCmd(g *globalOpts) *cobra.Command {
	var o gradeOpts

	cmd := &cobra.Command{
		Use:   "grade [project]",
		Short: "Print the grade of each check for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := buildReport(cmd, g, args, o)
			if err != nil {
				return err
			}
			if o.outputFmt != "text" {
				renderer, err := surface.For(o.outputFmt)
				if err != nil {
					return err
				}
				return renderer.RenderReport(cmd.OutOrStdout(), report)
			}
			for _, c := range report.Checks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c.Kind, c.Grade)
			}
			return nil
		},
	}
	addGradeFlags(cmd, &o)
	return cmd
}

func newCheckCmd(g *globalOpts) *cobra.Command {
	var o gradeOpts

	cmd := &cobra.Command{
		Use:   "check [project]",
		Short: "Print each check's grade with its gain breakdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := surface.For(o.outputFmt)
			if err != nil {
				return err
			}
			report, err := buildReport(cmd, g, args, o)
			if err != nil {
				return err
			}
			return renderer.RenderReport(cmd.OutOrStdout(), report)
		},
	}
	addGradeFlags(cmd, &o)
	return cmd
}

func buildReport(cmd *cobra.Command, g *globalOpts, args []string, o gradeOpts) (*surface.Report, error) {
	if o.lookback < 1 {
		return nil, &grading.ConfigError{Field: "lookback", Msg: "must be at least 1"}
	}
	ctx := cmd.Context()
	e, err := openEnv(ctx, g)
	if err != nil {
		return nil, err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	rec, err := e.project(ctx, name, o.file)
	if err != nil {
		return nil, err
	}

	ch, err := e.checker(ctx)
	if err != nil {
		return nil, err
	}
	gains, err := ch.Check(rec, o.lookback)
	if err != nil {
		return nil, err
	}
	return surface.NewReport(firstNonEmpty(rec.Name(), name), ch.Classifier(), o.lookback, gains), nil
}
