package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ossgrade/ossgrade/pkg/grading"
	"github.com/ossgrade/ossgrade/pkg/surface"
)

func newThresholdsCmd(g *globalOpts) *cobra.Command {
	var (
		section   string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Print the reference value of every metric per grade",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := surface.For(outputFmt)
			if err != nil {
				return err
			}
			t, err := loadThresholds(cmd.Context(), g, section)
			if err != nil {
				return err
			}
			return renderer.RenderThresholds(cmd.OutOrStdout(), t)
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "Only this section, e.g. agility_total")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, json or markdown")

	return cmd
}

func loadThresholds(ctx context.Context, g *globalOpts, section string) (*surface.Thresholds, error) {
	e, err := openEnv(ctx, g)
	if err != nil {
		return nil, err
	}
	ch, err := e.checker(ctx)
	if err != nil {
		return nil, err
	}
	c := ch.Classifier()
	if section == "" {
		return surface.NewThresholds(c), nil
	}
	key := grading.SectionKey(section)
	if _, ok := c.Table(key); !ok {
		return nil, fmt.Errorf("unknown section %q (want one of %v)", section, grading.SectionKeys())
	}
	return surface.NewThresholds(c, key), nil
}
