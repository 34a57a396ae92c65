package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ossgrade/ossgrade/internal/training"
	"github.com/ossgrade/ossgrade/pkg/grading"
	"github.com/ossgrade/ossgrade/pkg/surface"
)

func newTrainCmd(g *globalOpts) *cobra.Command {
	var (
		labelsPath string
		outputFmt  string
		show       bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the classifier from labeled projects",
		Long: `Resolves the labels file to imported project records, learns the per-grade
thresholds and replaces the stored classifier.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, g)
			if err != nil {
				return err
			}
			renderer, err := surface.For(outputFmt)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			svc := training.NewService(training.FileLabels(labelsPath), e.repo, e.store, grading.NewRegistry(), e.cfg.TrainOptions(), logger)

			fmt.Fprintf(cmd.ErrOrStderr(), "Training from %s...\n", labelsPath)
			c, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Trained classifier %s\n", c.RunID)

			if show {
				return renderer.RenderThresholds(cmd.OutOrStdout(), surface.NewThresholds(c))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&labelsPath, "labels", "labels.yaml", "Path to the labels file (grade -> project names)")
	cmd.Flags().BoolVar(&show, "show", false, "Print the learned thresholds")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format for --show: text, json or markdown")

	return cmd
}
