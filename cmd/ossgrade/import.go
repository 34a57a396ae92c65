package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ossgrade/ossgrade/pkg/dataset"
)

func newImportCmd(g *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Store project metric records",
		Long: `Reads project metric records (JSON) and stores them for training and grading.
Directories contribute every *.json file they contain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, g)
			if err != nil {
				return err
			}

			records, err := dataset.LoadRecords(args...)
			if err != nil {
				return err
			}
			for _, rec := range records {
				if err := e.repo.Put(ctx, rec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "  imported %s\n", rec.Name())
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d projects\n", len(records))
			return nil
		},
	}
	return cmd
}
