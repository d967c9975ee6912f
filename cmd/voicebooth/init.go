package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/prompt"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the working directories and a starter prompt list",
		Long: `Init creates the configured directories and, when no prompt list
exists yet, writes the built-in starter set. An existing prompt list is
never touched, so edit it freely and re-run init at will.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}

			dirs := []string{
				c.Paths.WorkingDir,
				c.Paths.DatasetDir,
				c.Paths.TrainingDir,
				c.Paths.ModelDir,
			}
			for _, dir := range dirs {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating %s: %w", dir, err)
				}
			}

			if err := prompt.WriteDefault(c.Paths.Prompts); err != nil {
				return err
			}
			prompts, err := prompt.Load(c.Paths.Prompts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"ready: %d prompts in %s, takes will land in %s\n",
				len(prompts), c.Paths.Prompts, c.Paths.WorkingDir)
			return nil
		},
	}
}
