package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/dataset"
)

func newPromoteCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Copy the recorded takes and manifest into the dataset directory",
		Long: `Promote copies every manifest-listed recording plus metadata.csv from
the working directory into the dataset directory the trainer reads.
The working directory stays untouched, so recording and re-recording
can continue afterwards. Files already promoted with identical content
are skipped; differing content is refused unless --overwrite is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}

			res, err := dataset.Promote(c.Paths.WorkingDir, c.Paths.DatasetDir, overwrite)
			if err != nil {
				if errors.Is(err, dataset.ErrConflict) {
					return fmt.Errorf("%w (re-run with --overwrite to replace it)", err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "promoted %d files to %s (%d already current)\n",
				res.Copied, c.Paths.DatasetDir, res.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace dataset files whose content differs")
	return cmd
}
