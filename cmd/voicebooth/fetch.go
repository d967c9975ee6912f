package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/hub"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download published voices and pretrained checkpoints",
	}
	cmd.AddCommand(newFetchVoiceCmd(), newFetchCheckpointCmd())
	return cmd
}

func newFetchVoiceCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "voice <reference>",
		Short: "Download a published voice model and its config",
		Long: `Fetch voice downloads a ready-made voice from the hub's voice
repository by reference, e.g. en_US-lessac-medium. Files already
downloaded are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			if dest == "" {
				dest = c.Paths.ModelDir
			}

			model, modelCfg, err := hub.New(c.Hub).FetchVoice(cmd.Context(), args[0], dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model:  %s\nconfig: %s\n", model, modelCfg)
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "destination directory (default: the model dir)")
	return cmd
}

func newFetchCheckpointCmd() *cobra.Command {
	var (
		dest string
		file string
	)

	cmd := &cobra.Command{
		Use:   "checkpoint <reference|url>",
		Short: "Download a pretrained checkpoint to fine-tune from",
		Long: `Fetch checkpoint downloads a pretrained training checkpoint, either
by voice reference plus --file, or from a full URL. Fine-tuning from a
published checkpoint needs far less data than training from scratch.`,
		Example: `  voicebooth fetch checkpoint en_US-lessac-medium --file "epoch=2164-step=1355540.ckpt"
  voicebooth fetch checkpoint https://huggingface.co/datasets/rhasspy/piper-checkpoints/resolve/main/en/en_US/lessac/medium/epoch%3D2164-step%3D1355540.ckpt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			if dest == "" {
				dest = c.Paths.TrainingDir
			}

			ref, name := args[0], file
			if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
				ref, name = "", args[0]
			} else if name == "" {
				return errors.New("--file is required with a voice reference")
			}

			path, err := hub.New(c.Hub).FetchCheckpoint(cmd.Context(), ref, name, dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checkpoint: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "checkpoint filename within the voice's directory")
	cmd.Flags().StringVar(&dest, "dest", "", "destination directory (default: the training dir)")
	return cmd
}
