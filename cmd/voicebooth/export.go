package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/export"
	"github.com/voicebooth/voicebooth/internal/synth/piper"
)

const defaultTestSentence = "CQ Contest, this is Whiskey Seven India Yankee, over."

func newExportCmd() *cobra.Command {
	var (
		name       string
		runVersion int
		checkpoint string
		noTest     bool
		text       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the newest training checkpoint to an ONNX voice",
		Long: `Export locates the newest checkpoint under the training workspace's
lightning_logs (or takes an explicit one), runs the framework's ONNX
exporter on it, and installs the result in the model directory under
piper's naming convention. Unless --no-test is given, the fresh voice
then speaks a test sentence so a broken export is caught immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			if name == "" {
				name = c.Export.Voice
			}

			model, err := export.Export(cmd.Context(), export.ExecRunner{}, export.Config{
				Command:     c.Export.Command,
				TrainingDir: c.Paths.TrainingDir,
				ModelDir:    c.Paths.ModelDir,
				Voice:       name,
				Version:     runVersion,
				Checkpoint:  checkpoint,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model:  %s\nconfig: %s\n", model.ModelPath, model.ConfigPath)

			if noTest {
				return nil
			}

			piperCfg := c.Piper
			piperCfg.Model = model.ModelPath
			piperCfg.Config = model.ConfigPath
			client, err := piper.New(piperCfg)
			if err != nil {
				return err
			}

			testWav := filepath.Join(c.Paths.ModelDir, "test_"+name+".wav")
			if err := speak(cmd.Context(), client, text, testWav, synthOptions(c)); err != nil {
				return fmt.Errorf("test synthesis: %w", err)
			}
			fmt.Fprintf(out, "test audio: %s\n", testWav)
			fmt.Fprintf(out, "try it: echo 'hello' | piper --model %s --output_file hello.wav\n", model.ModelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "voice name for the installed files (default from config)")
	cmd.Flags().IntVar(&runVersion, "version", export.AutoVersion, "training run to export (default: newest)")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "explicit checkpoint file, skipping discovery")
	cmd.Flags().BoolVar(&noTest, "no-test", false, "skip the post-export test synthesis")
	cmd.Flags().StringVar(&text, "text", defaultTestSentence, "sentence for the test synthesis")
	return cmd
}
