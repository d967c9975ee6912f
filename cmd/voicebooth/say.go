package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/capture"
	"github.com/voicebooth/voicebooth/internal/synth/piper"
)

func newSayCmd() *cobra.Command {
	var (
		model       string
		voiceConfig string
		out         string
		play        bool
	)

	cmd := &cobra.Command{
		Use:   "say <text>...",
		Short: "Synthesize a sentence with a trained or downloaded voice",
		Example: `  voicebooth say "Seek you contest, this is whiskey seven india yankee."
  voicebooth say --model my-model/en_US-myvoice.onnx --play "Testing, one two three."`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}

			piperCfg := c.Piper
			if model != "" {
				piperCfg.Model = model
				piperCfg.Config = ""
			}
			if voiceConfig != "" {
				piperCfg.Config = voiceConfig
			}
			client, err := piper.New(piperCfg)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if err := speak(cmd.Context(), client, text, out, synthOptions(c)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)

			if play {
				return capture.NewPlayer(c.Playback).Play(cmd.Context(), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "voice model .onnx (default from config)")
	cmd.Flags().StringVar(&voiceConfig, "voice-config", "", "voice config .onnx.json (default: <model>.json)")
	cmd.Flags().StringVar(&out, "out", "test.wav", "output WAV path")
	cmd.Flags().BoolVar(&play, "play", false, "play the result through the playback tool")
	return cmd
}
