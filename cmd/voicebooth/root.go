package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/config"
	"github.com/voicebooth/voicebooth/internal/synth"
)

// cfg is loaded by the root command before any subcommand runs.
var cfg *config.Config

// requireConfig guards subcommands against running without a loaded
// configuration, which only happens when a test calls a command
// constructor directly.
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "voicebooth",
		Short: "Recording booth for piper TTS training datasets",
		Long: `Voicebooth records a training dataset for a personal piper voice.

It steps through a prompt list one sentence at a time, captures a take
for each through the system microphone, trims and normalizes accepted
takes, and writes the metadata.csv manifest the training framework
expects. Finished recordings are promoted into the dataset directory,
and trained checkpoints are exported to ONNX voices ready for piper.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			config.SetupLogging(c.Logging)
			cfg = c
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: voicebooth.yaml in . or ~/.config/voicebooth)")

	cmd.AddCommand(
		newInitCmd(),
		newRecordCmd(),
		newReviewCmd(),
		newPromoteCmd(),
		newExportCmd(),
		newSayCmd(),
		newFetchCmd(),
	)
	return cmd
}

// synthOptions maps the configured piper tuning onto synthesis options.
func synthOptions(c *config.Config) synth.Options {
	return synth.Options{
		LengthScale: c.Piper.LengthScale,
		NoiseScale:  c.Piper.NoiseScale,
		NoiseW:      c.Piper.NoiseW,
	}
}
