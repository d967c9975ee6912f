package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/capture"
	"github.com/voicebooth/voicebooth/internal/manifest"
	"github.com/voicebooth/voicebooth/internal/prompt"
	"github.com/voicebooth/voicebooth/internal/session"
	"github.com/voicebooth/voicebooth/internal/wavio"
)

func newReviewCmd() *cobra.Command {
	var (
		playIndex   int
		deleteIndex int
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List recorded takes, or play or delete one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			prompts, err := prompt.Load(c.Paths.Prompts)
			if err != nil {
				return err
			}
			sess, err := session.New(prompts, c.Paths.WorkingDir, session.Config{
				SampleRate:     c.Audio.SampleRate,
				MaxTakeSeconds: c.Audio.MaxTakeSeconds,
				DSP:            c.Audio.Settings(),
			})
			if err != nil {
				return err
			}

			if deleteIndex > 0 {
				if err := sess.Delete(deleteIndex); err != nil {
					return err
				}
				if err := sess.WriteManifest(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted take %d\n", deleteIndex)
				return nil
			}

			if playIndex > 0 {
				if !sess.Done(playIndex) {
					return fmt.Errorf("take %d has no recording", playIndex)
				}
				path := filepath.Join(c.Paths.WorkingDir, manifest.FileFor(playIndex))
				return capture.NewPlayer(c.Playback).Play(cmd.Context(), path)
			}

			out := cmd.OutOrStdout()
			completed := sess.Completed()
			if len(completed) == 0 {
				fmt.Fprintln(out, "no takes recorded yet")
				return nil
			}
			for _, i := range completed {
				name := manifest.FileFor(i)
				samples, rate, err := wavio.ReadFile(filepath.Join(c.Paths.WorkingDir, name))
				if err != nil {
					fmt.Fprintf(out, "%s  unreadable: %v\n", name, err)
					continue
				}
				info := wavio.Measure(samples, rate)
				fmt.Fprintf(out, "%s  %5.2fs  min %+.3f  max %+.3f  rms %.3f  %s\n",
					name, info.Seconds, info.Min, info.Max, info.RMS, sess.Prompt(i))
			}
			fmt.Fprintf(out, "%d of %d prompts recorded\n", len(completed), sess.Len())
			return nil
		},
	}

	cmd.Flags().IntVar(&playIndex, "play", 0, "play take N through the playback tool")
	cmd.Flags().IntVar(&deleteIndex, "delete", 0, "delete take N so it can be re-recorded")
	return cmd
}
