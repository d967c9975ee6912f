package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voicebooth/voicebooth/internal/capture"
	"github.com/voicebooth/voicebooth/internal/config"
	"github.com/voicebooth/voicebooth/internal/dsp"
	"github.com/voicebooth/voicebooth/internal/prompt"
	"github.com/voicebooth/voicebooth/internal/session"
	"github.com/voicebooth/voicebooth/internal/wavio"
)

func newRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Run an interactive recording session over the prompt list",
		Long: `Record steps through the prompt list one sentence at a time. Enter
starts a take, Enter again stops it; each take can then be accepted,
replayed, or retried. The session resumes wherever it left off: a
prompt counts as recorded exactly when its file exists in the working
directory.`,
		Args: cobra.NoArgs,
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

			loop := &recordLoop{
				cmd:    cmd,
				cfg:    c,
				sess:   sess,
				mic:    capture.NewMic(c.Capture, c.Audio.SampleRate),
				player: capture.NewPlayer(c.Playback),
				in:     bufio.NewReader(cmd.InOrStdin()),
			}
			return loop.run(cmd.Context())
		},
	}
}

// errQuit unwinds the loop when the user asks to stop.
var errQuit = errors.New("quit")

// recordLoop holds the console state for one record invocation.
type recordLoop struct {
	cmd    *cobra.Command
	cfg    *config.Config
	sess   *session.Session
	mic    capture.Device
	player *capture.Player
	in     *bufio.Reader
}

func (l *recordLoop) printf(format string, args ...any) {
	fmt.Fprintf(l.cmd.OutOrStdout(), format, args...)
}

// readLine blocks for one console line, trimmed and lowercased.
func (l *recordLoop) readLine() (string, error) {
	line, err := l.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func (l *recordLoop) run(ctx context.Context) error {
	l.printf("%d prompts, %d recorded. Enter starts a take, Enter again stops it.\n",
		l.sess.Len(), len(l.sess.Completed()))

	for !l.sess.Finished() {
		idx := l.sess.Current()
		l.printf("\n[%d/%d] %s\n", idx, l.sess.Len(), l.sess.Prompt(idx))
		l.printf("(Enter=record  s=skip  d N=delete take N  q=quit) > ")

		line, err := l.readLine()
		if err != nil {
			break
		}
		switch {
		case line == "q":
			return l.finish()
		case line == "s":
			l.sess.Skip()
			continue
		case strings.HasPrefix(line, "d"):
			l.deleteTake(strings.TrimSpace(strings.TrimPrefix(line, "d")))
			continue
		case line != "":
			l.printf("unrecognized input %q\n", line)
			continue
		}

		take, err := l.record(ctx)
		if err != nil {
			return err
		}
		if err := l.reviewTake(ctx, take); err != nil {
			if errors.Is(err, errQuit) {
				return l.finish()
			}
			return err
		}
	}
	return l.finish()
}

// record runs one take: capture starts immediately and stops on the
// next Enter or at the duration cap.
func (l *recordLoop) record(ctx context.Context) (*session.Take, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	l.printf("recording... press Enter to stop (cap %.0fs)\n", l.cfg.Audio.MaxTakeSeconds)

	type result struct {
		take *session.Take
		err  error
	}
	done := make(chan result, 1)
	go func() {
		take, err := l.sess.Record(ctx, l.mic)
		done <- result{take, err}
	}()

	// The next console line is the stop signal. When the take ends on
	// its own first, this read consumes the user's eventual Enter.
	l.readLine()
	stop()

	res := <-done
	return res.take, res.err
}

// reviewTake shows the take report and settles its fate. Takes outside
// the level gates are rejected automatically.
func (l *recordLoop) reviewTake(ctx context.Context, take *session.Take) error {
	l.printf("take: %.2fs  rms %.3f  peak %.3f  level %s\n",
		take.Seconds(), take.RMS(), take.Peak(), take.Level())

	if err := l.sess.CheckLevel(take); err != nil {
		l.sess.Reject()
		switch {
		case errors.Is(err, dsp.ErrTooQuiet):
			l.printf("too quiet — move closer to the microphone and try again\n")
		case errors.Is(err, dsp.ErrTooLoud):
			l.printf("too loud — back off the microphone and try again\n")
		default:
			l.printf("level check failed: %v\n", err)
		}
		return nil
	}

	for {
		l.printf("(a=accept [default]  r=retry  p=play  q=quit) > ")
		line, err := l.readLine()
		if err != nil {
			l.sess.Reject()
			return errQuit
		}
		switch line {
		case "a", "":
			path, err := l.sess.Accept(take)
			if err != nil {
				return err
			}
			if err := l.sess.WriteManifest(); err != nil {
				return err
			}
			l.printf("saved %s\n", filepath.Base(path))
			return nil
		case "r":
			l.sess.Reject()
			return nil
		case "p":
			l.playPreview(ctx, take)
		case "q":
			l.sess.Reject()
			return errQuit
		default:
			l.printf("unrecognized input %q\n", line)
		}
	}
}

// playPreview writes the processed take to a scratch file so the
// playback tool can render exactly what Accept would store.
func (l *recordLoop) playPreview(ctx context.Context, take *session.Take) {
	processed := dsp.Process(take.Samples, take.Rate, l.cfg.Audio.Settings())
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("voicebooth-preview-%d.wav", os.Getpid()))
	defer os.Remove(tmp)

	if err := wavio.WriteFile(tmp, processed, take.Rate); err != nil {
		l.printf("preview failed: %v\n", err)
		return
	}
	if err := l.player.Play(ctx, tmp); err != nil {
		l.printf("playback failed: %v\n", err)
	}
}

// deleteTake handles "d N" console input. Mistakes are reported but
// never end the session.
func (l *recordLoop) deleteTake(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		l.printf("delete needs a take number, e.g. d 3\n")
		return
	}
	if !l.sess.Done(n) {
		l.printf("take %d has no recording\n", n)
		return
	}
	if err := l.sess.Delete(n); err != nil {
		l.printf("delete failed: %v\n", err)
		return
	}
	if err := l.sess.WriteManifest(); err != nil {
		l.printf("manifest update failed: %v\n", err)
		return
	}
	l.printf("deleted take %d; it is queued for re-recording\n", n)
}

// finish writes the manifest one last time and prints the tally.
func (l *recordLoop) finish() error {
	if err := l.sess.WriteManifest(); err != nil {
		return err
	}
	if l.sess.Finished() {
		l.printf("\nall %d prompts recorded — run `voicebooth promote` to build the dataset\n", l.sess.Len())
	} else {
		l.printf("\n%d of %d prompts recorded; run `voicebooth record` again to continue\n",
			len(l.sess.Completed()), l.sess.Len())
	}
	return nil
}
