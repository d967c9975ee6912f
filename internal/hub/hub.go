// Package hub downloads published piper artifacts: ready-made voices
// from the rhasspy/piper-voices repository and pretrained training
// checkpoints from the rhasspy/piper-checkpoints dataset.
//
// Downloads are atomic (a .part file renamed into place) and files
// already present are left alone, so re-running a fetch is cheap and
// never truncates a good download.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/voicebooth/voicebooth/internal/config"
)

// Voice identifies a published piper voice, e.g. "en_US-lessac-medium".
type Voice struct {
	Locale  string // "en_US"
	Name    string // "lessac"
	Quality string // "x_low", "low", "medium" or "high"
}

// ParseVoice splits a reference of the form <locale>-<name>-<quality>.
func ParseVoice(ref string) (Voice, error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Voice{}, fmt.Errorf("voice reference %q: want <locale>-<name>-<quality>, e.g. en_US-lessac-medium", ref)
	}
	if !strings.Contains(parts[0], "_") {
		return Voice{}, fmt.Errorf("voice reference %q: locale must look like en_US", ref)
	}
	return Voice{Locale: parts[0], Name: parts[1], Quality: parts[2]}, nil
}

// Ref returns the canonical reference string.
func (v Voice) Ref() string {
	return v.Locale + "-" + v.Name + "-" + v.Quality
}

// Lang returns the bare language code, "en" for "en_US".
func (v Voice) Lang() string {
	lang, _, _ := strings.Cut(v.Locale, "_")
	return lang
}

// dir returns the repository subpath holding the voice's files.
func (v Voice) dir() string {
	return path.Join(v.Lang(), v.Locale, v.Name, v.Quality)
}

// ModelURL returns the download URL for the .onnx voice model.
func (v Voice) ModelURL(base string) string {
	return base + "/rhasspy/piper-voices/resolve/main/" + v.dir() + "/" + v.Ref() + ".onnx"
}

// ConfigURL returns the download URL for the model's JSON config.
func (v Voice) ConfigURL(base string) string {
	return v.ModelURL(base) + ".json"
}

// CheckpointURL returns the download URL for a named training
// checkpoint belonging to the voice.
func (v Voice) CheckpointURL(base, file string) string {
	return base + "/datasets/rhasspy/piper-checkpoints/resolve/main/" + v.dir() + "/" + file
}

// Client fetches artifacts from the hub.
type Client struct {
	base string
	http *resty.Client
}

// New builds a Client from config. The token, when set, rides along as
// a bearer credential for gated repositories.
func New(cfg config.HubConfig) *Client {
	c := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("User-Agent", "voicebooth")
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &Client{
		base: strings.TrimSuffix(cfg.BaseURL, "/"),
		http: c,
	}
}

// FetchVoice downloads a voice's model and config into destDir,
// concurrently, and returns the two local paths.
func (c *Client) FetchVoice(ctx context.Context, ref, destDir string) (model, modelCfg string, err error) {
	v, err := ParseVoice(ref)
	if err != nil {
		return "", "", err
	}
	model = filepath.Join(destDir, v.Ref()+".onnx")
	modelCfg = filepath.Join(destDir, v.Ref()+".onnx.json")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Download(ctx, v.ModelURL(c.base), model) })
	g.Go(func() error { return c.Download(ctx, v.ConfigURL(c.base), modelCfg) })
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return model, modelCfg, nil
}

// FetchCheckpoint downloads a pretrained checkpoint into destDir and
// returns its local path. file is either a checkpoint filename inside
// the voice's checkpoint directory, or a full URL, in which case ref
// is ignored.
func (c *Client) FetchCheckpoint(ctx context.Context, ref, file, destDir string) (string, error) {
	url := file
	if !strings.HasPrefix(file, "http://") && !strings.HasPrefix(file, "https://") {
		v, err := ParseVoice(ref)
		if err != nil {
			return "", err
		}
		url = v.CheckpointURL(c.base, file)
	}

	dest := filepath.Join(destDir, path.Base(url))
	if err := c.Download(ctx, url, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Download fetches url into dest. An existing dest is kept as is; the
// body streams to dest+".part" and only a complete download is renamed
// over.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	name := filepath.Base(dest)
	if _, err := os.Stat(dest); err == nil {
		slog.Info("already downloaded", "file", name)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	slog.Info("downloading", "file", name, "url", url)
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", name, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("fetching %s: HTTP %d", name, resp.StatusCode())
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(part), err)
	}
	written, err := io.Copy(f, body)
	if err != nil {
		f.Close()
		os.Remove(part)
		return fmt.Errorf("saving %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return fmt.Errorf("placing %s: %w", name, err)
	}

	slog.Info("downloaded", "file", name, "bytes", written)
	return nil
}
