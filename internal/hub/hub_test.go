package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicebooth/voicebooth/internal/config"
)

func testClient(baseURL string) *Client {
	return New(config.HubConfig{BaseURL: baseURL, TimeoutSeconds: 5})
}

func TestParseVoice(t *testing.T) {
	tests := []struct {
		ref     string
		want    Voice
		wantErr bool
	}{
		{ref: "en_US-lessac-medium", want: Voice{Locale: "en_US", Name: "lessac", Quality: "medium"}},
		{ref: "es_ES-mls_10246-low", want: Voice{Locale: "es_ES", Name: "mls_10246", Quality: "low"}},
		{ref: "de_DE-thorsten_emotional-medium", want: Voice{Locale: "de_DE", Name: "thorsten_emotional", Quality: "medium"}},
		{ref: "lessac", wantErr: true},
		{ref: "en_US-lessac", wantErr: true},
		{ref: "en-lessac-medium", wantErr: true},
		{ref: "en_US--medium", wantErr: true},
		{ref: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			v, err := ParseVoice(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.ref, v.Ref())
		})
	}
}

func TestVoiceURLs(t *testing.T) {
	v := Voice{Locale: "en_US", Name: "lessac", Quality: "medium"}
	base := "https://huggingface.co"

	assert.Equal(t,
		"https://huggingface.co/rhasspy/piper-voices/resolve/main/en/en_US/lessac/medium/en_US-lessac-medium.onnx",
		v.ModelURL(base))
	assert.Equal(t,
		"https://huggingface.co/rhasspy/piper-voices/resolve/main/en/en_US/lessac/medium/en_US-lessac-medium.onnx.json",
		v.ConfigURL(base))
	assert.Equal(t,
		"https://huggingface.co/datasets/rhasspy/piper-checkpoints/resolve/main/en/en_US/lessac/medium/epoch=2164-step=1355540.ckpt",
		v.CheckpointURL(base, "epoch=2164-step=1355540.ckpt"))
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("model bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "voice.onnx")
	require.NoError(t, testClient(srv.URL).Download(context.Background(), srv.URL+"/voice.onnx", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("model bytes"), got)
	assert.NoFileExists(t, dest+".part")
}

func TestDownloadSkipsExisting(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "voice.onnx")
	require.NoError(t, os.WriteFile(dest, []byte("already here"), 0o644))

	require.NoError(t, testClient(srv.URL).Download(context.Background(), srv.URL+"/voice.onnx", dest))
	assert.Equal(t, int32(0), hits.Load(), "existing files are not re-fetched")

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("already here"), got)
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "voice.onnx")
	err := testClient(srv.URL).Download(context.Background(), srv.URL+"/voice.onnx", dest)

	assert.ErrorContains(t, err, "HTTP 404")
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".part")
}

func TestDownloadSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf_secret", r.Header.Get("Authorization"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := New(config.HubConfig{BaseURL: srv.URL, Token: "hf_secret", TimeoutSeconds: 5})
	dest := filepath.Join(t.TempDir(), "gated.onnx")
	require.NoError(t, client.Download(context.Background(), srv.URL+"/gated.onnx", dest))
}

func TestFetchVoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rhasspy/piper-voices/resolve/main/en/en_US/lessac/medium/en_US-lessac-medium.onnx":
			w.Write([]byte("onnx"))
		case "/rhasspy/piper-voices/resolve/main/en/en_US/lessac/medium/en_US-lessac-medium.onnx.json":
			w.Write([]byte("{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dest := t.TempDir()
	model, modelCfg, err := testClient(srv.URL).FetchVoice(context.Background(), "en_US-lessac-medium", dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "en_US-lessac-medium.onnx"), model)
	assert.Equal(t, filepath.Join(dest, "en_US-lessac-medium.onnx.json"), modelCfg)
	assert.FileExists(t, model)
	assert.FileExists(t, modelCfg)
}

func TestFetchVoiceBadReference(t *testing.T) {
	_, _, err := testClient("http://unused").FetchVoice(context.Background(), "lessac", t.TempDir())
	assert.Error(t, err)
}

func TestFetchCheckpointByReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/rhasspy/piper-checkpoints/resolve/main/en/en_US/lessac/medium/epoch=100.ckpt", r.URL.Path)
		w.Write([]byte("weights"))
	}))
	defer srv.Close()

	dest := t.TempDir()
	got, err := testClient(srv.URL).FetchCheckpoint(context.Background(), "en_US-lessac-medium", "epoch=100.ckpt", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "epoch=100.ckpt"), got)
}

func TestFetchCheckpointByURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("weights"))
	}))
	defer srv.Close()

	dest := t.TempDir()
	got, err := testClient(srv.URL).FetchCheckpoint(context.Background(), "", srv.URL+"/any/path/epoch=5.ckpt", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "epoch=5.ckpt"), got)

	weights, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), weights)
}
