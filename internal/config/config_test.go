package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sentences.txt", cfg.Paths.Prompts)
	assert.Equal(t, "my-training/wav", cfg.Paths.WorkingDir)
	assert.Equal(t, "my-training/dataset", cfg.Paths.DatasetDir)
	assert.Equal(t, "my-model", cfg.Paths.ModelDir)
	assert.Equal(t, 22050, cfg.Audio.SampleRate)
	assert.Equal(t, 30.0, cfg.Audio.MaxTakeSeconds)
	assert.Equal(t, 0.01, cfg.Audio.SilenceThreshold)
	assert.Equal(t, 0.15, cfg.Audio.TargetRMS)
	assert.Equal(t, 0.95, cfg.Audio.PeakCeiling)
	assert.Equal(t, 0.02, cfg.Audio.MinRMS)
	assert.Equal(t, 0.9, cfg.Audio.MaxRMS)
	assert.Equal(t, "default", cfg.Capture.Device)
	assert.Equal(t, "piper", cfg.Piper.Binary)
	assert.Equal(t, []string{"python3", "-m", "piper.train.export_onnx"}, cfg.Export.Command)
	assert.Equal(t, "my-voice", cfg.Export.Voice)
	assert.Equal(t, "https://huggingface.co", cfg.Hub.BaseURL)
	assert.Equal(t, 600, cfg.Hub.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("VOICEBOOTH_AUDIO_SAMPLE_RATE", "16000")
	t.Setenv("VOICEBOOTH_PATHS_WORKING_DIR", "/tmp/takes")
	t.Setenv("VOICEBOOTH_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, "/tmp/takes", cfg.Paths.WorkingDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voicebooth.yaml")
	content := "audio:\n  target_rms: 0.2\npiper:\n  model: /voices/en_US-test.onnx\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Audio.TargetRMS)
	assert.Equal(t, "/voices/en_US-test.onnx", cfg.Piper.Model)
	// Everything else keeps its default.
	assert.Equal(t, 22050, cfg.Audio.SampleRate)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero sample rate", "VOICEBOOTH_AUDIO_SAMPLE_RATE", "0"},
		{"bad log level", "VOICEBOOTH_LOGGING_LEVEL", "verbose"},
		{"bad log format", "VOICEBOOTH_LOGGING_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadResolvesTokenReference(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("TEST_HUB_TOKEN", "hf_secret")
	t.Setenv("VOICEBOOTH_HUB_TOKEN", "${TEST_HUB_TOKEN}")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "hf_secret", cfg.Hub.Token)
}

// chdir switches the working directory for the duration of the test,
// standing in for testing.T.Chdir which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(oldwd))
	})
}

func TestAudioSettings(t *testing.T) {
	a := AudioConfig{
		SilenceThreshold: 0.02,
		MinSpeechSeconds: 0.2,
		TargetRMS:        0.1,
		PeakCeiling:      0.9,
		MinRMS:           0.03,
		MaxRMS:           0.8,
	}
	st := a.Settings()
	assert.Equal(t, 0.02, st.SilenceThreshold)
	assert.Equal(t, 0.2, st.MinSpeech)
	assert.Equal(t, 0.1, st.TargetRMS)
	assert.Equal(t, 0.9, st.PeakCeiling)
	assert.Equal(t, 0.03, st.MinRMS)
	assert.Equal(t, 0.8, st.MaxRMS)
}
