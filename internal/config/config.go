// Package config handles loading and validating the voicebooth configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/voicebooth/voicebooth/internal/dsp"
)

// Config is the root configuration for the voicebooth CLI.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Piper    PiperConfig    `mapstructure:"piper"`
	Export   ExportConfig   `mapstructure:"export"`
	Hub      HubConfig      `mapstructure:"hub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PathsConfig holds every directory and file the tool touches.
type PathsConfig struct {
	Prompts     string `mapstructure:"prompts" validate:"required"`      // sentence list, one prompt per line
	WorkingDir  string `mapstructure:"working_dir" validate:"required"`  // staging area for takes + manifest
	DatasetDir  string `mapstructure:"dataset_dir" validate:"required"`  // promoted dataset the trainer reads
	TrainingDir string `mapstructure:"training_dir" validate:"required"` // training workspace (lightning_logs, config.json)
	ModelDir    string `mapstructure:"model_dir" validate:"required"`    // exported ONNX models land here
}

// AudioConfig holds the capture format and processing thresholds.
type AudioConfig struct {
	SampleRate       int     `mapstructure:"sample_rate" validate:"gt=0"`
	MaxTakeSeconds   float64 `mapstructure:"max_take_seconds" validate:"gt=0"` // hard cap per take
	SilenceThreshold float64 `mapstructure:"silence_threshold" validate:"gte=0"`
	MinSpeechSeconds float64 `mapstructure:"min_speech_seconds" validate:"gte=0"`
	TargetRMS        float64 `mapstructure:"target_rms" validate:"gt=0"`
	PeakCeiling      float64 `mapstructure:"peak_ceiling" validate:"gt=0,lte=1"`
	MinRMS           float64 `mapstructure:"min_rms" validate:"gte=0"` // accept gate: too quiet below this
	MaxRMS           float64 `mapstructure:"max_rms" validate:"gt=0"`  // accept gate: too loud above this
}

// Settings converts the audio thresholds into dsp form.
func (a AudioConfig) Settings() dsp.Settings {
	return dsp.Settings{
		SilenceThreshold: a.SilenceThreshold,
		MinSpeech:        a.MinSpeechSeconds,
		TargetRMS:        a.TargetRMS,
		PeakCeiling:      a.PeakCeiling,
		MinRMS:           a.MinRMS,
		MaxRMS:           a.MaxRMS,
	}
}

// CaptureConfig selects the OS capture tool. With an empty Binary an
// OS-appropriate default is used (arecord on Linux, sox's rec elsewhere).
type CaptureConfig struct {
	Binary string   `mapstructure:"binary"`
	Args   []string `mapstructure:"args"`
	Device string   `mapstructure:"device"` // input device name for the default tool
}

// PlaybackConfig selects the WAV playback tool. With an empty Binary an
// OS-appropriate default is used (aplay on Linux, afplay on macOS).
type PlaybackConfig struct {
	Binary string `mapstructure:"binary"`
}

// PiperConfig holds the piper CLI settings used for test synthesis.
type PiperConfig struct {
	Binary      string  `mapstructure:"binary" validate:"required"`
	Model       string  `mapstructure:"model"`        // path to the .onnx voice
	Config      string  `mapstructure:"config"`       // path to the .onnx.json (default: model + ".json")
	LengthScale float64 `mapstructure:"length_scale"` // speaking rate; 0 leaves piper's default
	NoiseScale  float64 `mapstructure:"noise_scale"`  // speech variation; 0 leaves piper's default
	NoiseW      float64 `mapstructure:"noise_w"`      // phoneme duration variation; 0 leaves piper's default
}

// ExportConfig holds the checkpoint-to-ONNX exporter settings.
type ExportConfig struct {
	Command []string `mapstructure:"command" validate:"min=1"` // exporter argv prefix
	Voice   string   `mapstructure:"voice" validate:"required"`
}

// HubConfig holds model hub download settings.
type HubConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	Token          string `mapstructure:"token"` // optional bearer token, supports "${HF_TOKEN}" references
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./voicebooth.yaml, ./configs/voicebooth.yaml,
// $HOME/.config/voicebooth/voicebooth.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("paths.prompts", "sentences.txt")
	v.SetDefault("paths.working_dir", "my-training/wav")
	v.SetDefault("paths.dataset_dir", "my-training/dataset")
	v.SetDefault("paths.training_dir", "my-training")
	v.SetDefault("paths.model_dir", "my-model")
	v.SetDefault("audio.sample_rate", 22050)
	v.SetDefault("audio.max_take_seconds", 30.0)
	v.SetDefault("audio.silence_threshold", dsp.DefaultSilenceThreshold)
	v.SetDefault("audio.min_speech_seconds", dsp.DefaultMinSpeech)
	v.SetDefault("audio.target_rms", dsp.DefaultTargetRMS)
	v.SetDefault("audio.peak_ceiling", dsp.DefaultPeakCeiling)
	v.SetDefault("audio.min_rms", dsp.DefaultMinRMS)
	v.SetDefault("audio.max_rms", dsp.DefaultMaxRMS)
	v.SetDefault("capture.binary", "")
	v.SetDefault("capture.args", []string{})
	v.SetDefault("capture.device", "default")
	v.SetDefault("playback.binary", "")
	v.SetDefault("piper.binary", "piper")
	v.SetDefault("piper.model", "")
	v.SetDefault("piper.config", "")
	v.SetDefault("piper.length_scale", 0.0)
	v.SetDefault("piper.noise_scale", 0.0)
	v.SetDefault("piper.noise_w", 0.0)
	v.SetDefault("export.command", []string{"python3", "-m", "piper.train.export_onnx"})
	v.SetDefault("export.voice", "my-voice")
	v.SetDefault("hub.base_url", "https://huggingface.co")
	v.SetDefault("hub.token", "")
	v.SetDefault("hub.timeout_seconds", 600)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voicebooth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/voicebooth")
	}

	// Environment variables: VOICEBOOTH_AUDIO_SAMPLE_RATE, VOICEBOOTH_HUB_TOKEN, etc.
	v.SetEnvPrefix("VOICEBOOTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${HF_TOKEN}")
	cfg.Hub.Token = resolveEnvRef(cfg.Hub.Token)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
