// Package config loads tagedit service settings from defaults, a YAML file,
// TAGEDIT_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// TAGEDIT_LISTEN_ADDR or TAGEDIT_BRANDING_TITLE_SUFFIX.
const EnvPrefix = "TAGEDIT"

// Config holds every setting of the HTTP service and the CLI.
type Config struct {
	ListenAddr     string    `mapstructure:"listen_addr" yaml:"listen_addr"`
	UploadDir      string    `mapstructure:"upload_dir" yaml:"upload_dir"`
	PublicURL      string    `mapstructure:"public_url" yaml:"public_url"`
	MaxUploadSize  int64     `mapstructure:"max_upload_size" yaml:"max_upload_size"`
	AllowedOrigins []string  `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	LogLevel       string    `mapstructure:"log_level" yaml:"log_level"`
	LogFormat      string    `mapstructure:"log_format" yaml:"log_format"`
	FFmpegPath     string    `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	Bitrate        string    `mapstructure:"bitrate" yaml:"bitrate"`
	Watermark      Watermark `mapstructure:"watermark" yaml:"watermark"`
	Branding       Branding  `mapstructure:"branding" yaml:"branding"`
}

// Watermark configures the text stamped onto covers on request.
type Watermark struct {
	Text      string `mapstructure:"text" yaml:"text"`
	MaxPixels int64  `mapstructure:"max_pixels" yaml:"max_pixels"`
}

// Branding configures the optional rewrite applied to records before
// writing. Empty values disable it.
type Branding struct {
	TitleSuffix string `mapstructure:"title_suffix" yaml:"title_suffix"`
	Fill        string `mapstructure:"fill" yaml:"fill"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		UploadDir:      "./uploads",
		PublicURL:      "",
		MaxUploadSize:  50 << 20,
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
		LogFormat:      "text",
		FFmpegPath:     "ffmpeg",
		Bitrate:        "192k",
		Watermark:      Watermark{Text: "tagedit", MaxPixels: 8192 * 8192},
	}
}

// defaults lists every setting with its default, so that viper knows about
// keys that only ever arrive through the environment.
func defaults(c Config) map[string]any {
	return map[string]any{
		"listen_addr":           c.ListenAddr,
		"upload_dir":            c.UploadDir,
		"public_url":            c.PublicURL,
		"max_upload_size":       c.MaxUploadSize,
		"allowed_origins":       c.AllowedOrigins,
		"log_level":             c.LogLevel,
		"log_format":            c.LogFormat,
		"ffmpeg_path":           c.FFmpegPath,
		"bitrate":               c.Bitrate,
		"watermark.text":        c.Watermark.Text,
		"watermark.max_pixels":  c.Watermark.MaxPixels,
		"branding.title_suffix": c.Branding.TitleSuffix,
		"branding.fill":         c.Branding.Fill,
	}
}

// RegisterFlags adds the service flags to fs. Flag names use dashes; they
// bind to the underscore keys above.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("listen-addr", d.ListenAddr, "HTTP listen address")
	fs.String("upload-dir", d.UploadDir, "directory for stored uploads")
	fs.String("public-url", d.PublicURL, "URL prefix for stored files (empty: relative)")
	fs.Int64("max-upload-size", d.MaxUploadSize, "maximum upload size in bytes")
	fs.StringSlice("allowed-origins", d.AllowedOrigins, "CORS allowed origins")
	fs.String("ffmpeg-path", d.FFmpegPath, "ffmpeg binary name or path")
	fs.String("bitrate", d.Bitrate, "MP3 bitrate used by the transcoder")
}

// RegisterLogFlags adds the logging flags to fs.
func RegisterLogFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "log format (text, json)")
}

// Load resolves the configuration. path may be empty; fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults(Default()) {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := defaults(Default())[key]; !known {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxUploadSize <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_size must be positive, got %d", c.MaxUploadSize))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload_dir must not be empty"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.Watermark.MaxPixels <= 0 {
		errs = append(errs, fmt.Errorf("watermark.max_pixels must be positive, got %d", c.Watermark.MaxPixels))
	}
	if c.Bitrate == "" {
		errs = append(errs, errors.New("bitrate must not be empty"))
	}
	return errors.Join(errs...)
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
