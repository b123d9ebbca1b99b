package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// Config holds the complete toolchain configuration
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Brand   BrandConfig   `toml:"brand" yaml:"brand"`
	Voice   VoiceConfig   `toml:"voice" yaml:"voice"`
	Voices  []VoiceConfig `toml:"voices" yaml:"voices"`
	Timing  TimingConfig  `toml:"timing" yaml:"timing"`
	Encoder EncoderConfig `toml:"encoder" yaml:"encoder"`
	History HistoryConfig `toml:"history" yaml:"history"`
	Publish PublishConfig `toml:"publish" yaml:"publish"`
	Types   []TypeConfig  `toml:"types" yaml:"types"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name" yaml:"name"`
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	OutputDir string `toml:"output_dir" yaml:"output_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	KeepTemp  bool   `toml:"keep_temp" yaml:"keep_temp"`
}

// BrandConfig holds the shared visual identity: canvas geometry, fonts
// and text metrics. It is passed by value into the renderer so a stage
// never reads brand state from anywhere else.
type BrandConfig struct {
	Width       int     `toml:"width" yaml:"width"`
	Height      int     `toml:"height" yaml:"height"`
	FPS         int     `toml:"fps" yaml:"fps"`
	Margin      int     `toml:"margin" yaml:"margin"`
	TitleFont   string  `toml:"title_font" yaml:"title_font"`
	BodyFont    string  `toml:"body_font" yaml:"body_font"`
	TitleSize   float64 `toml:"title_size" yaml:"title_size"`
	BodySize    float64 `toml:"body_size" yaml:"body_size"`
	LineSpacing int     `toml:"line_spacing" yaml:"line_spacing"`
}

// VoiceConfig holds the narration settings of one voice profile. The
// [voice] table is the default profile; additional named profiles live
// in [[voices]] and are selected with --voice.
type VoiceConfig struct {
	Name        string   `toml:"name" yaml:"name"`
	Engine      string   `toml:"engine" yaml:"engine"`
	Model       string   `toml:"model" yaml:"model"`
	Binary      string   `toml:"binary" yaml:"binary"`
	URL         string   `toml:"url" yaml:"url"`
	SampleRate  int      `toml:"sample_rate" yaml:"sample_rate"`
	LengthScale float64  `toml:"length_scale" yaml:"length_scale"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
	AllowSilent bool     `toml:"allow_silent" yaml:"allow_silent"`
}

// TimingConfig holds plan reconciliation settings. Per-type section
// durations live on the type records; these knobs govern how measured
// narration length is folded back into the plan.
type TimingConfig struct {
	Reconcile  *bool   `toml:"reconcile" yaml:"reconcile"`
	MinSection float64 `toml:"min_section" yaml:"min_section"`
}

// ReconcileEnabled reports whether measured narration duration is
// folded back into the timeline. On unless explicitly disabled.
func (t TimingConfig) ReconcileEnabled() bool {
	return t.Reconcile == nil || *t.Reconcile
}

// EncoderConfig holds external encoder settings
type EncoderConfig struct {
	FFmpeg       string   `toml:"ffmpeg" yaml:"ffmpeg"`
	FFprobe      string   `toml:"ffprobe" yaml:"ffprobe"`
	Preset       string   `toml:"preset" yaml:"preset"`
	CRF          int      `toml:"crf" yaml:"crf"`
	PixelFormat  string   `toml:"pixel_format" yaml:"pixel_format"`
	AudioBitrate string   `toml:"audio_bitrate" yaml:"audio_bitrate"`
	Faststart    bool     `toml:"faststart" yaml:"faststart"`
	Timeout      Duration `toml:"timeout" yaml:"timeout"`
}

// HistoryConfig holds the run ledger settings
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// PublishConfig holds upload settings for the publish command
type PublishConfig struct {
	Enabled    bool     `toml:"enabled" yaml:"enabled"`
	Privacy    string   `toml:"privacy" yaml:"privacy"`
	CategoryID string   `toml:"category_id" yaml:"category_id"`
	Tags       []string `toml:"tags" yaml:"tags"`
}

// TypeConfig describes one content type as a configuration record:
// where its pack lives, which JSON fields carry the text, how frames
// are colored and how long each section runs.
type TypeConfig struct {
	Name  string `toml:"name" yaml:"name"`
	Label string `toml:"label" yaml:"label"`
	Pack  string `toml:"pack" yaml:"pack"`

	// JSON field names in the pack file. ItemsField names the
	// top-level array; when empty the loader tries "items" and the
	// type name, so {"tips": [...]} works without configuration.
	ItemsField   string `toml:"items_field" yaml:"items_field"`
	HookField    string `toml:"hook_field" yaml:"hook_field"`
	BodyField    string `toml:"body_field" yaml:"body_field"`
	ClosingField string `toml:"closing_field" yaml:"closing_field"`

	// Palette
	Background     string `toml:"background" yaml:"background"` // gradient | solid
	GradientTop    string `toml:"gradient_top" yaml:"gradient_top"`
	GradientBottom string `toml:"gradient_bottom" yaml:"gradient_bottom"`
	SolidColor     string `toml:"solid_color" yaml:"solid_color"`
	TextColor      string `toml:"text_color" yaml:"text_color"`
	AccentColor    string `toml:"accent_color" yaml:"accent_color"`

	// Fixed slide between hook and body, e.g. "The truth?". Only
	// planned when TransitionText is set and Timing.Transition > 0.
	TransitionText string `toml:"transition_text" yaml:"transition_text"`

	// Section durations in seconds
	Timing SectionTiming `toml:"timing" yaml:"timing"`

	// Crossfade between adjacent clips in seconds; 0 means hard cut
	Crossfade float64 `toml:"crossfade" yaml:"crossfade"`
}

// SectionTiming holds the per-section duration table in seconds
type SectionTiming struct {
	Hook       float64 `toml:"hook" yaml:"hook"`
	Transition float64 `toml:"transition" yaml:"transition"`
	Body       float64 `toml:"body" yaml:"body"`
	Closing    float64 `toml:"closing" yaml:"closing"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string (used by the TOML decoder)
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration string (yaml.v3 does not consult
// encoding.TextUnmarshaler, so this is needed for YAML configs)
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var err error
	d.Duration, err = time.ParseDuration(raw)
	return err
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kiinerrors.New(fmt.Sprintf("config file not found: %s", path)).
				WithCode(kiinerrors.CodeMissingConfig).
				WithDetail("path", path)
		}
		return nil, kiinerrors.Wrap(err, "failed to read config").
			WithCode(kiinerrors.CodeConfig).
			WithDetail("path", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, kiinerrors.Wrap(err, "failed to parse YAML config").
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("path", path)
		}
	default:
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return nil, kiinerrors.Wrap(err, "failed to parse TOML config").
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("path", path)
		}
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from the KIIN_CONFIG environment
// variable, falling back to the default locations
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("KIIN_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/kiin.toml",
			"./kiin.toml",
			filepath.Join(os.Getenv("HOME"), ".config/kiin/kiin.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, kiinerrors.New("no config file found, set KIIN_CONFIG or create configs/kiin.toml").
			WithCode(kiinerrors.CodeMissingConfig)
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "kiin"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.OutputDir == "" {
		c.General.OutputDir = "./output"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "console"
	}

	// Brand: portrait 1080x1920 at 30fps is the platform baseline
	if c.Brand.Width == 0 {
		c.Brand.Width = 1080
	}
	if c.Brand.Height == 0 {
		c.Brand.Height = 1920
	}
	if c.Brand.FPS == 0 {
		c.Brand.FPS = 30
	}
	if c.Brand.Margin == 0 {
		c.Brand.Margin = 96
	}
	if c.Brand.TitleSize == 0 {
		c.Brand.TitleSize = 88
	}
	if c.Brand.BodySize == 0 {
		c.Brand.BodySize = 64
	}
	if c.Brand.LineSpacing == 0 {
		c.Brand.LineSpacing = 18
	}

	// Voice profiles
	if c.Voice.Name == "" {
		c.Voice.Name = "default"
	}
	applyVoiceDefaults(&c.Voice)
	for i := range c.Voices {
		applyVoiceDefaults(&c.Voices[i])
	}

	// Timing
	if c.Timing.MinSection == 0 {
		c.Timing.MinSection = 0.5
	}

	// Encoder
	if c.Encoder.FFmpeg == "" {
		c.Encoder.FFmpeg = "ffmpeg"
	}
	if c.Encoder.FFprobe == "" {
		c.Encoder.FFprobe = "ffprobe"
	}
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = "fast"
	}
	if c.Encoder.CRF == 0 {
		c.Encoder.CRF = 22
	}
	if c.Encoder.PixelFormat == "" {
		c.Encoder.PixelFormat = "yuv420p"
	}
	if c.Encoder.AudioBitrate == "" {
		c.Encoder.AudioBitrate = "192k"
	}
	if c.Encoder.Timeout.Duration == 0 {
		c.Encoder.Timeout.Duration = 120 * time.Second
	}

	// History
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.General.DataDir, "kiin.db")
	}

	// Publish
	if c.Publish.Privacy == "" {
		c.Publish.Privacy = "private"
	}
	if c.Publish.CategoryID == "" {
		c.Publish.CategoryID = "22"
	}

	// Types
	for i := range c.Types {
		t := &c.Types[i]
		if t.Label == "" {
			t.Label = t.Name
		}
		if t.HookField == "" {
			t.HookField = "hook"
		}
		if t.BodyField == "" {
			t.BodyField = "body_text"
		}
		if t.ClosingField == "" {
			t.ClosingField = "closing_text"
		}
		if t.Background == "" {
			t.Background = "gradient"
		}
		if t.TextColor == "" {
			t.TextColor = "#FFFFFF"
		}
		if t.Timing.Hook == 0 {
			t.Timing.Hook = 3.0
		}
		if t.Timing.Body == 0 {
			t.Timing.Body = 8.0
		}
		if t.Timing.Closing == 0 {
			t.Timing.Closing = 4.0
		}
	}
}

// applyVoiceDefaults fills the per-profile defaults
func applyVoiceDefaults(v *VoiceConfig) {
	if v.Engine == "" {
		v.Engine = "piper"
	}
	if v.Binary == "" && (v.Engine == "piper" || v.Engine == "command") {
		v.Binary = "piper"
	}
	if v.SampleRate == 0 {
		v.SampleRate = 22050
	}
	if v.LengthScale == 0 {
		v.LengthScale = 1.0
	}
	if v.Timeout.Duration == 0 {
		v.Timeout.Duration = 60 * time.Second
	}
}

// expandEnvVars expands environment variables in path-like values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.OutputDir = os.ExpandEnv(c.General.OutputDir)
	c.Brand.TitleFont = os.ExpandEnv(c.Brand.TitleFont)
	c.Brand.BodyFont = os.ExpandEnv(c.Brand.BodyFont)
	c.Voice.Model = os.ExpandEnv(c.Voice.Model)
	c.Voice.Binary = os.ExpandEnv(c.Voice.Binary)
	for i := range c.Voices {
		c.Voices[i].Model = os.ExpandEnv(c.Voices[i].Model)
		c.Voices[i].Binary = os.ExpandEnv(c.Voices[i].Binary)
	}
	c.History.Path = os.ExpandEnv(c.History.Path)
	for i := range c.Types {
		c.Types[i].Pack = os.ExpandEnv(c.Types[i].Pack)
	}
}

// Validate checks the configuration for structural problems that would
// only surface mid-pipeline otherwise
func (c *Config) Validate() error {
	if len(c.Types) == 0 {
		return kiinerrors.New("no content types configured").
			WithCode(kiinerrors.CodeMissingField).
			WithDetail("field", "types")
	}

	seen := make(map[string]bool, len(c.Types))
	for i := range c.Types {
		t := &c.Types[i]
		if t.Name == "" {
			return kiinerrors.New(fmt.Sprintf("content type %d has no name", i)).
				WithCode(kiinerrors.CodeMissingField).
				WithDetail("field", "types.name")
		}
		if seen[t.Name] {
			return kiinerrors.New(fmt.Sprintf("duplicate content type %q", t.Name)).
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("type", t.Name)
		}
		seen[t.Name] = true

		if t.Pack == "" {
			return kiinerrors.New(fmt.Sprintf("content type %q has no pack file", t.Name)).
				WithCode(kiinerrors.CodeMissingField).
				WithDetail("type", t.Name).
				WithDetail("field", "types.pack")
		}
		if t.Background != "gradient" && t.Background != "solid" {
			return kiinerrors.New(fmt.Sprintf("content type %q has unknown background %q", t.Name, t.Background)).
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("type", t.Name)
		}
		if t.Background == "gradient" && (t.GradientTop == "" || t.GradientBottom == "") {
			return kiinerrors.New(fmt.Sprintf("content type %q uses gradient background without gradient colors", t.Name)).
				WithCode(kiinerrors.CodeMissingField).
				WithDetail("type", t.Name)
		}
		if t.Background == "solid" && t.SolidColor == "" {
			return kiinerrors.New(fmt.Sprintf("content type %q uses solid background without solid_color", t.Name)).
				WithCode(kiinerrors.CodeMissingField).
				WithDetail("type", t.Name)
		}
		if t.Timing.Hook <= 0 || t.Timing.Body <= 0 || t.Timing.Closing <= 0 {
			return kiinerrors.New(fmt.Sprintf("content type %q has non-positive section durations", t.Name)).
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("type", t.Name)
		}
		if t.TransitionText != "" && t.Timing.Transition <= 0 {
			return kiinerrors.New(fmt.Sprintf("content type %q has transition text but no transition duration", t.Name)).
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("type", t.Name)
		}
		if t.Crossfade < 0 {
			return kiinerrors.New(fmt.Sprintf("content type %q has negative crossfade", t.Name)).
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("type", t.Name)
		}
	}

	if c.Brand.Width <= 0 || c.Brand.Height <= 0 {
		return kiinerrors.New("brand canvas dimensions must be positive").
			WithCode(kiinerrors.CodeInvalidConfig)
	}
	if 2*c.Brand.Margin >= c.Brand.Width {
		return kiinerrors.New("brand margin leaves no room for text").
			WithCode(kiinerrors.CodeInvalidConfig).
			WithDetail("margin", c.Brand.Margin).
			WithDetail("width", c.Brand.Width)
	}

	if err := validateVoice(c.Voice); err != nil {
		return err
	}
	names := map[string]bool{c.Voice.Name: true}
	for i := range c.Voices {
		v := c.Voices[i]
		if v.Name == "" {
			return kiinerrors.New(fmt.Sprintf("voice profile %d has no name", i)).
				WithCode(kiinerrors.CodeMissingField).
				WithDetail("field", "voices.name")
		}
		if names[v.Name] {
			return kiinerrors.New(fmt.Sprintf("duplicate voice profile %q", v.Name)).
				WithCode(kiinerrors.CodeInvalidConfig).
				WithDetail("voice", v.Name)
		}
		names[v.Name] = true
		if err := validateVoice(v); err != nil {
			return err
		}
	}

	return nil
}

func validateVoice(v VoiceConfig) error {
	switch v.Engine {
	case "piper", "command", "http", "silent":
		return nil
	default:
		return kiinerrors.New(fmt.Sprintf("voice profile %q has unknown engine %q", v.Name, v.Engine)).
			WithCode(kiinerrors.CodeInvalidConfig).
			WithDetail("voice", v.Name).
			WithDetail("engine", v.Engine)
	}
}

// Type returns the configuration record for a content type by name
func (c *Config) Type(name string) (*TypeConfig, error) {
	for i := range c.Types {
		if c.Types[i].Name == name {
			return &c.Types[i], nil
		}
	}
	return nil, kiinerrors.New(fmt.Sprintf("unknown content type %q", name)).
		WithCode(kiinerrors.CodeNotFound).
		WithDetail("type", name)
}

// TypeNames returns the names of all configured content types
func (c *Config) TypeNames() []string {
	names := make([]string, 0, len(c.Types))
	for _, t := range c.Types {
		names = append(names, t.Name)
	}
	return names
}

// VoiceProfile returns the voice profile with the given name. An empty
// name selects the default profile.
func (c *Config) VoiceProfile(name string) (VoiceConfig, error) {
	if name == "" || name == c.Voice.Name {
		return c.Voice, nil
	}
	for _, v := range c.Voices {
		if v.Name == name {
			return v, nil
		}
	}
	return VoiceConfig{}, kiinerrors.New(fmt.Sprintf("unknown voice profile %q", name)).
		WithCode(kiinerrors.CodeNotFound).
		WithDetail("voice", name)
}

// VoiceProfiles returns the default profile followed by the named ones
func (c *Config) VoiceProfiles() []VoiceConfig {
	out := make([]VoiceConfig, 0, len(c.Voices)+1)
	out = append(out, c.Voice)
	out = append(out, c.Voices...)
	return out
}
