package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	ExportDir  string `toml:"export_dir"`
	SocketPath string `toml:"socket_path"`
}

// Camera contains configuration for the capture source.
type Camera struct {
	Device         string `toml:"device"`
	FrameInterval  int    `toml:"frame_interval"`
	HotplugMonitor bool   `toml:"hotplug_monitor"`
}

// Remote contains configuration for the remote attention-analysis service.
type Remote struct {
	Enabled                    bool    `toml:"enabled"`
	APIKey                     string  `toml:"api_key"`
	BaseURL                    string  `toml:"base_url"`
	Model                      string  `toml:"model"`
	TimeoutSeconds             int     `toml:"timeout_seconds"`
	DailyQuota                 int     `toml:"daily_quota"`
	MinRequestIntervalSeconds  int     `toml:"min_request_interval_seconds"`
	LowConfidenceThreshold     float64 `toml:"low_confidence_threshold"`
	ComplexConfidenceThreshold float64 `toml:"complex_confidence_threshold"`
	ExplorationShare           float64 `toml:"exploration_share"`
	MaxOutputTokens            int     `toml:"max_output_tokens"`
	Temperature                float64 `toml:"temperature"`
}

// Fusion contains the fusion engine weights and cadence settings.
type Fusion struct {
	DebounceMillis          int     `toml:"debounce_millis"`
	HistoryLimit            int     `toml:"history_limit"`
	RemoteTriggerConfidence float64 `toml:"remote_trigger_confidence"`
	RemoteInfluenceCap      float64 `toml:"remote_influence_cap"`
	FaceWeight              float64 `toml:"face_weight"`
	ClassifierWeight        float64 `toml:"classifier_weight"`
	EnvironmentWeight       float64 `toml:"environment_weight"`
	BehavioralWeight        float64 `toml:"behavioral_weight"`
}

// Performance contains the adaptive processing controller cadence.
type Performance struct {
	TickSeconds      int `toml:"tick_seconds"`
	PowerPollSeconds int `toml:"power_poll_seconds"`
}

// Patterns contains behavioral pattern mining settings.
type Patterns struct {
	MiningIntervalSeconds int `toml:"mining_interval_seconds"`
	MiningTriggerCount    int `toml:"mining_trigger_count"`
	MinResults            int `toml:"min_results"`
	RetentionDays         int `toml:"retention_days"`
}

// Session contains session bookkeeping settings.
type Session struct {
	SaveIntervalSeconds int `toml:"save_interval_seconds"`
}

// Notifications contains configuration for ntfy push nudges.
type Notifications struct {
	NtfyTopic             string  `toml:"ntfy_topic"`
	RequestTimeout        int     `toml:"request_timeout"`
	FocusDropThreshold    float64 `toml:"focus_drop_threshold"`
	FocusDropDwellSeconds int     `toml:"focus_drop_dwell_seconds"`
	BreakAfterMinutes     int     `toml:"break_after_minutes"`
	DedupWindowSeconds    int     `toml:"dedup_window_seconds"`
	Errors                bool    `toml:"errors"`
}

// Logging contains log output configuration.
type Logging struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	RetentionDays int    `toml:"retention_days"`
}

// Config is the root configuration document.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Camera        Camera        `toml:"camera"`
	Remote        Remote        `toml:"remote"`
	Fusion        Fusion        `toml:"fusion"`
	Performance   Performance   `toml:"performance"`
	Patterns      Patterns      `toml:"patterns"`
	Session       Session       `toml:"session"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// APIKeyEnvVar is consulted when [remote].api_key is empty.
const APIKeyEnvVar = "NUDGE_API_KEY"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/nudge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(expanded); err == nil {
		return "", fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}

func (c *Config) normalize() error {
	pathFields := []*string{
		&c.Paths.DataDir,
		&c.Paths.LogDir,
		&c.Paths.ExportDir,
		&c.Paths.SocketPath,
	}
	for _, field := range pathFields {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	if strings.TrimSpace(c.Remote.APIKey) == "" {
		c.Remote.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnvVar))
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// Validate checks invariants that would otherwise surface as runtime faults.
func (c *Config) Validate() error {
	var problems []string

	if c.Camera.FrameInterval < 1 {
		problems = append(problems, "camera.frame_interval must be >= 1")
	}
	if c.Fusion.HistoryLimit < 1 {
		problems = append(problems, "fusion.history_limit must be >= 1")
	}
	weightSum := c.Fusion.FaceWeight + c.Fusion.ClassifierWeight + c.Fusion.EnvironmentWeight + c.Fusion.BehavioralWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		problems = append(problems, fmt.Sprintf("fusion weights must sum to 1.0 (got %.3f)", weightSum))
	}
	if c.Fusion.RemoteInfluenceCap < 0 || c.Fusion.RemoteInfluenceCap > 1 {
		problems = append(problems, "fusion.remote_influence_cap must be within [0, 1]")
	}
	if c.Remote.DailyQuota < 1 {
		problems = append(problems, "remote.daily_quota must be >= 1")
	}
	if c.Remote.ExplorationShare < 0 || c.Remote.ExplorationShare > 1 {
		problems = append(problems, "remote.exploration_share must be within [0, 1]")
	}
	if c.Patterns.MinResults < 1 {
		problems = append(problems, "patterns.min_results must be >= 1")
	}
	if c.Session.SaveIntervalSeconds < 1 {
		problems = append(problems, "session.save_interval_seconds must be >= 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EnsureDirectories creates the data, log, and export directories if missing.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ExportDir}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the daemon control socket path, defaulting under the log dir.
func (c *Config) SocketPath() string {
	if strings.TrimSpace(c.Paths.SocketPath) != "" {
		return c.Paths.SocketPath
	}
	return filepath.Join(c.Paths.LogDir, "nudged.sock")
}

// RemoteConfigured reports whether a remote credential is available.
func (c *Config) RemoteConfigured() bool {
	return c.Remote.Enabled && strings.TrimSpace(c.Remote.APIKey) != ""
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
