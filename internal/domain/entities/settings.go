package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxRetries   = 3
	DefaultDelaySeconds = 10
	DefaultMaxPackageMB = 90

	PlatformNetlify = "netlify"
	PlatformRender  = "render"
	PlatformGitHub  = "github"
)

// DefaultRetryDelays is the backoff schedule in seconds; the last value repeats.
//
//nolint:gochecknoglobals // read-only default
var DefaultRetryDelays = []int{5, 10, 20, 40, 60}

// Settings is the immutable configuration of one batch run. Build it once with
// NewSettings, then derive variants with WithOverrides.
type Settings struct {
	Platforms    []string        `yaml:"platforms"`
	MaxRetries   int             `yaml:"max_retries"`
	RetryDelays  []int           `yaml:"retry_delays"`
	DelaySeconds int             `yaml:"delay_seconds"`
	MaxPackageMB int             `yaml:"max_package_mb"`
	Netlify      NetlifySettings `yaml:"netlify"`
	Render       RenderSettings  `yaml:"render"`
	GitHub       GitHubSettings  `yaml:"github"`
}

// NetlifySettings holds Netlify credentials. Token accepts inline, ${ENV_VAR} or a file path.
type NetlifySettings struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

// RenderSettings holds Render credentials. An empty OwnerID is resolved from the API.
type RenderSettings struct {
	Token   string `yaml:"token"`
	OwnerID string `yaml:"owner_id"`
	APIURL  string `yaml:"api_url"`
}

// GitHubSettings holds the GitHub token used for Pages and for cloning.
type GitHubSettings struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

// Overrides carries command-line values; zero values leave the settings untouched.
type Overrides struct {
	Platforms    []string
	MaxRetries   *int
	DelaySeconds *int
	MaxPackageMB *int
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// DefaultSettings returns the built-in defaults with tokens taken from the environment.
func DefaultSettings() *Settings {
	s := baseSettings()
	s.applyDefaults()
	return s
}

// baseSettings holds the numeric defaults. YAML is decoded on top of it, so a
// key that is present, even with 0, replaces the default.
func baseSettings() *Settings {
	return &Settings{
		MaxRetries:   DefaultMaxRetries,
		DelaySeconds: DefaultDelaySeconds,
		MaxPackageMB: DefaultMaxPackageMB,
	}
}

// NewSettings reads a YAML configuration file, expands environment variables,
// resolves token file paths and fills unset values with defaults. An empty path
// yields DefaultSettings.
func NewSettings(path string) (*Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	settings := *baseSettings()
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.Netlify.Token = resolveToken(settings.Netlify.Token)
	settings.Render.Token = resolveToken(settings.Render.Token)
	settings.Render.OwnerID = resolveToken(settings.Render.OwnerID)
	settings.GitHub.Token = resolveToken(settings.GitHub.Token)
	settings.applyDefaults()

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".hostpipe.yaml",
		".hostpipe.yml",
		"hostpipe.yaml",
		"hostpipe.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// WithOverrides returns a copy of the settings with command-line values applied.
func (s *Settings) WithOverrides(o Overrides) (*Settings, error) {
	out := *s
	out.Platforms = append([]string(nil), s.Platforms...)
	out.RetryDelays = append([]int(nil), s.RetryDelays...)

	if len(o.Platforms) > 0 {
		out.Platforms = normalizePlatforms(o.Platforms)
	}
	if o.MaxRetries != nil {
		out.MaxRetries = *o.MaxRetries
	}
	if o.DelaySeconds != nil {
		out.DelaySeconds = *o.DelaySeconds
	}
	if o.MaxPackageMB != nil {
		out.MaxPackageMB = *o.MaxPackageMB
	}

	if err := validate(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delay is the pause applied between two repositories.
func (s *Settings) Delay() time.Duration {
	return time.Duration(s.DelaySeconds) * time.Second
}

// RetrySchedule converts RetryDelays to durations.
func (s *Settings) RetrySchedule() []time.Duration {
	schedule := make([]time.Duration, 0, len(s.RetryDelays))
	for _, d := range s.RetryDelays {
		schedule = append(schedule, time.Duration(d)*time.Second)
	}
	return schedule
}

// MaxPackageBytes is the artifact size budget in bytes.
func (s *Settings) MaxPackageBytes() int64 {
	return int64(s.MaxPackageMB) * 1024 * 1024
}

func (s *Settings) applyDefaults() {
	if len(s.Platforms) == 0 {
		s.Platforms = []string{PlatformNetlify}
	}
	s.Platforms = normalizePlatforms(s.Platforms)
	if len(s.RetryDelays) == 0 {
		s.RetryDelays = append([]int(nil), DefaultRetryDelays...)
	}
	if s.Netlify.Token == "" {
		s.Netlify.Token = os.Getenv("NETLIFY_TOKEN")
	}
	if s.Render.Token == "" {
		s.Render.Token = os.Getenv("RENDER_TOKEN")
	}
	if s.Render.OwnerID == "" {
		s.Render.OwnerID = os.Getenv("RENDER_OWNER_ID")
	}
	if s.GitHub.Token == "" {
		s.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
}

// normalizePlatforms lowercases, splits comma lists and drops duplicates, keeping order.
func normalizePlatforms(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range raw {
		for _, name := range strings.Split(item, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for values the run cannot work without.
func validate(s *Settings) error {
	known := map[string]bool{PlatformNetlify: true, PlatformRender: true, PlatformGitHub: true}
	for _, p := range s.Platforms {
		if !known[p] {
			return fmt.Errorf("%w: unknown platform %q (expected netlify, render or github)", ErrConfiguration, p)
		}
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrConfiguration)
	}
	if s.DelaySeconds < 0 {
		return fmt.Errorf("%w: delay_seconds must not be negative", ErrConfiguration)
	}
	if s.MaxPackageMB <= 0 {
		return fmt.Errorf("%w: max_package_mb must be positive", ErrConfiguration)
	}
	for i, d := range s.RetryDelays {
		if d < 0 {
			return fmt.Errorf("%w: retry_delays[%d] must not be negative", ErrConfiguration, i)
		}
	}
	return nil
}
