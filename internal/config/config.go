// internal/config/config.go
//
// This package handles configuration and the .onboard directory structure.
// Running `onboard init` in a working directory creates .onboard/ with a
// commented config.yaml and a logs/ folder. The bearer credential never lives
// in the YAML file: it comes from AUTH_TOKEN (optionally via a .env file).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/roster-onboard/internal/api"
	"github.com/kingrea/roster-onboard/internal/password"
)

const (
	// OnboardDir is the name of the directory we create in the working directory
	OnboardDir = ".onboard"

	// CredentialEnv names the environment variable holding the bearer token.
	CredentialEnv = "AUTH_TOKEN"

	defaultBaseURL = "http://localhost:8000"
	defaultVariant = VariantInstance
)

const defaultProjectConfigYAML = `# onboard configuration
version: 1

# Which workflow to run:
#   signup   - sign users up only
#   course   - pick a course from the flat course listing, then sign users up
#   instance - pick a course instance, sign users up and enroll each one
variant: instance

# Generated password length (minimum 4). Leave unset to use the variant
# default: 8 for signup, 10 for course and instance.
# password_length: 10

# Directory the updated roster (updated_<file>) is written to.
output_dir: .

api:
  base_url: http://localhost:8000
  timeout: 30s
  # Follow the "next" link of paginated course listings.
  follow_pages: false
  paths:
    signup: /api/v1/auth/signup/
    courses: /api/v1/course/courses
    course_instances: /api/v1/course/course-instances
    user_lookup: /api/v1/users/user
    enrollments: /api/v1/users/user-course-instances
`

// ErrMissingCredential is returned when AUTH_TOKEN is unset or blank.
var ErrMissingCredential = errors.New("config: no token found in the environment variables (set " + CredentialEnv + ")")

// PathsConfig lists endpoint paths relative to api.base_url.
type PathsConfig struct {
	Signup          string `yaml:"signup"`
	Courses         string `yaml:"courses"`
	CourseInstances string `yaml:"course_instances"`
	UserLookup      string `yaml:"user_lookup"`
	Enrollments     string `yaml:"enrollments"`
}

// APIConfig captures how to reach the onboarding backend.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	FollowPages bool          `yaml:"follow_pages"`
	Paths       PathsConfig   `yaml:"paths"`
}

// ProjectConfig models .onboard/config.yaml.
type ProjectConfig struct {
	Version        int       `yaml:"version"`
	Variant        string    `yaml:"variant"`
	PasswordLength int       `yaml:"password_length,omitempty"`
	OutputDir      string    `yaml:"output_dir,omitempty"`
	API            APIConfig `yaml:"api"`
}

// Overrides carries command-line values applied after the file and env.
type Overrides struct {
	ConfigPath     string
	Variant        string
	PasswordLength int
	BaseURL        string
	OutputDir      string
}

// Config holds the runtime configuration for one onboarding run.
type Config struct {
	// WorkDir is the directory the user ran `onboard` from
	WorkDir string

	// OnboardProjectDir is WorkDir/.onboard
	OnboardProjectDir string

	// Token is the bearer credential sent with every request.
	Token string

	Project ProjectConfig

	configPath string
}

// InitDir creates the .onboard directory structure in workDir.
//
// Structure created:
// .onboard/
// ├── config.yaml
// └── logs/
func InitDir(workDir string) error {
	dir := filepath.Join(workDir, OnboardDir)
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(dir, "config.yaml"))
}

// LoadEnv reads workDir/.env into the process environment. A missing file is
// not an error and variables already set are left untouched.
func LoadEnv(workDir string) error {
	path := filepath.Join(workDir, ".env")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file, then ONBOARD_*
// environment variables, then overrides. The credential is read from
// AUTH_TOKEN but only enforced by RequireCredential.
func Load(workDir string, overrides Overrides) (*Config, error) {
	cfg := &Config{
		WorkDir:           workDir,
		OnboardProjectDir: filepath.Join(workDir, OnboardDir),
		Project:           defaultProjectConfig(),
	}
	explicit := strings.TrimSpace(overrides.ConfigPath) != ""
	cfg.configPath = filepath.Join(cfg.OnboardProjectDir, "config.yaml")
	if explicit {
		cfg.configPath = resolvePath(workDir, overrides.ConfigPath)
	}
	if err := cfg.loadProjectConfig(explicit); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	cfg.Project.applyOverrides(overrides)
	cfg.Project.applyDefaults()
	cfg.Project.normalize()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Token = strings.TrimSpace(os.Getenv(CredentialEnv))
	return cfg, nil
}

// RequireCredential fails with ErrMissingCredential when no token was found.
func (c *Config) RequireCredential() error {
	if c == nil || c.Token == "" {
		return ErrMissingCredential
	}
	return nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.OnboardProjectDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return filepath.Join(c.OnboardProjectDir, "config.yaml")
}

// OutputDir returns where updated rosters are written, resolved against WorkDir.
func (c *Config) OutputDir() string {
	return resolvePath(c.WorkDir, c.Project.OutputDir)
}

// Variant resolves the configured workflow preset, honoring password_length.
func (c *Config) Variant() Variant {
	v, _ := LookupVariant(c.Project.Variant)
	if c.Project.PasswordLength > 0 {
		v.PasswordLength = c.Project.PasswordLength
	}
	return v
}

// APISettings returns the client settings including the credential.
func (c *Config) APISettings() api.Settings {
	p := c.Project.API.Paths
	return api.Settings{
		BaseURL:     c.Project.API.BaseURL,
		Token:       c.Token,
		Timeout:     c.Project.API.Timeout,
		FollowPages: c.Project.API.FollowPages,
		Endpoints: api.Endpoints{
			Signup:          p.Signup,
			Courses:         p.Courses,
			CourseInstances: p.CourseInstances,
			UserLookup:      p.UserLookup,
			Enrollments:     p.Enrollments,
		},
	}
}

// SetVariant updates the default variant and persists the value back to the
// project config file.
func (c *Config) SetVariant(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := LookupVariant(name); !ok {
		return fmt.Errorf("config: unknown variant %q", name)
	}
	c.Project.Variant = name
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig(required bool) error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		Variant:   defaultVariant,
		OutputDir: ".",
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: api.DefaultTimeout,
			Paths:   defaultPaths(),
		},
	}
}

func defaultPaths() PathsConfig {
	return PathsConfig{
		Signup:          "/api/v1/auth/signup/",
		Courses:         "/api/v1/course/courses",
		CourseInstances: "/api/v1/course/course-instances",
		UserLookup:      "/api/v1/users/user",
		Enrollments:     "/api/v1/users/user-course-instances",
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("ONBOARD_API_URL")); value != "" {
		pc.API.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv("ONBOARD_VARIANT")); value != "" {
		pc.Variant = value
	}
	if value := strings.TrimSpace(os.Getenv("ONBOARD_PASSWORD_LENGTH")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			pc.PasswordLength = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("ONBOARD_OUTPUT_DIR")); value != "" {
		pc.OutputDir = value
	}
}

func (pc *ProjectConfig) applyOverrides(o Overrides) {
	if v := strings.TrimSpace(o.Variant); v != "" {
		pc.Variant = v
	}
	if o.PasswordLength != 0 {
		pc.PasswordLength = o.PasswordLength
	}
	if v := strings.TrimSpace(o.BaseURL); v != "" {
		pc.API.BaseURL = v
	}
	if v := strings.TrimSpace(o.OutputDir); v != "" {
		pc.OutputDir = v
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.API.Timeout == 0 {
		pc.API.Timeout = api.DefaultTimeout
	}
	defaults := defaultPaths()
	fill := func(dst *string, fallback string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = fallback
		}
	}
	fill(&pc.API.Paths.Signup, defaults.Signup)
	fill(&pc.API.Paths.Courses, defaults.Courses)
	fill(&pc.API.Paths.CourseInstances, defaults.CourseInstances)
	fill(&pc.API.Paths.UserLookup, defaults.UserLookup)
	fill(&pc.API.Paths.Enrollments, defaults.Enrollments)
	fill(&pc.API.BaseURL, defaultBaseURL)
	fill(&pc.Variant, defaultVariant)
	fill(&pc.OutputDir, ".")
}

func (pc *ProjectConfig) normalize() {
	pc.Variant = strings.ToLower(strings.TrimSpace(pc.Variant))
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	pc.OutputDir = strings.TrimSpace(pc.OutputDir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if _, ok := LookupVariant(pc.Variant); !ok {
		return fmt.Errorf("variant must be one of %s, got %q", strings.Join(VariantNames(), ", "), pc.Variant)
	}
	if pc.PasswordLength != 0 && pc.PasswordLength < password.MinLength {
		return fmt.Errorf("password_length must be >= %d, got %d", password.MinLength, pc.PasswordLength)
	}
	parsed, err := url.Parse(pc.API.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", pc.API.BaseURL)
	}
	if pc.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.ProjectConfigPath()), 0o755); err != nil {
		return fmt.Errorf("config: ensure onboard dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
