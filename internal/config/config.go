package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"gopkg.in/yaml.v3"

	"podboard/internal/processor"
	"podboard/internal/theme"
)

const (
	envCatalogDir     = "PODBOARD_CATALOG_DIR"
	envProcessorURL   = "PODBOARD_PROCESSOR_URL"
	envProcessorToken = "PODBOARD_PROCESSOR_TOKEN"
)

// Config represents the persisted dashboard configuration.
type Config struct {
	CatalogDir          string `yaml:"catalog_dir"`
	ProcessorURL        string `yaml:"processor_url"`
	ProcessorToken      string `yaml:"processor_token,omitempty"`
	AppNamespace        string `yaml:"app_namespace"`
	FunctionName        string `yaml:"function_name"`
	OutputPath          string `yaml:"output_path"`
	PollIntervalMS      int    `yaml:"poll_interval_ms"`
	UserAgent           string `yaml:"user_agent"`
	Proxy               string `yaml:"proxy,omitempty"`
	TLSVerify           bool   `yaml:"tls_verify"`
	ColorTheme          string `yaml:"color_theme"`
	SkipEmptyHighlights bool   `yaml:"skip_empty_highlights"`
	HistoryLimit        int    `yaml:"history_limit"`
}

// Defaults returns the baseline configuration used on first run.
func Defaults() Config {
	return Config{
		CatalogDir:     ".",
		AppNamespace:   processor.DefaultNamespace,
		FunctionName:   processor.DefaultFunction,
		OutputPath:     processor.DefaultOutputPath,
		PollIntervalMS: 2000,
		UserAgent:      "podboard/dev",
		TLSVerify:      true,
		ColorTheme:     theme.Default,
		HistoryLimit:   20,
	}
}

// PollInterval returns the initial delay between status checks of a
// running processing call.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Function returns the configured processing function.
func (c Config) Function() processor.Function {
	return processor.Function{Namespace: c.AppNamespace, Name: c.FunctionName}
}

// Ensure loads configuration from the provided path, prompting for the
// processor endpoint if no file exists yet.
func Ensure(ctx context.Context, path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg = Defaults()
	if err := bootstrap(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Load reads configuration from disk and applies the PODBOARD_CATALOG_DIR
// and PODBOARD_PROCESSOR_TOKEN overrides.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	normalize(&cfg)
	applyEnv(&cfg)
	return cfg, nil
}

// Save writes configuration back to disk, ensuring directory permissions are restrictive.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func normalize(cfg *Config) {
	defaults := Defaults()
	if strings.TrimSpace(cfg.CatalogDir) == "" {
		cfg.CatalogDir = defaults.CatalogDir
	}
	if strings.TrimSpace(cfg.AppNamespace) == "" {
		cfg.AppNamespace = defaults.AppNamespace
	}
	if strings.TrimSpace(cfg.FunctionName) == "" {
		cfg.FunctionName = defaults.FunctionName
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		cfg.OutputPath = defaults.OutputPath
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = defaults.PollIntervalMS
	}
	if strings.TrimSpace(cfg.ColorTheme) == "" {
		cfg.ColorTheme = defaults.ColorTheme
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
}

func applyEnv(cfg *Config) {
	if dir := strings.TrimSpace(os.Getenv(envCatalogDir)); dir != "" {
		if resolved, err := expandPath(dir); err == nil {
			cfg.CatalogDir = resolved
		}
	}
	if token := strings.TrimSpace(os.Getenv(envProcessorToken)); token != "" {
		cfg.ProcessorToken = token
	}
}

func bootstrap(ctx context.Context, cfg *Config) error {
	if fromEnv := strings.TrimSpace(os.Getenv(envProcessorURL)); fromEnv != "" {
		cfg.ProcessorURL = fromEnv
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	prompt := &survey.Input{
		Message: "Processing runtime URL (leave empty to configure later)",
		Default: cfg.ProcessorURL,
	}

	var answer string
	if err := survey.AskOne(prompt, &answer); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return fmt.Errorf("initialisation interrupted")
		}
		return err
	}

	cfg.ProcessorURL = strings.TrimSpace(answer)
	return nil
}

// EditableKeys returns the ordered list of configuration keys exposed via the
// interactive editor.
func EditableKeys() []string {
	return []string{
		"catalog_dir",
		"processor_url",
		"app_namespace",
		"function_name",
		"output_path",
		"poll_interval_ms",
		"user_agent",
		"proxy",
		"tls_verify",
		"color_theme",
		"skip_empty_highlights",
		"history_limit",
	}
}

// EditInteractive opens an interactive survey session allowing the user to
// update configuration values.
func EditInteractive(ctx context.Context, cfg Config) (Config, error) {
	questions := []*survey.Question{
		{
			Name:     "catalog_dir",
			Prompt:   &survey.Input{Message: "Catalog directory", Default: cfg.CatalogDir},
			Validate: survey.Required,
		},
		{
			Name:   "processor_url",
			Prompt: &survey.Input{Message: "Processing runtime URL", Default: cfg.ProcessorURL},
		},
		{
			Name:     "app_namespace",
			Prompt:   &survey.Input{Message: "Application namespace", Default: cfg.AppNamespace},
			Validate: survey.Required,
		},
		{
			Name:     "function_name",
			Prompt:   &survey.Input{Message: "Function name", Default: cfg.FunctionName},
			Validate: survey.Required,
		},
		{
			Name:     "output_path",
			Prompt:   &survey.Input{Message: "Output path passed to the function", Default: cfg.OutputPath},
			Validate: survey.Required,
		},
		{
			Name:     "poll_interval_ms",
			Prompt:   &survey.Input{Message: "Status poll interval (ms)", Default: strconv.Itoa(cfg.PollIntervalMS)},
			Validate: validatePositiveInt,
		},
		{
			Name:   "user_agent",
			Prompt: &survey.Input{Message: "User agent", Default: cfg.UserAgent},
		},
		{
			Name:   "proxy",
			Prompt: &survey.Input{Message: "HTTP proxy (optional)", Default: cfg.Proxy},
		},
		{
			Name:   "tls_verify",
			Prompt: &survey.Confirm{Message: "Verify TLS certificates", Default: cfg.TLSVerify},
		},
		{
			Name:   "color_theme",
			Prompt: &survey.Select{Message: "Color theme", Options: theme.Names(), Default: cfg.ColorTheme},
		},
		{
			Name:   "skip_empty_highlights",
			Prompt: &survey.Confirm{Message: "Hide empty key-moment lines", Default: cfg.SkipEmptyHighlights},
		},
		{
			Name:     "history_limit",
			Prompt:   &survey.Input{Message: "Submissions shown in history", Default: strconv.Itoa(cfg.HistoryLimit)},
			Validate: validatePositiveInt,
		},
	}

	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	answers := map[string]interface{}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return Config{}, err
	}

	cfg.CatalogDir = stringAnswer(answers, "catalog_dir")
	cfg.ProcessorURL = stringAnswer(answers, "processor_url")
	cfg.AppNamespace = stringAnswer(answers, "app_namespace")
	cfg.FunctionName = stringAnswer(answers, "function_name")
	cfg.OutputPath = stringAnswer(answers, "output_path")
	cfg.PollIntervalMS = toInt(answers["poll_interval_ms"])
	cfg.UserAgent = stringAnswer(answers, "user_agent")
	cfg.Proxy = stringAnswer(answers, "proxy")
	cfg.TLSVerify, _ = answers["tls_verify"].(bool)
	if opt, ok := answers["color_theme"].(survey.OptionAnswer); ok {
		cfg.ColorTheme = opt.Value
	} else if name, ok := answers["color_theme"].(string); ok {
		cfg.ColorTheme = name
	}
	cfg.SkipEmptyHighlights, _ = answers["skip_empty_highlights"].(bool)
	cfg.HistoryLimit = toInt(answers["history_limit"])

	normalize(&cfg)
	return cfg, nil
}

func stringAnswer(answers map[string]interface{}, key string) string {
	value, _ := answers[key].(string)
	return strings.TrimSpace(value)
}

func validatePositiveInt(ans interface{}) error {
	v, _ := ans.(string)
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("value required")
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return errors.New("must be a number")
	}
	if i <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(v))
		return i
	default:
		return 0
	}
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
