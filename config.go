package main

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir = ".content-writer"
	settingsFilename = "settings.yaml"
)

// ConfigOverrides allows overriding settings and embedded defaults from the
// command line
type ConfigOverrides struct {
	SettingsPath     *string
	InputPath        *string
	OutputDirectory  *string
	Layout           *string
	WriterPromptPath *string
	UserPromptPath   *string
	MaxSlugLength    *int
	ConvertHTML      *bool
	Limit            *int
	DryRun           *bool
}

// Embedded configuration files
//
//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/writer-system-prompt.md
var defaultWriterSystemPrompt string

//go:embed config/writer-user-prompt.md
var defaultWriterUserPrompt string

// BlogSettings configures the blog pipeline
type BlogSettings struct {
	InputCSV        string `yaml:"input_csv"`
	OutputDirectory string `yaml:"output_directory"`
	Layout          string `yaml:"layout"`
}

// QnASettings configures the Q&A pipeline
type QnASettings struct {
	InputCSV        string `yaml:"input_csv"`
	OutputDirectory string `yaml:"output_directory"`
	MaxSlugLength   int    `yaml:"max_slug_length"`
	ConvertHTML     bool   `yaml:"convert_html"`
}

// WriterSettings configures the writer agent used by the blog pipeline
type WriterSettings struct {
	Model             string  `yaml:"model"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	StripTitleHeading bool    `yaml:"strip_title_heading"`
}

// AgentSettings groups the agent configurations
type AgentSettings struct {
	Writer WriterSettings `yaml:"writer"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	Blog   BlogSettings  `yaml:"blog"`
	QnA    QnASettings   `yaml:"qna"`
	Agents AgentSettings `yaml:"agents"`

	limit  int
	dryRun bool
}

func (b BlogSettings) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.InputCSV, validation.Required),
		validation.Field(&b.OutputDirectory, validation.Required),
		validation.Field(&b.Layout, validation.Required),
	)
}

func (q QnASettings) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.InputCSV, validation.Required),
		validation.Field(&q.OutputDirectory, validation.Required),
		validation.Field(&q.MaxSlugLength, validation.Min(0)),
	)
}

func (w WriterSettings) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Model, validation.Required),
		validation.Field(&w.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&w.Temperature, validation.Min(0.0), validation.Max(1.0)),
	)
}

func (a AgentSettings) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Writer),
	)
}

// Validate checks every pipeline section
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Blog),
		validation.Field(&s.QnA),
		validation.Field(&s.Agents),
	)
}

// BlogConfig builds the processor configuration for the blog pipeline
func (s *Settings) BlogConfig() Config {
	return Config{
		InputPath:         s.Blog.InputCSV,
		OutputDir:         s.Blog.OutputDirectory,
		Layout:            s.Blog.Layout,
		Now:               time.Now,
		StripTitleHeading: s.Agents.Writer.StripTitleHeading,
		Limit:             s.limit,
		DryRun:            s.dryRun,
	}
}

// QnAConfig builds the processor configuration for the Q&A pipeline
func (s *Settings) QnAConfig() Config {
	return Config{
		InputPath:     s.QnA.InputCSV,
		OutputDir:     s.QnA.OutputDirectory,
		MaxSlugLength: s.QnA.MaxSlugLength,
		ConvertHTML:   s.QnA.ConvertHTML,
		Now:           time.Now,
		Limit:         s.limit,
		DryRun:        s.dryRun,
	}
}

// apply overlays command line overrides. Input, output and layout overrides
// apply to both pipelines; only one pipeline runs per invocation.
func (s *Settings) apply(o *ConfigOverrides) {
	if o == nil {
		return
	}
	if o.InputPath != nil {
		s.Blog.InputCSV = *o.InputPath
		s.QnA.InputCSV = *o.InputPath
	}
	if o.OutputDirectory != nil {
		s.Blog.OutputDirectory = *o.OutputDirectory
		s.QnA.OutputDirectory = *o.OutputDirectory
	}
	if o.Layout != nil {
		s.Blog.Layout = *o.Layout
	}
	if o.MaxSlugLength != nil {
		s.QnA.MaxSlugLength = *o.MaxSlugLength
	}
	if o.ConvertHTML != nil {
		s.QnA.ConvertHTML = *o.ConvertHTML
	}
	if o.Limit != nil {
		s.limit = *o.Limit
	}
	if o.DryRun != nil {
		s.dryRun = *o.DryRun
	}
}

// LoadSettings resolves, parses, overrides and validates settings.
//
// An explicit settings path must exist. Otherwise the local config
// directory is tried, then the XDG config directory, and finally the
// embedded defaults, which are also written to the local config directory.
func LoadSettings(overrides *ConfigOverrides) (*Settings, error) {
	var (
		settings *Settings
		err      error
	)

	switch {
	case overrides != nil && overrides.SettingsPath != nil:
		settings, err = loadSettingsFile(*overrides.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
	default:
		path, found := findSettingsFile()
		if found {
			debugLog("Using settings from %s", path)
			settings, err = loadSettingsFile(path)
		} else {
			if err := ensureConfigExists(); err != nil {
				log.Printf("Warning: %v", err)
			}
			settings, err = parseSettings([]byte(defaultSettings))
		}
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
	}

	settings.apply(overrides)

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// findSettingsFile returns the first settings file found in the local or
// XDG config directories
func findSettingsFile() (string, bool) {
	local := getConfigPath(settingsFilename)
	if _, err := os.Stat(local); err == nil {
		return local, true
	}
	if path, err := xdg.SearchConfigFile(filepath.Join("content-writer", settingsFilename)); err == nil {
		return path, true
	}
	return "", false
}

func loadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	return parseSettings(data)
}

// parseSettings parses YAML on top of the embedded defaults, so a partial
// settings file only needs the keys it changes
func parseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal([]byte(defaultSettings), &settings); err != nil {
		return nil, fmt.Errorf("failed to parse embedded settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}
	return &settings, nil
}

// Prompts holds the writer agent prompts
type Prompts struct {
	System string
	User   string
}

// LoadPrompts returns the writer prompts (from override files or embedded)
func LoadPrompts(overrides *ConfigOverrides) (Prompts, error) {
	prompts := Prompts{
		System: strings.TrimSpace(defaultWriterSystemPrompt),
		User:   strings.TrimSpace(defaultWriterUserPrompt),
	}
	if overrides == nil {
		return prompts, nil
	}

	if overrides.WriterPromptPath != nil {
		content, err := os.ReadFile(*overrides.WriterPromptPath)
		if err != nil {
			return Prompts{}, fmt.Errorf("reading writer prompt: %w", err)
		}
		prompts.System = strings.TrimSpace(string(content))
	}
	if overrides.UserPromptPath != nil {
		content, err := os.ReadFile(*overrides.UserPromptPath)
		if err != nil {
			return Prompts{}, fmt.Errorf("reading user prompt: %w", err)
		}
		prompts.User = strings.TrimSpace(string(content))
	}
	return prompts, nil
}

// getConfigPath returns the path to a config file in the local config directory
func getConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

// ensureConfigExists creates the config directory and writes settings.yaml
// if it doesn't exist
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsPath := getConfigPath(settingsFilename)
	if _, err := os.Stat(settingsPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(settingsPath, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing default settings: %w", err)
		}
		log.Printf("Wrote default settings to %s", settingsPath)
	}
	return nil
}
