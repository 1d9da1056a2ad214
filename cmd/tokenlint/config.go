package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/runner"
	"github.com/gnana997/tokenlint/pkg/tokens"
)

// configFile is the project config location relative to the project root.
var configFile = filepath.Join(".tokenlint", "config.yaml")

const configVersion = "1"

// ProjectConfig holds the contents of .tokenlint/config.yaml.
type ProjectConfig struct {
	Version string `yaml:"version"`

	// EnabledCategories restricts use-semantic-token to these categories.
	EnabledCategories []string `yaml:"enabled_categories,omitempty"`
	ThemeModules      []string `yaml:"theme_modules,omitempty"`
	TokenModules      []string `yaml:"token_modules,omitempty"`

	// Rules maps rule ids to error, warning or off.
	Rules map[string]string `yaml:"rules,omitempty"`

	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	Workers int      `yaml:"workers,omitempty"`

	// RuleTable is a YAML token rule table replacing the built-in one.
	// Relative paths resolve against the project root.
	RuleTable string `yaml:"rule_table,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
	Format    string `yaml:"format,omitempty"`

	// MCPLog is the JSONL file serve appends tool calls to.
	MCPLog string `yaml:"mcp_log,omitempty"`

	// root is the directory the config was loaded for.
	root string
}

// defaultProjectConfig is what init writes and what loading starts from.
func defaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Version:      configVersion,
		ThemeModules: append([]string(nil), lint.DefaultThemeModules...),
		TokenModules: append([]string(nil), lint.DefaultTokenModules...),
		Rules: map[string]string{
			lint.SemanticTokenRuleID: string(lint.SeverityError),
			lint.TokenImportRuleID:   string(lint.SeverityWarning),
		},
		Exclude:   append([]string(nil), runner.DefaultExclude...),
		LogLevel:  "warn",
		LogFormat: "text",
		Format:    "text",
		root:      ".",
	}
}

// loadProjectConfig reads the config for root. explicit overrides the
// default .tokenlint/config.yaml location and must exist. Values from
// root/.env and the process environment (TOKENLINT_*) are applied on top;
// the process environment wins over .env.
func loadProjectConfig(root, explicit string) (*ProjectConfig, error) {
	cfg := defaultProjectConfig()
	cfg.root = root

	path := explicit
	if path == "" {
		path = filepath.Join(root, configFile)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit == "" && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	dotenv, err := godotenv.Read(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	getenv := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return dotenv[key]
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from TOKENLINT_* variables.
func (c *ProjectConfig) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = splitList(v)
		}
	}

	str("TOKENLINT_LOG_LEVEL", &c.LogLevel)
	str("TOKENLINT_LOG_FORMAT", &c.LogFormat)
	str("TOKENLINT_FORMAT", &c.Format)
	str("TOKENLINT_RULE_TABLE", &c.RuleTable)
	str("TOKENLINT_MCP_LOG", &c.MCPLog)
	list("TOKENLINT_ENABLED_CATEGORIES", &c.EnabledCategories)
	list("TOKENLINT_INCLUDE", &c.Include)
	list("TOKENLINT_EXCLUDE", &c.Exclude)

	if v := strings.TrimSpace(getenv("TOKENLINT_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("TOKENLINT_WORKERS: invalid worker count %q", v)
		}
		c.Workers = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// pluginConfig converts the project config into lint plugin settings.
func (c *ProjectConfig) pluginConfig(logger *slog.Logger) (lint.PluginConfig, error) {
	pc := lint.PluginConfig{
		SemanticToken: lint.SemanticTokenOptions{
			EnabledCategories: c.EnabledCategories,
			ThemeModules:      c.ThemeModules,
		},
		TokenModules: c.TokenModules,
		Severities:   make(map[string]lint.Severity, len(c.Rules)),
		Logger:       logger,
	}

	if c.RuleTable != "" {
		path := c.RuleTable
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.root, path)
		}
		table, err := tokens.LoadTable(path)
		if err != nil {
			return lint.PluginConfig{}, err
		}
		pc.Table = table
	}

	table := pc.Table
	if table == nil {
		table = tokens.Default
	}
	for _, name := range c.EnabledCategories {
		if _, ok := table.Rule(name); !ok {
			return lint.PluginConfig{}, fmt.Errorf("enabled_categories: unknown category %q (known: %s)",
				name, strings.Join(table.Names(), ", "))
		}
	}

	for id, raw := range c.Rules {
		sev, err := lint.ParseSeverity(raw)
		if err != nil {
			return lint.PluginConfig{}, fmt.Errorf("rules.%s: %w", id, err)
		}
		pc.Severities[id] = sev
	}
	return pc, nil
}

// runnerOptions returns discovery options. A config that clears exclude
// keeps no exclusions.
func (c *ProjectConfig) runnerOptions() runner.Options {
	return runner.Options{
		Include: c.Include,
		Exclude: c.Exclude,
		Workers: c.Workers,
	}
}

// enabledRules lists the rule ids not switched off, sorted.
func (c *ProjectConfig) enabledRules() []string {
	ids := []string{lint.SemanticTokenRuleID, lint.TokenImportRuleID}
	var out []string
	for _, id := range ids {
		if sev, err := lint.ParseSeverity(c.Rules[id]); err == nil && sev == lint.SeverityOff {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// writeDefaultConfig writes the default config under root. It refuses to
// replace an existing file unless force is set.
func writeDefaultConfig(root string, force bool) (string, error) {
	path := filepath.Join(root, configFile)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(defaultProjectConfig())
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	header := "# tokenlint project configuration.\n" +
		"# Environment variables TOKENLINT_* (or .env) override these values.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
