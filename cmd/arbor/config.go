package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileName is looked up at the repo root.
const configFileName = ".arbor.yml"

// Config mirrors the optional .arbor.yml file. Every field has a zero value
// that means "unset"; flags override config, config overrides defaults.
type Config struct {
	DB         string         `yaml:"db"`
	Ctags      string         `yaml:"ctags"`
	Extensions []string       `yaml:"extensions"`
	Analysis   AnalysisConfig `yaml:"analysis"`
}

// AnalysisConfig overrides the dead-code exclusion policy.
type AnalysisConfig struct {
	EntryPoints      []string `yaml:"entry_points"`
	TestPrefixes     []string `yaml:"test_prefixes"`
	InternalPrefixes []string `yaml:"internal_prefixes"`
}

// LoadConfig reads .arbor.yml from repoRoot. A missing or malformed file
// yields the zero Config; configuration is always optional.
func LoadConfig(repoRoot string) Config {
	var cfg Config
	data, err := os.ReadFile(filepath.Join(repoRoot, configFileName))
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
