// Copyright (c) the Argus Tools authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config defines the taint configuration consumed by the analysis:
// declared source and sink kinds, the rule table, model file locations and
// analysis options. The configuration is an explicit value threaded through
// every entry point; there is no process-wide registration.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/argus-tools/argus/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// MissingFlowsMode governs how flows through unmodeled stub callables are treated.
type MissingFlowsMode int

const (
	// MissingFlowsNone disables missing-flow detection.
	MissingFlowsNone MissingFlowsMode = iota

	// MissingFlowsObscure attaches a conservative obscure sink to every stub
	// callable without an explicit model, so that flows through unknown code
	// are flagged instead of silently dropped.
	MissingFlowsObscure

	// MissingFlowsType strips declared sinks without adding obscure markers.
	MissingFlowsType
)

func (m MissingFlowsMode) String() string {
	switch m {
	case MissingFlowsNone:
		return "none"
	case MissingFlowsObscure:
		return "obscure"
	case MissingFlowsType:
		return "type"
	default:
		return fmt.Sprintf("MissingFlowsMode(%d)", int(m))
	}
}

// A RuleSpec names one taint tracking rule: a flow is reported when a source
// kind listed in Sources reaches a sink kind listed in Sinks.
type RuleSpec struct {
	// Code is the numeric identifier of the rule, used by the rule filter
	Code int `yaml:"code"`

	// Name is the short human-readable name of the rule
	Name string `yaml:"name"`

	// Description documents the rule in reports
	Description string `yaml:"description"`

	// Sources is the list of source kind names the rule matches
	Sources []string `yaml:"sources"`

	// Sinks is the list of sink kind names the rule matches
	Sinks []string `yaml:"sinks"`
}

// Config contains the taint kinds, rules and options of one analysis run.
// If some field is not defined in the config file, it will be empty/zero in
// the struct. Private fields are not populated from a yaml file, but computed
// after initialization.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// computed missing-flows mode, validated in Load
	missingFlows MissingFlowsMode

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// Sources is the list of declared source kind names
	Sources []string `yaml:"sources"`

	// Sinks is the list of declared sink kind names
	Sinks []string `yaml:"sinks"`

	// ModelFiles lists the model source documents to parse
	ModelFiles []string `yaml:"model-files"`

	// Rules is the rule table of the analysis
	Rules []RuleSpec `yaml:"rules"`

	// RuleFilter restricts which rules are active, by code. Empty means all
	// rules are active.
	RuleFilter []int `yaml:"rule-filter"`
}

// Options holds scalar settings of the analysis.
type Options struct {
	// Verify makes any model verification error fatal: the error report is
	// serialized and the run halts before analysis.
	Verify bool `yaml:"verify"`

	// MissingFlows selects the missing-flows mode: "", "obscure" or "type"
	MissingFlows string `yaml:"missing-flows"`

	// MaxAccessPathLength bounds the length of access paths tracked by the
	// taint domain. Values <= 0 select the default.
	MaxAccessPathLength int `yaml:"max-access-path-length"`

	// PkgFilter restricts analyzed callables to those whose qualified name
	// matches this regex. Empty means no filtering.
	PkgFilter string `yaml:"pkg-filter"`

	// ResultsPath is an optional path where findings are dumped by an
	// external writer. The core never writes it itself.
	ResultsPath string `yaml:"results-path"`

	// MaxAlarms limits the number of findings reported. If MaxAlarms <= 0,
	// it is ignored.
	MaxAlarms int `yaml:"max-alarms"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// DefaultMaxAccessPathLength bounds access paths when the config does not set
// a value. The bound does not affect soundness, only precision.
const DefaultMaxAccessPathLength = 3

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Sources:    nil,
		Sinks:      nil,
		ModelFiles: nil,
		Rules:      nil,
		RuleFilter: nil,
		Options: Options{
			Verify:              false,
			MissingFlows:        "",
			MaxAccessPathLength: DefaultMaxAccessPathLength,
			PkgFilter:           "",
			ResultsPath:         "",
			MaxAlarms:           0,
			LogLevel:            int(InfoLevel),
			SilenceWarn:         false,
		},
	}
}

// Load reads a configuration from a file. Configuration errors are fatal: an
// invalid missing-flows mode, a rule filter naming an unknown rule code or an
// unreadable model file path all cause an error return.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.MissingFlows {
	case "":
		c.missingFlows = MissingFlowsNone
	case "obscure":
		c.missingFlows = MissingFlowsObscure
	case "type":
		c.missingFlows = MissingFlowsType
	default:
		return fmt.Errorf("invalid missing-flows mode %q: expected \"obscure\" or \"type\"", c.MissingFlows)
	}

	if c.LogLevel == 0 {
		c.LogLevel = int(InfoLevel)
	}
	if c.MaxAccessPathLength <= 0 {
		c.MaxAccessPathLength = DefaultMaxAccessPathLength
	}

	for _, code := range c.RuleFilter {
		known := funcutil.Exists(c.Rules, func(r RuleSpec) bool { return r.Code == code })
		if !known {
			return fmt.Errorf("rule filter names unknown rule code %d", code)
		}
	}

	for _, r := range c.Rules {
		for _, s := range r.Sources {
			if !funcutil.Contains(c.Sources, s) {
				return fmt.Errorf("rule %d references undeclared source kind %q", r.Code, s)
			}
		}
		for _, s := range r.Sinks {
			if !funcutil.Contains(c.Sinks, s) {
				return fmt.Errorf("rule %d references undeclared sink kind %q", r.Code, s)
			}
		}
	}

	for _, path := range c.ModelFiles {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("model file %s is not readable: %w", path, err)
		}
	}

	if c.PkgFilter != "" {
		r, err := regexp.Compile(c.PkgFilter)
		if err != nil {
			return fmt.Errorf("invalid pkg-filter: %w", err)
		}
		c.pkgFilterRegex = r
	}
	return nil
}

// SourceFile returns the file the config was loaded from, if any.
func (c *Config) SourceFile() string {
	return c.sourceFile
}

// FindMissingFlows returns the validated missing-flows mode.
func (c *Config) FindMissingFlows() MissingFlowsMode {
	return c.missingFlows
}

// IsSourceKind returns true when name is a declared source kind.
func (c *Config) IsSourceKind(name string) bool {
	return funcutil.Contains(c.Sources, name)
}

// IsSinkKind returns true when name is a declared sink kind.
func (c *Config) IsSinkKind(name string) bool {
	return funcutil.Contains(c.Sinks, name)
}

// ActiveRules returns the rules selected by the rule filter, or all rules when
// the filter is empty.
func (c *Config) ActiveRules() []RuleSpec {
	if len(c.RuleFilter) == 0 {
		return c.Rules
	}
	return funcutil.Filter(c.Rules, func(r RuleSpec) bool {
		return funcutil.Contains(c.RuleFilter, r.Code)
	})
}

// MatchPkgFilter returns true when the qualified name matches the package
// filter, or when no filter is set.
func (c *Config) MatchPkgFilter(name string) bool {
	if c.pkgFilterRegex == nil {
		return true
	}
	return c.pkgFilterRegex.MatchString(name)
}
