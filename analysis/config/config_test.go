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

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
sources:
  - UserControlled
sinks:
  - Sql
  - Logging
missing-flows: obscure
max-alarms: 10
rules:
  - code: 1001
    name: sql-injection
    sources: [UserControlled]
    sinks: [Sql]
  - code: 1002
    name: log-leak
    sources: [UserControlled]
    sinks: [Logging]
rule-filter: [1002]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsSourceKind("UserControlled") || cfg.IsSourceKind("Sql") {
		t.Error("source kinds misclassified")
	}
	if !cfg.IsSinkKind("Logging") || cfg.IsSinkKind("UserControlled") {
		t.Error("sink kinds misclassified")
	}
	if cfg.FindMissingFlows() != MissingFlowsObscure {
		t.Errorf("unexpected missing-flows mode: %v", cfg.FindMissingFlows())
	}
	if cfg.MaxAlarms != 10 {
		t.Errorf("MaxAlarms = %d", cfg.MaxAlarms)
	}
	if cfg.SourceFile() != path {
		t.Errorf("SourceFile = %q", cfg.SourceFile())
	}

	active := cfg.ActiveRules()
	if len(active) != 1 || active[0].Code != 1002 {
		t.Errorf("rule filter not applied: %v", active)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"invalid missing flows", "missing-flows: sometimes\n"},
		{"unknown rule filter code", "rules:\n  - code: 1\n    name: r\nrule-filter: [99]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.text)
			if _, err := Load(path); err == nil {
				t.Error("expected a load error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestEmptyRuleFilterKeepsAllRules(t *testing.T) {
	cfg := NewDefault()
	cfg.Rules = []RuleSpec{{Code: 1}, {Code: 2}}
	if got := len(cfg.ActiveRules()); got != 2 {
		t.Errorf("expected all rules active, got %d", got)
	}
}

func TestMatchPkgFilter(t *testing.T) {
	path := writeConfig(t, "pkg-filter: \"^app\\\\.\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.MatchPkgFilter("app.handler") {
		t.Error("expected app.handler to match")
	}
	if cfg.MatchPkgFilter("lib.handler") {
		t.Error("expected lib.handler not to match")
	}
}

func TestLoadScalarOptions(t *testing.T) {
	path := writeConfig(t, `
verify: true
max-access-path-length: 5
results-path: out.json
log-level: 4
silence-warn: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Verify {
		t.Error("Verify not decoded")
	}
	if cfg.MaxAccessPathLength != 5 {
		t.Errorf("MaxAccessPathLength = %d", cfg.MaxAccessPathLength)
	}
	if cfg.ResultsPath != "out.json" {
		t.Errorf("ResultsPath = %q", cfg.ResultsPath)
	}
	if cfg.LogLevel != 4 {
		t.Errorf("LogLevel = %d", cfg.LogLevel)
	}
	if !cfg.SilenceWarn {
		t.Error("SilenceWarn not decoded")
	}
}

func TestLogGroupSilencesWarnings(t *testing.T) {
	cfg := NewDefault()
	cfg.LogLevel = int(WarnLevel)

	logger := NewLogGroup(cfg)
	var out bytes.Buffer
	logger.SetAllOutput(&out)
	logger.Warnf("noisy")
	if !strings.Contains(out.String(), "noisy") {
		t.Error("expected the warning to be logged")
	}

	cfg.SilenceWarn = true
	silent := NewLogGroup(cfg)
	var quiet bytes.Buffer
	silent.SetAllOutput(&quiet)
	silent.Warnf("noisy")
	silent.Errorf("real")
	if strings.Contains(quiet.String(), "noisy") {
		t.Error("expected the warning to be silenced")
	}
	if !strings.Contains(quiet.String(), "real") {
		t.Error("expected errors to pass through")
	}
}
