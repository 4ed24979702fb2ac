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

package taint

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/internal/formatutil"
)

// A Report is the serializable analysis outcome.
type Report struct {
	Time      string    `json:"time"`
	Findings  []Finding `json:"findings"`
	Truncated int       `json:"truncated,omitempty"`
}

// NewReport packages findings under the configured alarm limit. Truncated
// counts the findings dropped by MaxAlarms.
func NewReport(cfg *config.Config, findings []Finding) Report {
	r := Report{
		Time:     time.Now().Format(time.RFC3339),
		Findings: findings,
	}
	if cfg.MaxAlarms > 0 && len(findings) > cfg.MaxAlarms {
		r.Truncated = len(findings) - cfg.MaxAlarms
		r.Findings = findings[:cfg.MaxAlarms]
	}
	return r
}

// Log prints the report through the logger, one line per finding. Missing
// flow findings print in yellow, rule matches in red.
func (r Report) Log(logger *config.LogGroup) {
	if len(r.Findings) == 0 && r.Truncated == 0 {
		logger.Infof("%s", formatutil.Green("no taint flows found"))
		return
	}
	for _, f := range r.Findings {
		line := formatutil.Sanitize(f.String())
		if f.RuleCode == MissingFlowRuleCode {
			logger.Warnf("%s", formatutil.Yellow(line))
		} else {
			logger.Warnf("%s", formatutil.Red(line))
		}
	}
	if r.Truncated > 0 {
		logger.Warnf("%s", formatutil.Faint(
			fmt.Sprintf("%d more finding(s) suppressed by max-alarms", r.Truncated)))
	}
}

// Dump writes the report as JSON to the configured results path. A report
// with no configured path is a no-op.
func (r Report) Dump(cfg *config.Config) error {
	if cfg.ResultsPath == "" {
		return nil
	}
	data, err := jsoniter.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal report: %w", err)
	}
	if err := os.WriteFile(cfg.ResultsPath, data, 0o600); err != nil {
		return fmt.Errorf("could not write report to %s: %w", cfg.ResultsPath, err)
	}
	return nil
}
