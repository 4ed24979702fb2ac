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

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/dataflow"
	"github.com/argus-tools/argus/internal/funcutil"
)

// MissingFlowRuleCode is the reserved code reported for flows into the
// conservative obscure sink markers of missing-flows analysis.
const MissingFlowRuleCode = 0

// A Finding is one confirmed source-to-sink flow inside a callable.
type Finding struct {
	// RuleCode and RuleName identify the matched rule. MissingFlowRuleCode
	// flags a possible leak through unmodeled code.
	RuleCode int    `json:"rule_code"`
	RuleName string `json:"rule_name"`

	// Caller is the callable the flow was found in.
	Caller dataflow.Callable `json:"caller"`

	// Callee is the resolved target whose model declares the sink.
	Callee dataflow.Callable `json:"callee"`

	// Source and Sink are the matched kinds.
	Source dataflow.Kind `json:"source"`
	Sink   dataflow.Kind `json:"sink"`

	// Site is the call expression the flow enters the sink through.
	Site string `json:"site"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%d:%s] %s: %s reaches %s in call %s (callee %s)",
		f.RuleCode, f.RuleName, f.Caller, f.Source, f.Sink, f.Site, f.Callee)
}

// key identifies a finding for deduplication across fixpoint rounds.
func (f Finding) key() string {
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s", f.RuleCode, f.Caller, f.Callee, f.Source, f.Sink, f.Site)
}

// matchFindings turns the triggered sinks of one callable into findings: a
// real source kind flowing into a sink kind is reported once per active rule
// pairing the two, and once as a missing-flow leak when the sink is the
// obscure marker under the obscure missing-flows mode. Parameter marks
// contribute to the callable's own summary instead and never produce
// findings here.
func matchFindings(cfg *config.Config, caller dataflow.Callable, fwd *forwardResult) []Finding {
	var out []Finding
	rules := cfg.ActiveRules()
	for _, trig := range fwd.triggered {
		real, _ := splitMarks(trig.flowing)
		for _, src := range real.Sorted() {
			for _, snk := range trig.sinks.Sorted() {
				if snk == dataflow.ObscureKind {
					if cfg.FindMissingFlows() == config.MissingFlowsObscure {
						out = append(out, Finding{
							RuleCode: MissingFlowRuleCode,
							RuleName: "missing-flow",
							Caller:   caller,
							Callee:   trig.callee,
							Source:   src,
							Sink:     snk,
							Site:     trig.site,
						})
					}
					continue
				}
				for _, rule := range rules {
					if ruleMatches(rule, src, snk) {
						out = append(out, Finding{
							RuleCode: rule.Code,
							RuleName: rule.Name,
							Caller:   caller,
							Callee:   trig.callee,
							Source:   src,
							Sink:     snk,
							Site:     trig.site,
						})
					}
				}
			}
		}
	}
	return out
}

func ruleMatches(rule config.RuleSpec, src, snk dataflow.Kind) bool {
	srcOK, snkOK := false, false
	for _, s := range rule.Sources {
		if dataflow.Kind(s) == src {
			srcOK = true
		}
	}
	for _, s := range rule.Sinks {
		if dataflow.Kind(s) == snk {
			snkOK = true
		}
	}
	return srcOK && snkOK
}

// dedupeFindings drops repeated findings and orders the rest
// deterministically by rule, caller and site.
func dedupeFindings(findings []Finding) []Finding {
	byKey := map[string]Finding{}
	for _, f := range findings {
		byKey[f.key()] = f
	}
	out := make([]Finding, 0, len(byKey))
	for _, k := range funcutil.SortedKeys(byKey) {
		out = append(out, byKey[k])
	}
	return out
}
