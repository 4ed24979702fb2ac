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
	"context"
	"fmt"

	"github.com/argus-tools/argus/analysis/dataflow"
	"github.com/argus-tools/argus/analysis/lang"
	"github.com/argus-tools/argus/internal/scheduler"
)

// maxComponentRounds caps re-analysis of one strongly connected component.
// Kind sets are finite and all updates join, so convergence is guaranteed;
// the cap only guards against a broken external model feed.
const maxComponentRounds = 32

// AnalyzeCallable analyzes one callable against the frozen state and returns
// its fresh model and the findings confirmed inside its body. The existing
// model's mode drives the dispatch exhaustively: skip-analysis returns the
// unchanged model with no findings, the other two modes run the forward and
// backward passes, and a sanitize mode additionally strips its scopes from
// the fresh trees. Nothing in here mutates another callable's model.
func AnalyzeCallable(state *dataflow.AnalyzerState, c dataflow.Callable, fd *lang.FunctionDef) (dataflow.Model, []Finding) {
	existing := state.Models.Resolve(c)
	switch existing.Mode.Kind {
	case dataflow.SkipAnalysis:
		state.Logger.Infof("skipping %s: model is frozen", c)
		return existing.Copy(), nil

	case dataflow.Normal, dataflow.Sanitize:
		fwd := runForward(state, c, fd, existing)
		model := runBackward(fwd, existing)
		findings := matchFindings(state.Config, c, fwd)

		if existing.Mode.Kind == dataflow.Sanitize {
			model.Sources = existing.Mode.Sources.Apply(model.Sources)
			model.Sinks = existing.Mode.Sinks.Apply(model.Sinks)
			model.Tito = existing.Mode.Tito.Apply(model.Tito)
		}
		return model, findings

	default:
		panic(fmt.Sprintf("unexpected analysis mode %v", existing.Mode.Kind))
	}
}

// Analyze runs the fixpoint over every callable with a known body whose name
// passes the configured package filter. Strongly connected components are
// visited bottom-up; each component is re-analyzed until its models stop
// changing, its members running in parallel against the same frozen snapshot
// each round. The returned mapping holds the stabilized models; findings are
// deduplicated across rounds.
func Analyze(ctx context.Context, state *dataflow.AnalyzerState, graph *dataflow.CallableGraph, defs map[dataflow.Callable]*lang.FunctionDef) (dataflow.ModelMapping, []Finding, error) {
	models := state.Models.Copy()
	var findings []Finding

	for _, component := range graph.AnalysisOrder() {
		var members []dataflow.Callable
		for _, c := range component {
			if _, ok := defs[c]; ok && state.Config.MatchPkgFilter(c.Name) {
				members = append(members, c)
			}
		}
		if len(members) == 0 {
			continue
		}

		for round := 0; round < maxComponentRounds; round++ {
			snapshot := state.WithModels(models)
			result, err := scheduler.MapReduce(ctx, members,
				func(_ context.Context, c dataflow.Callable) (callableResult, error) {
					model, found := AnalyzeCallable(snapshot, c, defs[c])
					return callableResult{callable: c, model: model, findings: found}, nil
				},
				func(acc roundResult, one callableResult) roundResult {
					acc.models = acc.models.WithModel(one.callable, one.model)
					acc.findings = append(acc.findings, one.findings...)
					return acc
				},
				roundResult{models: models})
			if err != nil {
				return nil, nil, err
			}

			findings = append(findings, result.findings...)
			stable := mappingsEqualOn(models, result.models, members)
			models = result.models
			if stable {
				break
			}
		}
	}
	return models, dedupeFindings(findings), nil
}

type callableResult struct {
	callable dataflow.Callable
	model    dataflow.Model
	findings []Finding
}

type roundResult struct {
	models   dataflow.ModelMapping
	findings []Finding
}

func mappingsEqualOn(a, b dataflow.ModelMapping, callables []dataflow.Callable) bool {
	for _, c := range callables {
		if !a.Resolve(c).Equal(b.Resolve(c)) {
			return false
		}
	}
	return true
}
