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

package dataflow

import (
	"github.com/argus-tools/argus/analysis/config"
)

// An AnalyzerState carries everything one analysis round reads: the
// configuration, the logger, the external resolver and call graph, and the
// frozen previous-round model mapping. The state is a snapshot; analysis of a
// callable only reads it and returns a fresh model, so independent callables
// can be analyzed in parallel against the same state.
type AnalyzerState struct {
	Config *config.Config

	Logger *config.LogGroup

	Resolver Resolver

	CallGraph CallGraph

	// Models is the frozen model mapping of the previous round. A callee's
	// last-computed model stands in for its effect at call boundaries.
	Models ModelMapping
}

// NewAnalyzerState assembles a state from its parts.
func NewAnalyzerState(cfg *config.Config, logger *config.LogGroup, resolver Resolver, callGraph CallGraph, models ModelMapping) *AnalyzerState {
	return &AnalyzerState{
		Config:    cfg,
		Logger:    logger,
		Resolver:  resolver,
		CallGraph: callGraph,
		Models:    models,
	}
}

// WithModels returns a state identical to s but reading the given mapping.
// The fixpoint driver calls this between rounds after merging fresh models.
func (s *AnalyzerState) WithModels(models ModelMapping) *AnalyzerState {
	return &AnalyzerState{
		Config:    s.Config,
		Logger:    s.Logger,
		Resolver:  s.Resolver,
		CallGraph: s.CallGraph,
		Models:    models,
	}
}

// CalleeModel returns the joined model of all resolved targets of a call
// site, read from the frozen mapping.
func (s *AnalyzerState) CalleeModel(targets []Callable) Model {
	m := EmptyModel()
	for _, t := range targets {
		m = MergeModels(m, s.Models.Resolve(t))
	}
	return m
}
