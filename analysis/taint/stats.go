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
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/argus-tools/argus/analysis/config"
	"github.com/argus-tools/argus/analysis/dataflow"
)

// Stats summarizes a final model mapping: how many callables carry taint in
// each direction and how wide their summaries are.
type Stats struct {
	Callables    int     `json:"callables"`
	WithSources  int     `json:"with_sources"`
	WithSinks    int     `json:"with_sinks"`
	WithTito     int     `json:"with_tito"`
	Skipped      int     `json:"skipped"`
	Sanitizing   int     `json:"sanitizing"`
	TotalLeaves  int     `json:"total_leaves"`
	MeanLeaves   float64 `json:"mean_leaves"`
	MedianLeaves float64 `json:"median_leaves"`
	StdDevLeaves float64 `json:"stddev_leaves"`
}

// ComputeStats folds the mapping into summary statistics. The leaf counts
// feed the distribution figures; a callable with an empty model counts as
// zero leaves.
func ComputeStats(models dataflow.ModelMapping) Stats {
	s := Stats{Callables: len(models)}
	var leaves []float64
	for _, m := range models {
		n := m.Sources.Size() + m.Sinks.Size() + m.Tito.Size()
		leaves = append(leaves, float64(n))
		s.TotalLeaves += n
		if !m.Sources.IsBottom() {
			s.WithSources++
		}
		if !m.Sinks.IsBottom() {
			s.WithSinks++
		}
		if !m.Tito.IsBottom() {
			s.WithTito++
		}
		switch m.Mode.Kind {
		case dataflow.SkipAnalysis:
			s.Skipped++
		case dataflow.Sanitize:
			s.Sanitizing++
		}
	}
	if len(leaves) == 0 {
		return s
	}
	sort.Float64s(leaves)
	s.MeanLeaves = stat.Mean(leaves, nil)
	s.MedianLeaves = stat.Quantile(0.5, stat.Empirical, leaves, nil)
	s.StdDevLeaves = stat.StdDev(leaves, nil)
	return s
}

// Log prints the statistics at info level.
func (s Stats) Log(logger *config.LogGroup) {
	logger.Infof("analyzed %d callable(s): %d with sources, %d with sinks, %d with pass-through",
		s.Callables, s.WithSources, s.WithSinks, s.WithTito)
	if s.Skipped > 0 || s.Sanitizing > 0 {
		logger.Infof("modes: %d skipped, %d sanitizing", s.Skipped, s.Sanitizing)
	}
	logger.Infof("summary leaves: %d total, mean %.2f, median %.1f, stddev %.2f",
		s.TotalLeaves, s.MeanLeaves, s.MedianLeaves, s.StdDevLeaves)
}
