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
	"github.com/argus-tools/argus/analysis/dataflow"
)

// runBackward confirms the forward sweep's observations against the
// callable's own boundary. Parameter marks arriving at a triggered sink
// become the callable's sink summary at those parameter positions; marks
// arriving at a return become pass-through taint-in-taint-out; real kinds
// arriving at a return become the callable's return sources. The declared
// model trees join in so that a second analysis round never loses what the
// model files stated.
func runBackward(fwd *forwardResult, declared dataflow.Model) dataflow.Model {
	out := declared.Copy()

	for _, trig := range fwd.triggered {
		_, params := splitMarks(trig.flowing)
		for _, p := range params {
			out.Sinks = out.Sinks.Join(dataflow.TreeOf(
				dataflow.NewParameterPath(p, ""), trig.sinks.Sorted()...))
		}
	}

	returnedReal, returnedParams := splitMarks(fwd.returned)
	if !returnedReal.IsEmpty() {
		ret := dataflow.NewTaintTree()
		ret.AddLeafSet(dataflow.NewReturnPath(""), returnedReal)
		out.Sources = out.Sources.Join(ret)
	}
	for _, p := range returnedParams {
		out.Tito = out.Tito.Join(dataflow.TreeOf(
			dataflow.NewParameterPath(p, ""), dataflow.PassThroughKind))
	}
	return out
}
