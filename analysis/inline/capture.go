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

package inline

import (
	"github.com/argus-tools/argus/analysis/lang"
)

// synthesizeCaptures builds the two bindings inserted at the top of a
// reconciled wrapper body: a sequence collecting the concrete parameters
// positionally and a keyed mapping collecting them by name. They stand in
// for the replaced *args/**kwargs so that a sink call on either inside the
// wrapper body observes precise per-parameter taint instead of an opaque
// blob. The decorated function's own catch-all parameters are spliced into
// both bindings.
func synthesizeCaptures(rec reconciliation, f *lang.FunctionDef) []lang.Stmt {
	tuple := &lang.Tuple{}
	mapping := &lang.Call{Func: lang.NewName("dict")}
	for _, p := range f.Params {
		switch p.Kind {
		case lang.StarParam:
			tuple.Elts = append(tuple.Elts, &lang.Starred{Value: lang.NewName(p.Name)})
		case lang.DoubleStarParam:
			mapping.Keywords = append(mapping.Keywords, lang.Keyword{Name: "", Value: lang.NewName(p.Name)})
		default:
			tuple.Elts = append(tuple.Elts, lang.NewName(p.Name))
			mapping.Keywords = append(mapping.Keywords, lang.Keyword{Name: p.Name, Value: lang.NewName(p.Name)})
		}
	}
	return []lang.Stmt{
		lang.NewAssign(rec.argsBind, tuple),
		lang.NewAssign(rec.kwargsBind, mapping),
	}
}
