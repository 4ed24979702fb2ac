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

// findWrapper applies the applicability test to a decorator definition: the
// decorator is inlinable only when its body returns a nested function
// definition capturing the decorated callable (the decorator's first
// parameter) as a free variable. Returns the wrapper definition and the
// callable parameter name.
func findWrapper(dd *lang.FunctionDef) (*lang.FunctionDef, string, bool) {
	if len(dd.Params) == 0 || dd.Params[0].Kind != lang.PosParam {
		return nil, "", false
	}
	callableParam := dd.Params[0].Name
	wrapper, ok := returnedDef(dd)
	if !ok || !lang.FreeVariables(wrapper)[callableParam] {
		return nil, "", false
	}
	return wrapper, callableParam, true
}

// returnedDef finds a nested function definition returned by name from the
// body, the shape `def w(...): ...` followed by `return w`.
func returnedDef(fd *lang.FunctionDef) (*lang.FunctionDef, bool) {
	for _, s := range fd.Body {
		ret, ok := s.(*lang.Return)
		if !ok {
			continue
		}
		name, ok := ret.Value.(*lang.Name)
		if !ok {
			continue
		}
		if nested := lang.FindNestedDef(fd.Body, name.Id); nested != nil {
			return nested, true
		}
	}
	return nil, false
}
