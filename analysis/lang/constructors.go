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

package lang

// NewName returns a new identifier reference.
func NewName(id string) *Name {
	return &Name{Id: id}
}

// NewString returns a string literal constant.
func NewString(value string) *Constant {
	return &Constant{Value: "\"" + value + "\""}
}

// NewCall returns a call with positional arguments only.
func NewCall(fn Expr, args ...Expr) *Call {
	return &Call{Func: fn, Args: args}
}

// NewAssign returns an assignment to a simple name.
func NewAssign(target string, value Expr) *Assign {
	return &Assign{Target: NewName(target), Value: value}
}

// NewTuple returns a tuple of the given elements.
func NewTuple(elts ...Expr) *Tuple {
	return &Tuple{Elts: elts}
}

// NewDict returns a dict with parallel keys and values.
func NewDict(keys []Expr, values []Expr) *Dict {
	return &Dict{Keys: keys, Values: values}
}

// NewParams builds plain positional parameters from names.
func NewParams(names ...string) []Param {
	var out []Param
	for _, n := range names {
		out = append(out, Param{Name: n, Kind: PosParam})
	}
	return out
}
