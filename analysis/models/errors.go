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

package models

import (
	"fmt"
	"sort"
)

// Error categories of model verification.
const (
	// CategorySyntax tags malformed annotation text.
	CategorySyntax = "syntax"

	// CategorySemantic tags references to unknown kinds, unknown callables or
	// parameters that do not exist on the target signature.
	CategorySemantic = "semantic"
)

// A VerificationError records one model verification failure. Verification
// errors accumulate in lists and are never thrown as control flow; whether a
// non-empty list is fatal is the caller's policy, not the parser's.
type VerificationError struct {
	// Path is the model document the error was found in.
	Path string `json:"path"`

	// Line is the 1-based line number of the offending clause.
	Line int `json:"line"`

	// Category is one of the Category* constants.
	Category string `json:"category"`

	// Message is the human-readable description.
	Message string `json:"message"`
}

func (e VerificationError) Error() string {
	return fmt.Sprintf("%s:%d: %s error: %s", e.Path, e.Line, e.Category, e.Message)
}

func syntaxError(path string, line int, format string, args ...any) VerificationError {
	return VerificationError{Path: path, Line: line, Category: CategorySyntax, Message: fmt.Sprintf(format, args...)}
}

func semanticError(path string, line int, format string, args ...any) VerificationError {
	return VerificationError{Path: path, Line: line, Category: CategorySemantic, Message: fmt.Sprintf(format, args...)}
}

// SortErrors orders errors by path, then line, then message, for
// deterministic reports independent of parse order.
func SortErrors(errs []VerificationError) {
	sort.Slice(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Message < b.Message
	})
}
