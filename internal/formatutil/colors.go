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

// Package formatutil manipulates string colors and other formatting operations.
package formatutil

import (
	"fmt"

	"github.com/gookit/color"
	"golang.org/x/term"
)

var (
	Bold    = wrap(color.OpBold)
	Faint   = wrap(color.OpFuzzy)
	Italic  = wrap(color.OpItalic)
	Red     = wrap(color.FgRed)
	Green   = wrap(color.FgGreen)
	Yellow  = wrap(color.FgYellow)
	Magenta = wrap(color.FgMagenta)
	Cyan    = wrap(color.FgCyan)
)

// wrap returns a formatter that applies the color only when standard output is a terminal.
func wrap(c color.Color) func(...interface{}) string {
	return func(args ...interface{}) string {
		if term.IsTerminal(1) {
			return c.Render(args...)
		}
		return fmt.Sprint(args...)
	}
}

// Sanitize is a simple sanitizer that removes all escape sequences
func Sanitize(s string) string {
	r := fmt.Sprintf("%q", s)
	if len(r) >= 2 {
		return r[1 : len(r)-1]
	}
	return r
}

// SanitizeRepr is a simple sanitizer that removes all escape sequences from the string representation of an object
func SanitizeRepr(s fmt.Stringer) string {
	return Sanitize(s.String())
}
