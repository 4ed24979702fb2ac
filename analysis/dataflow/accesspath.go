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
	"fmt"
	"strings"
)

// RootKind distinguishes the positions taint can attach to.
type RootKind int

const (
	// ParameterRoot is a formal parameter of the callable, identified by name.
	ParameterRoot RootKind = iota

	// ReturnRoot is the return value of the callable.
	ReturnRoot

	// LocalRoot is a local variable, used by in-progress analysis states.
	LocalRoot

	// CallTargetRoot is the call-target position itself, used by obscure sink
	// markers: taint on any argument of a call to the target matches it.
	CallTargetRoot
)

// A Root is the base of an access path.
type Root struct {
	Kind RootKind

	// Name identifies parameter and local roots; empty for return and
	// call-target roots.
	Name string
}

func (r Root) String() string {
	switch r.Kind {
	case ParameterRoot:
		return fmt.Sprintf("arg(%s)", r.Name)
	case ReturnRoot:
		return "ret"
	case LocalRoot:
		return fmt.Sprintf("local(%s)", r.Name)
	case CallTargetRoot:
		return "call-target"
	default:
		return fmt.Sprintf("root(%d,%s)", int(r.Kind), r.Name)
	}
}

// An AccessPath is a root plus a sequence of field and index accesses,
// encoded as a string of ".field" and "[*]" elements. Access paths are pure
// values and usable as map keys.
type AccessPath struct {
	Root Root
	Path string
}

// NewParameterPath returns an access path rooted at the named parameter.
func NewParameterPath(name string, path string) AccessPath {
	return AccessPath{Root: Root{Kind: ParameterRoot, Name: name}, Path: path}
}

// NewReturnPath returns an access path rooted at the return value.
func NewReturnPath(path string) AccessPath {
	return AccessPath{Root: Root{Kind: ReturnRoot}, Path: path}
}

// NewLocalPath returns an access path rooted at a local variable.
func NewLocalPath(name string, path string) AccessPath {
	return AccessPath{Root: Root{Kind: LocalRoot, Name: name}, Path: path}
}

// NewCallTargetPath returns the call-target access path.
func NewCallTargetPath() AccessPath {
	return AccessPath{Root: Root{Kind: CallTargetRoot}}
}

func (ap AccessPath) String() string {
	return ap.Root.String() + ap.Path
}

// WithField returns the access path extended by a field element.
func (ap AccessPath) WithField(field string) AccessPath {
	return AccessPath{Root: ap.Root, Path: ap.Path + "." + field}
}

// WithIndex returns the access path extended by an index element.
func (ap AccessPath) WithIndex() AccessPath {
	return AccessPath{Root: ap.Root, Path: ap.Path + "[*]"}
}

// PathElements splits an encoded path into its elements.
func PathElements(path string) []string {
	var elems []string
	for len(path) > 0 {
		switch {
		case strings.HasPrefix(path, "[*]"):
			elems = append(elems, "[*]")
			path = path[3:]
		case strings.HasPrefix(path, "."):
			end := len(path)
			for i := 1; i < len(path); i++ {
				if path[i] == '.' || path[i] == '[' {
					end = i
					break
				}
			}
			elems = append(elems, path[:end])
			path = path[end:]
		default:
			// Malformed remainder; keep it as one opaque element.
			elems = append(elems, path)
			path = ""
		}
	}
	return elems
}

// TruncatePath caps the number of elements in an encoded path. Bounding path
// length does not affect soundness: a truncated path covers all its
// extensions.
func TruncatePath(path string, maxLen int) string {
	elems := PathElements(path)
	if len(elems) <= maxLen {
		return path
	}
	return strings.Join(elems[:maxLen], "")
}

// PathCovers returns true when taint at the receiver covers taint at other:
// same root, and the receiver's path is a prefix of the other's.
func (ap AccessPath) PathCovers(other AccessPath) bool {
	return ap.Root == other.Root && strings.HasPrefix(other.Path, ap.Path)
}
