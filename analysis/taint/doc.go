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

// Package taint implements the per-callable taint analysis and the fixpoint
// driver on top of it.
//
// A callable is analyzed against a frozen snapshot of every other callable's
// model: a forward sweep over the body propagates source kinds and synthetic
// parameter marks through assignments and call boundaries, collecting
// triggered sinks along the way; a backward step converts the marks reaching
// sinks and returns into the callable's own sink and taint-in-taint-out
// summary. The callable's mode then governs post-processing: a sanitize mode
// strips the configured scopes from the fresh trees, and a skip-analysis mode
// bypasses the passes entirely and freezes the existing model.
//
// The driver iterates strongly connected components of the call graph bottom
// up, re-analyzing each component until its models stabilize, so that a
// callee's latest summary stands in for its body at every call site. Within
// a round, independent callables are analyzed in parallel against the same
// immutable snapshot.
package taint
