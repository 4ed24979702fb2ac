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

// Package dataflow defines the abstract taint domains and the model algebra
// of the analysis: taint kinds and access paths, the taint-tree semi-lattice,
// per-callable models with their analysis modes, and the immutable model
// mappings shared between analysis rounds. It also declares the external
// resolver and call-graph interfaces the analysis drivers consume.
//
// Everything in this package is pure value algebra: join, partition and merge
// return fresh structures and never mutate their inputs, which is what makes
// the interprocedural summarization order-independent and safe to parallelize.
package dataflow
