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

// Package scheduler runs independent units of work in parallel and folds their
// results with a caller-supplied reduction. Units of work must be pure
// functions of their inputs: all sharing happens through immutable snapshots
// passed as input, and the fold runs only after every worker has finished.
package scheduler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MapReduce applies mapFn to every input in parallel and folds the outputs
// into initial using reduceFn. The reduction must be commutative and
// associative: outputs are folded in completion order, not input order.
// The first unit failure cancels the batch and is returned.
func MapReduce[T any, R any, A any](ctx context.Context, inputs []T, mapFn func(context.Context, T) (R, error), reduceFn func(A, R) A, initial A) (A, error) {
	numWorkers := runtime.NumCPU() - 1
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return MapReduceWith(ctx, numWorkers, inputs, mapFn, reduceFn, initial)
}

// MapReduceWith is MapReduce with an explicit worker count.
func MapReduceWith[T any, R any, A any](ctx context.Context, numWorkers int, inputs []T, mapFn func(context.Context, T) (R, error), reduceFn func(A, R) A, initial A) (A, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	out := make(chan R, len(inputs))
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			r, err := mapFn(ctx, input)
			if err != nil {
				return err
			}
			select {
			case out <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	err := g.Wait()
	close(out)
	if err != nil {
		return initial, err
	}

	acc := initial
	for r := range out {
		acc = reduceFn(acc, r)
	}
	return acc, nil
}
