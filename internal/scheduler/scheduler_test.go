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

package scheduler

import (
	"context"
	"errors"
	"testing"
)

func TestMapReduceSum(t *testing.T) {
	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i + 1
	}
	got, err := MapReduce(context.Background(), inputs,
		func(_ context.Context, x int) (int, error) { return x * 2, nil },
		func(acc, x int) int { return acc + x },
		0)
	if err != nil {
		t.Fatalf("MapReduce: %v", err)
	}
	if got != 10100 {
		t.Errorf("got %d, want 10100", got)
	}
}

func TestMapReduceEmptyInputs(t *testing.T) {
	got, err := MapReduce(context.Background(), nil,
		func(_ context.Context, x int) (int, error) { return x, nil },
		func(acc, x int) int { return acc + x },
		42)
	if err != nil {
		t.Fatalf("MapReduce: %v", err)
	}
	if got != 42 {
		t.Errorf("expected the initial accumulator, got %d", got)
	}
}

func TestMapReduceFirstErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	_, err := MapReduceWith(context.Background(), 2, []int{1, 2, 3, 4},
		func(_ context.Context, x int) (int, error) {
			if x == 3 {
				return 0, boom
			}
			return x, nil
		},
		func(acc, x int) int { return acc + x },
		0)
	if !errors.Is(err, boom) {
		t.Errorf("expected the unit error, got %v", err)
	}
}

func TestMapReduceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MapReduce(ctx, []int{1, 2, 3},
		func(ctx context.Context, x int) (int, error) {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
				return x, nil
			}
		},
		func(acc, x int) int { return acc + x },
		0)
	if err == nil {
		t.Error("expected a cancellation error")
	}
}
