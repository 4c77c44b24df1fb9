/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package deferred

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestValue_IsReady(t *testing.T) {
	r := Value(42)
	if !r.Ready() {
		t.Fatal("expected settled result")
	}
	got, err := r.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("Await() = %d, want 42", got)
	}
}

func TestFail_ReturnsError(t *testing.T) {
	want := errors.New("boom")
	_, err := Fail[string](want).Await(context.Background())
	if !errors.Is(err, want) {
		t.Errorf("Await() error = %v, want %v", err, want)
	}
}

func TestPending_SettlesOnce(t *testing.T) {
	r, settle := Pending[string]()
	if r.Ready() {
		t.Fatal("expected pending result")
	}

	settle("first", nil)
	settle("second", errors.New("ignored"))

	got, err := r.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first" {
		t.Errorf("Await() = %q, want %q", got, "first")
	}
}

func TestAwait_ContextCancelled(t *testing.T) {
	r, settle := Pending[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Await(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await() error = %v, want DeadlineExceeded", err)
	}

	// The operation still completes after the waiter gives up.
	settle(7, nil)
	got, err := r.Await(context.Background())
	if err != nil || got != 7 {
		t.Errorf("Await() = %d, %v, want 7, nil", got, err)
	}
}

func TestGo_ConcurrentAwait(t *testing.T) {
	release := make(chan struct{})
	r := Go(func() (int, error) {
		<-release
		return 3, nil
	})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := r.Await(context.Background())
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	for i, v := range results {
		if v != 3 {
			t.Errorf("waiter %d got %d, want 3", i, v)
		}
	}
}

func TestThen(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		r := Then(Value(2), func(v int) (string, error) {
			if v != 2 {
				t.Errorf("fn got %d, want 2", v)
			}
			return "two", nil
		})
		if !r.Ready() {
			t.Error("expected settled result for settled input")
		}
		got, _ := r.Await(context.Background())
		if got != "two" {
			t.Errorf("Await() = %q, want %q", got, "two")
		}
	})

	t.Run("pending", func(t *testing.T) {
		in, settle := Pending[int]()
		out := Then(in, func(v int) (int, error) { return v * 10, nil })
		settle(4, nil)
		got, err := out.Await(context.Background())
		if err != nil || got != 40 {
			t.Errorf("Await() = %d, %v, want 40, nil", got, err)
		}
	})

	t.Run("error skips fn", func(t *testing.T) {
		want := errors.New("nope")
		out := Then(Fail[int](want), func(int) (int, error) {
			t.Error("fn should not run")
			return 0, nil
		})
		if _, err := out.Await(context.Background()); !errors.Is(err, want) {
			t.Errorf("Await() error = %v, want %v", err, want)
		}
	})
}
