/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package deferred provides a result that is either available immediately or
// still pending.
//
// Host filesystems may complete operations synchronously or later. Both are
// represented by the same Result type, and consumers always Await it, so no
// caller needs to branch on which kind of host it is talking to.
package deferred

import (
	"context"
	"sync"
)

// Result holds the outcome of an operation that may not have finished yet.
// A Result settles exactly once and is safe for concurrent use.
type Result[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// Value returns an already-settled successful Result.
func Value[T any](v T) *Result[T] {
	r := newResult[T]()
	r.settle(v, nil)
	return r
}

// Fail returns an already-settled failed Result.
func Fail[T any](err error) *Result[T] {
	var zero T
	r := newResult[T]()
	r.settle(zero, err)
	return r
}

// From settles a Result from a synchronous call's return values.
func From[T any](v T, err error) *Result[T] {
	r := newResult[T]()
	r.settle(v, err)
	return r
}

// Go runs fn on a new goroutine and returns a pending Result for it.
func Go[T any](fn func() (T, error)) *Result[T] {
	r := newResult[T]()
	go func() {
		v, err := fn()
		r.settle(v, err)
	}()
	return r
}

// Pending returns an unsettled Result and the function that settles it.
// Calls to settle after the first are ignored.
func Pending[T any]() (*Result[T], func(T, error)) {
	r := newResult[T]()
	return r, r.settle
}

// Ready reports whether the Result has settled.
func (r *Result[T]) Ready() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Await blocks until the Result settles or ctx is done.
// Cancelling ctx stops the wait only; the underlying operation still runs to completion.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.val, r.err
	default:
	}
	select {
	case <-r.done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then returns a Result that applies fn to this Result's value once it settles.
func Then[T, U any](r *Result[T], fn func(T) (U, error)) *Result[U] {
	if r.Ready() {
		if r.err != nil {
			return Fail[U](r.err)
		}
		return From(fn(r.val))
	}
	return Go(func() (U, error) {
		<-r.done
		if r.err != nil {
			var zero U
			return zero, r.err
		}
		return fn(r.val)
	})
}

// MapErr returns a Result whose error, if any, is replaced by fn(err).
func MapErr[T any](r *Result[T], fn func(error) error) *Result[T] {
	if r.Ready() {
		if r.err == nil {
			return r
		}
		return From(r.val, fn(r.err))
	}
	return Go(func() (T, error) {
		<-r.done
		if r.err != nil {
			return r.val, fn(r.err)
		}
		return r.val, nil
	})
}

func newResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

func (r *Result[T]) settle(v T, err error) {
	r.once.Do(func() {
		r.val = v
		r.err = err
		close(r.done)
	})
}
