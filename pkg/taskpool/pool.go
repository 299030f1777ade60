package taskpool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

const maxIdentityLen = 60

type job[T any] struct {
	index int
	item  T
}

// Run hands every item to handler using at most concurrency workers and
// returns once all items have been attempted exactly once.
//
// Workers drain a shared channel, so processing order is not related to input
// order. The returned outcomes are sorted back into input order. A handler
// error or panic is recorded as that item's failure and never stops the other
// workers.
//
// concurrency <= 0 or an empty items slice is a no-op.
func Run[T, U any](
	ctx context.Context,
	items []T,
	concurrency int,
	handler func(ctx context.Context, item T) (U, error),
	opts ...Option,
) Report[T, U] {
	if concurrency <= 0 || len(items) == 0 {
		return Report[T, U]{}
	}

	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	workers := min(concurrency, len(items))

	queue := make(chan job[T], len(items))
	for i, item := range items {
		queue <- job[T]{index: i, item: item}
	}
	close(queue)

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome[T, U], 0, len(items))
	)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		worker := w
		g.Go(func() error {
			for j := range queue {
				value, err := invoke(ctx, handler, j.item)
				if err != nil && cfg.onFailure != nil {
					cfg.onFailure(worker, j.index, truncate(identityOf(j.item)), err)
				}

				mu.Lock()
				outcomes = append(outcomes, Outcome[T, U]{
					Index: j.index,
					Item:  j.item,
					Value: value,
					Err:   err,
				})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(a, b int) bool {
		return outcomes[a].Index < outcomes[b].Index
	})

	return Report[T, U]{
		outcomes: outcomes,
		workers:  workers,
	}
}

func invoke[T, U any](
	ctx context.Context,
	handler func(ctx context.Context, item T) (U, error),
	item T,
) (value U, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero U
			value = zero
			err = &PanicError{Value: r}
		}
	}()
	return handler(ctx, item)
}

func identityOf(item any) string {
	if s, ok := item.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", item)
}

// truncate keeps at most maxIdentityLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxIdentityLen {
		return s
	}
	cut := maxIdentityLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
