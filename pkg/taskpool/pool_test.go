package taskpool_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rohmanhakim/stream-harvester/pkg/taskpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_IsolatesSingleFailure(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	var hookCalls []int
	var mu sync.Mutex
	report := taskpool.Run(context.Background(), items, 3,
		func(ctx context.Context, item int) (string, error) {
			if item == 2 {
				return "", errors.New("item 2 is poisoned")
			}
			return fmt.Sprintf("done-%d", item), nil
		},
		taskpool.WithFailureHook(func(worker int, index int, identity string, err error) {
			mu.Lock()
			defer mu.Unlock()
			hookCalls = append(hookCalls, index)
			assert.Equal(t, "2", identity)
		}),
	)

	assert.Equal(t, 5, report.Total())
	assert.Equal(t, 3, report.Workers())
	assert.Len(t, report.Successes(), 4)
	require.Len(t, report.Failures(), 1)
	assert.Equal(t, 2, report.Failures()[0].Item)
	assert.EqualError(t, report.Failures()[0].Err, "item 2 is poisoned")
	assert.Equal(t, []int{2}, hookCalls)
}

func TestRun_EveryItemFails(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	report := taskpool.Run(context.Background(), items, 7,
		func(ctx context.Context, item int) (int, error) {
			return 0, fmt.Errorf("fail %d", item)
		},
	)

	assert.Equal(t, 50, report.Total())
	assert.Len(t, report.Failures(), 50)
	assert.Empty(t, report.Successes())
}

func TestRun_InvokesHandlerExactlyOncePerItem(t *testing.T) {
	for _, concurrency := range []int{1, 2, 5, 16, 200} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			const n = 100
			items := make([]int, n)
			for i := range items {
				items[i] = i
			}

			var calls [n]int32
			report := taskpool.Run(context.Background(), items, concurrency,
				func(ctx context.Context, item int) (int, error) {
					atomic.AddInt32(&calls[item], 1)
					if item%3 == 0 {
						return 0, errors.New("boom")
					}
					return item * 2, nil
				},
			)

			for i := range calls {
				assert.Equal(t, int32(1), calls[i], "item %d", i)
			}
			require.Equal(t, n, report.Total())

			indexes := make([]int, 0, n)
			for _, o := range report.Outcomes() {
				indexes = append(indexes, o.Index)
				if !o.IsFailure() {
					assert.Equal(t, o.Item*2, o.Value)
				}
			}
			sort.Ints(indexes)
			for i := range indexes {
				assert.Equal(t, i, indexes[i])
			}
		})
	}
}

func TestRun_RespectsConcurrencyBound(t *testing.T) {
	items := make([]int, 30)
	var active, peak int32

	report := taskpool.Run(context.Background(), items, 4,
		func(ctx context.Context, item int) (struct{}, error) {
			now := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return struct{}{}, nil
		},
	)

	assert.Equal(t, 30, report.Total())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
	assert.Equal(t, 4, report.Workers())
}

func TestRun_EffectiveConcurrencyIsCappedByItems(t *testing.T) {
	report := taskpool.Run(context.Background(), []string{"a", "b"}, 10,
		func(ctx context.Context, item string) (string, error) {
			return item, nil
		},
	)

	assert.Equal(t, 2, report.Workers())
	assert.Equal(t, 2, report.Total())
}

func TestRun_NoOpInputs(t *testing.T) {
	called := false
	handler := func(ctx context.Context, item int) (int, error) {
		called = true
		return item, nil
	}

	tests := []struct {
		name        string
		items       []int
		concurrency int
	}{
		{name: "empty items", items: nil, concurrency: 3},
		{name: "zero concurrency", items: []int{1, 2}, concurrency: 0},
		{name: "negative concurrency", items: []int{1, 2}, concurrency: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := taskpool.Run(context.Background(), tt.items, tt.concurrency, handler)
			assert.Equal(t, 0, report.Total())
			assert.Equal(t, 0, report.Workers())
		})
	}
	assert.False(t, called)
}

func TestRun_RecoversPanickingHandler(t *testing.T) {
	report := taskpool.Run(context.Background(), []int{1, 2, 3}, 2,
		func(ctx context.Context, item int) (int, error) {
			if item == 2 {
				panic("unexpected")
			}
			return item, nil
		},
	)

	require.Len(t, report.Failures(), 1)
	var panicErr *taskpool.PanicError
	require.True(t, errors.As(report.Failures()[0].Err, &panicErr))
	assert.Equal(t, "unexpected", panicErr.Value)
	assert.Len(t, report.Successes(), 2)
}

func TestRun_TruncatesLongIdentities(t *testing.T) {
	long := "https://example.com/" + fmt.Sprintf("%0100d", 0)

	var got string
	taskpool.Run(context.Background(), []string{long}, 1,
		func(ctx context.Context, item string) (int, error) {
			return 0, errors.New("nope")
		},
		taskpool.WithFailureHook(func(worker int, index int, identity string, err error) {
			got = identity
		}),
	)

	assert.Len(t, got, 63)
	assert.Equal(t, long[:60]+"...", got)
}

func TestRun_TruncationKeepsRunesWhole(t *testing.T) {
	title := strings.Repeat("a", 59) + "éé" + strings.Repeat("b", 10)

	var got string
	taskpool.Run(context.Background(), []string{title}, 1,
		func(ctx context.Context, item string) (int, error) {
			return 0, errors.New("nope")
		},
		taskpool.WithFailureHook(func(worker int, index int, identity string, err error) {
			got = identity
		}),
	)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 59)+"...", got)
}

func TestRun_OutcomesFollowInputOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}

	report := taskpool.Run(context.Background(), items, 4,
		func(ctx context.Context, item int) (int, error) {
			// later items finish first
			time.Sleep(time.Duration(len(items)-item) * 2 * time.Millisecond)
			return item, nil
		},
	)

	require.Len(t, report.Outcomes(), len(items))
	for i, o := range report.Outcomes() {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, i, o.Item)
	}
}
