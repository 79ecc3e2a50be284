package stacks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aleph-zero/stacklab/stack"
	"github.com/stretchr/testify/require"
)

func setupSuite(tb testing.TB) (func(tb testing.TB), *ServiceProvider) {
	svc := NewService(NewConfig(WithMaxCapacity(64)))
	return func(tb testing.TB) { svc.Close(context.Background()) }, svc
}

func TestServiceProvider_PushPop(t *testing.T) {
	ctx := context.Background()
	teardown, svc := setupSuite(t)
	defer teardown(t)

	for _, variant := range []stack.Variant{stack.VariantManual, stack.VariantManaged} {
		t.Run(variant.String(), func(t *testing.T) {
			info, err := svc.Create(ctx, variant, 3)
			require.NoError(t, err)
			require.Equal(t, variant, info.Variant)
			require.Equal(t, 3, info.Capacity)
			require.Equal(t, 0, info.Len)

			for _, v := range []int64{1, 2, 3} {
				info, err = svc.Push(ctx, info.ID, v)
				require.NoError(t, err)
			}
			require.Equal(t, 3, info.Len)

			_, err = svc.Push(ctx, info.ID, 4)
			require.True(t, errors.Is(err, Error{ErrorCode: StackFull}))

			for _, want := range []int64{3, 2, 1} {
				res, err := svc.Pop(ctx, info.ID)
				require.NoError(t, err)
				require.True(t, res.Present)
				require.Equal(t, want, *res.Value)
			}

			res, err := svc.Pop(ctx, info.ID)
			require.NoError(t, err)
			require.False(t, res.Present)
			require.Nil(t, res.Value)
			require.Equal(t, 0, res.Len)
		})
	}
}

func TestServiceProvider_Create(t *testing.T) {
	ctx := context.Background()
	teardown, svc := setupSuite(t)
	defer teardown(t)

	tests := []struct {
		name     string
		variant  stack.Variant
		capacity int
		code     ErrorCode
	}{
		{"zero capacity", stack.VariantManual, 0, InvalidCapacity},
		{"negative capacity", stack.VariantManaged, -3, InvalidCapacity},
		{"above maximum", stack.VariantManual, 65, InvalidCapacity},
		{"unknown variant", stack.Variant(9), 4, InvalidVariant},
		{"at maximum", stack.VariantManual, 64, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.Create(ctx, tt.variant, tt.capacity)
			if tt.code == 0 {
				require.NoError(t, err)
				require.Equal(t, tt.capacity, info.Capacity)
				return
			}
			require.True(t, errors.Is(err, Error{ErrorCode: tt.code}), "got %v", err)
		})
	}
}

func TestServiceProvider_GetListDelete(t *testing.T) {
	ctx := context.Background()
	teardown, svc := setupSuite(t)
	defer teardown(t)

	a, err := svc.Create(ctx, stack.VariantManual, 2)
	require.NoError(t, err)
	b, err := svc.Create(ctx, stack.VariantManaged, 2)
	require.NoError(t, err)

	_, err = svc.Push(ctx, a.ID, 7)
	require.NoError(t, err)

	got, err := svc.Get(a.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len)

	ids := []string{}
	for _, info := range svc.List() {
		ids = append(ids, info.ID)
	}
	require.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Get(a.ID)
	require.True(t, errors.Is(err, Error{ErrorCode: NoSuchStack}))
	require.True(t, errors.Is(svc.Delete(ctx, a.ID), Error{ErrorCode: NoSuchStack}))
	_, err = svc.Pop(ctx, a.ID)
	require.Error(t, err)
	_, err = svc.Push(ctx, a.ID, 1)
	require.Error(t, err)

	require.Len(t, svc.List(), 1)
	svc.Close(ctx)
	require.Empty(t, svc.List())
}

func TestServiceProvider_ConcurrentPush(t *testing.T) {
	ctx := context.Background()
	teardown, svc := setupSuite(t)
	defer teardown(t)

	info, err := svc.Create(ctx, stack.VariantManual, 64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	full := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			if _, err := svc.Push(ctx, info.ID, v); err != nil {
				mu.Lock()
				full++
				mu.Unlock()
			}
		}(int64(i))
	}
	wg.Wait()

	got, err := svc.Get(info.ID)
	require.NoError(t, err)
	require.Equal(t, 64, got.Len)
	require.Equal(t, 36, full)
}

func TestError_Is(t *testing.T) {
	err := Error{ErrorCode: StackFull, Message: "stack x is full"}
	require.True(t, errors.Is(err, Error{ErrorCode: StackFull}))
	require.True(t, errors.Is(err, Error{Message: "stack x is full"}))
	require.False(t, errors.Is(err, Error{ErrorCode: NoSuchStack}))

	wrapped := Error{ErrorCode: NoSuchStack, Message: "m", Err: context.Canceled}
	require.ErrorIs(t, wrapped, context.Canceled)
}
