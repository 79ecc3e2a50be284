package stack

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type constructor struct {
	name string
	new  func(capacity int) Stack[int]
}

func constructors() []constructor {
	return []constructor{
		{"manual", func(capacity int) Stack[int] { return NewManual[int](capacity) }},
		{"managed", func(capacity int) Stack[int] { return NewManaged[int](capacity) }},
	}
}

// requireFatal runs fn and requires it to panic with an error wrapping sentinel.
func requireFatal(t *testing.T, sentinel error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic wrapping %q", sentinel)
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.ErrorIs(t, err, sentinel)
	}()
	fn()
}

func TestStack_Fresh(t *testing.T) {
	for _, c := range constructors() {
		for _, capacity := range []int{1, 2, 3, 64, 1024} {
			s := c.new(capacity)
			require.Equal(t, 0, s.Len(), c.name)
			require.True(t, s.IsEmpty(), c.name)
			require.Equal(t, capacity, s.Cap(), c.name)
			Release(s)
		}
	}
}

func TestStack_PushPop(t *testing.T) {
	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			s := c.new(3)
			defer Release(s)

			s.Push(1)
			s.Push(2)
			s.Push(3)
			require.Equal(t, 3, s.Len())
			require.False(t, s.IsEmpty())

			for _, want := range []int{3, 2, 1} {
				v, ok := s.Pop()
				require.True(t, ok)
				require.Equal(t, want, v)
			}

			_, ok := s.Pop()
			require.False(t, ok)
			require.True(t, s.IsEmpty())
		})
	}
}

func TestStack_LIFO(t *testing.T) {
	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			const capacity = 100
			s := c.new(capacity)
			defer Release(s)

			for i := 0; i < capacity; i++ {
				s.Push(i * 7)
			}
			for i := capacity - 1; i >= 0; i-- {
				v, ok := s.Pop()
				require.True(t, ok)
				require.Equal(t, i*7, v)
				require.Equal(t, i, s.Len())
			}
		})
	}
}

func TestStack_RoundTrip(t *testing.T) {
	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			rnd := rand.New(rand.NewSource(42))
			s := c.new(17)
			defer Release(s)

			var model []int
			pushes, pops := 0, 0
			for i := 0; i < 5000; i++ {
				if rnd.Intn(2) == 0 && s.Len() < s.Cap() {
					v := rnd.Int()
					s.Push(v)
					model = append(model, v)
					pushes++
					continue
				}
				v, ok := s.Pop()
				if len(model) == 0 {
					require.False(t, ok)
					continue
				}
				require.True(t, ok)
				require.Equal(t, model[len(model)-1], v)
				model = model[:len(model)-1]
				pops++
			}
			require.Equal(t, pushes-pops, s.Len())

			for !s.IsEmpty() {
				s.Pop()
			}
			_, ok := s.Pop()
			require.False(t, ok)
		})
	}
}

func TestStack_Overflow(t *testing.T) {
	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			s := c.new(2)
			defer Release(s)

			s.Push(1)
			s.Push(2)
			requireFatal(t, ErrOverflow, func() { s.Push(3) })
		})
	}
}

func TestStack_OverflowBoundary(t *testing.T) {
	for _, c := range constructors() {
		for _, capacity := range []int{1, 5, 256} {
			s := c.new(capacity)
			for i := 0; i < capacity; i++ {
				s.Push(i)
			}
			require.Equal(t, capacity, s.Len())
			requireFatal(t, ErrOverflow, func() { s.Push(capacity) })
			require.Equal(t, capacity, s.Len())
			Release(s)
		}
	}
}

func TestStack_Underflow(t *testing.T) {
	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			s := c.new(4)
			defer Release(s)

			for i := 0; i < 3; i++ {
				v, ok := s.Pop()
				require.False(t, ok)
				require.Zero(t, v)
				require.Equal(t, 0, s.Len())
			}
		})
	}
}

func TestStack_ZeroCapacity(t *testing.T) {
	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			requireFatal(t, ErrZeroCapacity, func() { c.new(0) })
			requireFatal(t, ErrZeroCapacity, func() { c.new(-1) })
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		variant Variant
		want    any
	}{
		{VariantManual, &Manual[string]{}},
		{VariantManaged, &Managed[string]{}},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			s := New[string](tt.variant, 8)
			defer Release(s)
			require.IsType(t, tt.want, s)
			require.Equal(t, 8, s.Cap())
		})
	}

	requireFatal(t, ErrVariant, func() { New[string](Variant(7), 8) })
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"manual", VariantManual, false},
		{"Managed", VariantManaged, false},
		{" unsafe ", VariantManual, false},
		{"safe", VariantManaged, false},
		{"heap", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestVariant_Text(t *testing.T) {
	text, err := VariantManaged.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "managed", string(text))

	var v Variant
	require.NoError(t, v.UnmarshalText([]byte("manual")))
	require.Equal(t, VariantManual, v)
	require.Error(t, v.UnmarshalText([]byte("ring")))
}
