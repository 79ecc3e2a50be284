// Package stack implements fixed-capacity LIFO stacks in two flavours: Manual,
// which owns a raw slot region and tracks initialised slots by hand, and
// Managed, which delegates storage to a slice.
package stack

import (
	"errors"
	"fmt"
	"strings"
)

// Stack is the contract shared by both implementations. A Stack is not safe
// for concurrent use.
type Stack[T any] interface {
	Push(value T)
	Pop() (T, bool)
	Len() int
	IsEmpty() bool
	Cap() int
}

var (
	_ Stack[int] = (*Manual[int])(nil)
	_ Stack[int] = (*Managed[int])(nil)
)

// Fatal conditions. These are never returned; they are the values wrapped by
// the error a stack panics with.
var (
	ErrZeroCapacity = errors.New("stack: capacity must be greater than zero")
	ErrOverflow     = errors.New("stack: overflow")
	ErrAllocation   = errors.New("stack: allocation failed")
	ErrReleased     = errors.New("stack: use after release")
	ErrVariant      = errors.New("stack: unknown variant")
)

func fatal(sentinel error, format string, args ...any) {
	panic(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

func checkCapacity(capacity int) {
	if capacity <= 0 {
		fatal(ErrZeroCapacity, "got %d", capacity)
	}
}

type Variant int

const (
	VariantManual Variant = iota
	VariantManaged
)

func (v Variant) String() string {
	switch v {
	case VariantManual:
		return "manual"
	case VariantManaged:
		return "managed"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manual", "unsafe":
		return VariantManual, nil
	case "managed", "safe":
		return VariantManaged, nil
	}
	return 0, fmt.Errorf("unknown stack variant %q", s)
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// New constructs a stack of the given variant. Manual stacks returned from
// here should still be released by the caller; see Release.
func New[T any](v Variant, capacity int) Stack[T] {
	switch v {
	case VariantManual:
		return NewManual[T](capacity)
	case VariantManaged:
		return NewManaged[T](capacity)
	default:
		fatal(ErrVariant, "%v", v)
		return nil
	}
}

// Release tears down s if it owns storage that must be released by hand.
func Release[T any](s Stack[T]) {
	if r, ok := s.(interface{ Release() }); ok {
		r.Release()
	}
}
