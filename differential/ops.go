// Package differential replays one operation sequence against two stacks and
// reports whether they behaved identically at every step.
package differential

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

type OpKind uint8

const (
	OpPush OpKind = iota
	OpPop
)

func (k OpKind) String() string {
	switch k {
	case OpPush:
		return "push"
	case OpPop:
		return "pop"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// popThreshold splits the byte space: lower bytes push their own value,
// the top quarter pops.
const popThreshold = 0xC0

type Op[T any] struct {
	Kind  OpKind
	Value T
}

func (o Op[T]) String() string {
	if o.Kind == OpPush {
		return fmt.Sprintf("push(%v)", o.Value)
	}
	return o.Kind.String()
}

// Decode turns each byte of data into one operation.
func Decode[T constraints.Integer](data []byte) []Op[T] {
	ops := make([]Op[T], 0, len(data))
	for _, b := range data {
		if b >= popThreshold {
			ops = append(ops, Op[T]{Kind: OpPop})
			continue
		}
		ops = append(ops, Op[T]{Kind: OpPush, Value: T(b)})
	}
	return ops
}

// Fill pushes each of the first limit bytes and then pops everything back.
func Fill[T constraints.Integer](data []byte, limit int) []Op[T] {
	if len(data) > limit {
		data = data[:limit]
	}
	ops := make([]Op[T], 0, 2*len(data))
	for _, b := range data {
		ops = append(ops, Op[T]{Kind: OpPush, Value: T(b)})
	}
	for range data {
		ops = append(ops, Op[T]{Kind: OpPop})
	}
	return ops
}
