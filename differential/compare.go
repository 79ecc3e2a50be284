package differential

import (
	"fmt"

	"github.com/aleph-zero/stacklab/stack"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/constraints"
)

// Step is what one stack observably did for one operation.
type Step[T any] struct {
	Index   int
	Op      Op[T]
	Skipped bool // push not attempted because the stack was full
	Popped  T
	Present bool
	Len     int
}

type Report[T comparable] struct {
	Labels     [2]string
	Left       []Step[T]
	Right      []Step[T]
	Divergence int // index of the first differing step, -1 if none
	Diff       string
}

func (r *Report[T]) Equivalent() bool {
	return r.Divergence < 0
}

type Summary struct {
	Steps      int  `json:"steps"`
	Pushes     int  `json:"pushes"`
	Skipped    int  `json:"skipped"`
	Pops       int  `json:"pops"`
	Empty      int  `json:"emptyPops"`
	MaxLen     int  `json:"maxLen"`
	Equivalent bool `json:"equivalent"`
	Divergence int  `json:"divergence"`
}

// Summary counts the left-hand trace.
func (r *Report[T]) Summary() Summary {
	s := Summary{
		Steps:      len(r.Left),
		Equivalent: r.Equivalent(),
		Divergence: r.Divergence,
	}
	for _, step := range r.Left {
		switch {
		case step.Op.Kind == OpPush && step.Skipped:
			s.Skipped++
		case step.Op.Kind == OpPush:
			s.Pushes++
		case step.Present:
			s.Pops++
		default:
			s.Empty++
		}
		s.MaxLen = max(s.MaxLen, step.Len)
	}
	return s
}

type MismatchError struct {
	Step int
	Diff string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("stacks diverged at step %d", e.Step)
}

// Compare applies ops to left and right in lockstep and then pops both until
// empty. A push is only issued to a stack that has room, so neither stack is
// ever driven into overflow.
func Compare[T comparable](ops []Op[T], left, right stack.Stack[T]) *Report[T] {
	r := &Report[T]{
		Labels:     [2]string{"left", "right"},
		Left:       make([]Step[T], 0, len(ops)),
		Right:      make([]Step[T], 0, len(ops)),
		Divergence: -1,
	}
	for _, op := range ops {
		r.record(apply(left, len(r.Left), op), apply(right, len(r.Right), op))
	}

	drain := max(left.Len(), right.Len()) + 1
	for i := 0; i < drain; i++ {
		op := Op[T]{Kind: OpPop}
		r.record(apply(left, len(r.Left), op), apply(right, len(r.Right), op))
	}

	if !r.Equivalent() {
		r.Diff = cmp.Diff(r.Left, r.Right)
	}
	return r
}

func (r *Report[T]) record(left, right Step[T]) {
	if r.Divergence < 0 && left != right {
		r.Divergence = left.Index
	}
	r.Left = append(r.Left, left)
	r.Right = append(r.Right, right)
}

func apply[T any](s stack.Stack[T], index int, op Op[T]) Step[T] {
	step := Step[T]{Index: index, Op: op}
	switch op.Kind {
	case OpPush:
		if s.Len() < s.Cap() {
			s.Push(op.Value)
		} else {
			step.Skipped = true
		}
	case OpPop:
		step.Popped, step.Present = s.Pop()
	}
	step.Len = s.Len()
	return step
}

// Run replays ops against a fresh Manual and Managed stack of the given
// capacity. It returns a *MismatchError alongside the report when they
// diverge.
func Run[T comparable](ops []Op[T], capacity int) (*Report[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("replay capacity must be positive, got %d", capacity)
	}

	manual := stack.NewManual[T](capacity)
	defer manual.Release()
	managed := stack.NewManaged[T](capacity)

	r := Compare[T](ops, manual, managed)
	r.Labels = [2]string{stack.VariantManual.String(), stack.VariantManaged.String()}
	if !r.Equivalent() {
		return r, &MismatchError{Step: r.Divergence, Diff: r.Diff}
	}
	return r, nil
}

// Replay decodes data into operations and runs them; see Decode and Run.
func Replay[T constraints.Integer](data []byte, capacity int) (*Report[T], error) {
	return Run(Decode[T](data), capacity)
}
