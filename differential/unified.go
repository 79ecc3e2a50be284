package differential

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Trace renders steps one per line.
func Trace[T any](steps []Step[T]) string {
	var b strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&b, "%5d %-12s", s.Index, s.Op)
		switch {
		case s.Skipped:
			fmt.Fprint(&b, " skipped (full)")
		case s.Op.Kind == OpPop && s.Present:
			fmt.Fprintf(&b, " -> %v", s.Popped)
		case s.Op.Kind == OpPop:
			fmt.Fprint(&b, " -> none")
		}
		fmt.Fprintf(&b, " len=%d\n", s.Len)
	}
	return b.String()
}

// Unified returns a unified diff between the two traces, or "" if they match.
func (r *Report[T]) Unified() string {
	left, right := Trace(r.Left), Trace(r.Right)
	if left == right {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(r.Labels[0]), left, right)
	return fmt.Sprint(gotextdiff.ToUnified(r.Labels[0], r.Labels[1], left, edits))
}

// Colourise colours removed lines red and added lines green.
func Colourise(diff string) string {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		case strings.HasPrefix(line, "-"):
			lines[i] = red(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = green(line)
		}
	}
	return strings.Join(lines, "\n")
}
