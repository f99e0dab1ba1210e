package du

import (
	"fmt"
	"io"
)

// Runner drives one invocation: every root in argument order, one summary
// line each. The per-root counters are reset between roots; the permission
// outcome spans the whole run.
type Runner struct {
	Workers  int
	Stdout   io.Writer
	Stderr   io.Writer
	Progress *Progress
}

// Run traverses each root and writes `<blocks>\t<root>` to Stdout, with the
// root echoed exactly as supplied. ok reports whether no permission error
// occurred anywhere in the invocation. A non-nil error is fatal and ends
// the run before the remaining roots.
func (r *Runner) Run(roots []string) (ok bool, err error) {
	tr := New(r.Workers, r.Progress, r.Stderr)
	for _, root := range roots {
		total, err := tr.Total(root)
		if err != nil {
			return tr.PermissionOK(), err
		}
		fmt.Fprintf(r.Stdout, "%d\t%s\n", total, root)
	}
	return tr.PermissionOK(), nil
}
