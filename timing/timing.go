// Package timing drives profile trees from begin/end calls that nest
// like a call stack.
package timing

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"go.universe.tf/rendertrace/profile"
)

// ErrUnbalanced is returned by End when no operation is open.
var ErrUnbalanced = errors.New("end without matching begin")

// Rec records nested operations. The zero value is ready to use and
// names nodes with the default factory.
type Rec struct {
	mu      sync.Mutex
	factory *profile.Factory
	stack   []*profile.Node
	roots   Trees
}

func NewRec(f *profile.Factory) *Rec {
	return &Rec{factory: f}
}

// Begin opens an operation nested inside the innermost open one.
func (r *Rec) Begin(start float64, p profile.Payload) *profile.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	var parent *profile.Node
	if len(r.stack) > 0 {
		parent = r.stack[len(r.stack)-1]
	}
	var n *profile.Node
	if r.factory != nil {
		n = r.factory.Create(start, p, parent)
	} else {
		n = profile.New(start, p, parent)
	}
	r.stack = append(r.stack, n)
	return n
}

// End finishes the innermost open operation. When that empties the
// stack, the node is kept as a completed root.
func (r *Rec) End(end float64) (*profile.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) == 0 {
		return nil, ErrUnbalanced
	}
	n := r.stack[len(r.stack)-1]
	if err := n.Finish(end); err != nil {
		return nil, err
	}
	r.stack = r.stack[:len(r.stack)-1]
	nodesFinished.Inc()
	if len(r.stack) == 0 {
		r.roots = append(r.roots, n)
		rootDuration.Observe(n.Duration)
	}
	return n, nil
}

// Open returns the number of operations begun but not yet ended.
func (r *Rec) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// Done returns the completed roots and resets the recorder. Operations
// still open are dropped.
func (r *Rec) Done() Trees {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) > 0 {
		nodesOrphaned.Add(float64(len(r.stack)))
		log.Warn().Int("open", len(r.stack)).Str("outermost", r.stack[0].Name).Msg("Dropping unfinished operations")
	}
	t := r.roots
	r.roots = nil
	r.stack = nil
	return t
}

type Trees []*profile.Node

// Total sums the durations of the roots.
func (t Trees) Total() float64 {
	var ret float64
	for _, n := range t {
		ret += n.Duration
	}
	return ret
}

func (t Trees) DebugString() string {
	var b bytes.Buffer
	for _, root := range t {
		root.Walk(func(n *profile.Node, depth int) error {
			fmt.Fprintf(&b, "%s%s %.2f\n", strings.Repeat("  ", depth), n.Name, n.Duration)
			return nil
		})
	}
	fmt.Fprintf(&b, "total %.2f\n", t.Total())
	return b.String()
}
