// Package profile builds trees of named, timed nodes from nested
// start/finish events.
//
// A node is created when an operation begins, with the node of the
// enclosing operation as its parent. It only becomes visible in the
// parent's Children once it is finished, and finishing drops the
// reference back to the parent, so a finished tree holds no cycles.
package profile

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidState is returned when a node is finished twice, or was
// not built by a Factory.
var ErrInvalidState = errors.New("invalid node state")

// Node is one timed operation. Time and Duration share the units of
// Start and are meaningful only once Finished reports true.
type Node struct {
	Start     float64
	CreatedAt time.Time
	Name      string
	ViewID    string
	Time      float64
	Duration  float64
	Children  []*Node

	parent   *Node
	created  bool
	finished bool
}

// Parent returns the node this one will attach to when finished, or nil
// once it has been finished.
func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Finished() bool {
	return n.finished
}

// Finish records the end of the operation. It sets Time and Duration,
// appends n to its parent's children and forgets the parent. An end
// earlier than Start is kept as a negative Time.
func (n *Node) Finish(end float64) error {
	if !n.created {
		return fmt.Errorf("%w: finishing node %q that was not created by a factory", ErrInvalidState, n.Name)
	}
	if n.finished {
		return fmt.Errorf("%w: node %q already finished", ErrInvalidState, n.Name)
	}

	n.Time = end - n.Start
	n.Duration = round2(n.Time)
	n.finished = true

	if n.parent != nil {
		n.parent.Children = append(n.parent.Children, n)
		n.parent = nil
	}
	return nil
}

// round2 rounds to two decimals, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Walk calls fn for n and each descendant, depth first, parents before
// children. It stops at the first error.
func (n *Node) Walk(fn func(n *Node, depth int) error) error {
	return n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) error, depth int) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.walk(fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}
