package profile

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.universe.tf/rendertrace/ident"
)

// Factory creates nodes, naming them from their payload.
type Factory struct {
	ids   *ident.Registry
	clock clockwork.Clock
}

var defaultFactory = NewFactory()

// NewFactory returns a factory using the process-wide id registry and
// the real clock.
func NewFactory() *Factory {
	return NewFactoryWithClock(ident.Default, clockwork.NewRealClock())
}

func NewFactoryWithClock(ids *ident.Registry, clock clockwork.Clock) *Factory {
	if ids == nil {
		ids = ident.Default
	}
	return &Factory{ids: ids, clock: clock}
}

// New creates a node with the default factory.
func New(start float64, p Payload, parent *Node) *Node {
	return defaultFactory.Create(start, p, parent)
}

// Create starts a node at start, stamped with the factory clock's now.
func (f *Factory) Create(start float64, p Payload, parent *Node) *Node {
	return f.CreateAt(start, p, parent, time.Time{})
}

// CreateAt is Create with an explicit construction time. A zero now
// means the factory clock's now.
func (f *Factory) CreateAt(start float64, p Payload, parent *Node, now time.Time) *Node {
	if now.IsZero() {
		now = f.clock.Now()
	}
	name, viewID := Name(p, f.ids)
	return &Node{
		Start:     start,
		CreatedAt: now,
		Name:      name,
		ViewID:    viewID,
		Children:  []*Node{},
		parent:    parent,
		created:   true,
	}
}
