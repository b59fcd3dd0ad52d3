package profile

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// wireNode is the serialized form shared by JSON and YAML. CreatedAt is
// carried as milliseconds since the Unix epoch.
type wireNode struct {
	Start     float64     `json:"start" yaml:"start"`
	CreatedAt int64       `json:"createdAt" yaml:"createdAt"`
	Name      string      `json:"name" yaml:"name"`
	ViewID    string      `json:"viewId,omitempty" yaml:"viewId,omitempty"`
	Time      *float64    `json:"time,omitempty" yaml:"time,omitempty"`
	Duration  *float64    `json:"duration,omitempty" yaml:"duration,omitempty"`
	Children  []*wireNode `json:"children" yaml:"children"`
}

func (n *Node) wire() *wireNode {
	w := &wireNode{
		Start:     n.Start,
		CreatedAt: n.CreatedAt.UnixMilli(),
		Name:      n.Name,
		ViewID:    n.ViewID,
		Children:  make([]*wireNode, 0, len(n.Children)),
	}
	if n.finished {
		t, d := n.Time, n.Duration
		w.Time, w.Duration = &t, &d
	}
	for _, c := range n.Children {
		w.Children = append(w.Children, c.wire())
	}
	return w
}

func (w *wireNode) node() *Node {
	n := &Node{
		Start:     w.Start,
		CreatedAt: time.UnixMilli(w.CreatedAt),
		Name:      w.Name,
		ViewID:    w.ViewID,
		Children:  make([]*Node, 0, len(w.Children)),
		created:   true,
	}
	if w.Time != nil {
		n.Time = *w.Time
		n.finished = true
		if w.Duration != nil {
			n.Duration = *w.Duration
		} else {
			n.Duration = round2(n.Time)
		}
	}
	if n.Name == "" {
		n.Name = UnknownName
	}
	for _, c := range w.Children {
		if c != nil {
			n.Children = append(n.Children, c.node())
		}
	}
	return n
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.wire())
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*n = *w.node()
	return nil
}

func (n *Node) MarshalYAML() (interface{}, error) {
	return n.wire(), nil
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var w wireNode
	if err := value.Decode(&w); err != nil {
		return err
	}
	*n = *w.node()
	return nil
}
