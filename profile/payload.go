package profile

// Payload describes the operation a node times. It is only consulted
// for naming and is never retained by the node. A nil Payload is valid.
//
// The concrete types are Template, View and Object.
type Payload interface {
	isPayload()
}

// Template names a node after a template.
type Template struct {
	Name string
}

// View names a node after a view object, falling back to Object when
// the view carries no usable name.
type View struct {
	View   any
	Object any
}

// Object names a node after the string form of Value.
type Object struct {
	Value any
}

func (Template) isPayload() {}
func (View) isPayload()     {}
func (Object) isPayload()   {}

// FromMap converts a loosely shaped payload, as decoded from JSON, into
// a Payload. A non-empty "template" string wins, then a non-nil "view",
// then a non-nil "object". Anything else yields nil.
func FromMap(m map[string]any) Payload {
	if m == nil {
		return nil
	}
	if s, ok := m["template"].(string); ok && s != "" {
		return Template{Name: s}
	}
	if v := m["view"]; v != nil {
		return View{View: v, Object: m["object"]}
	}
	if o := m["object"]; o != nil {
		return Object{Value: o}
	}
	return nil
}
