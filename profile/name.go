package profile

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"go.universe.tf/rendertrace/ident"
)

// UnknownName is used when no rule yields a name.
const UnknownName = "Unknown view"

// Views may expose their display names through these methods, or be a
// map with "instrumentDisplay" and "_debugContainerKey" keys.
type (
	InstrumentDisplayer interface {
		InstrumentDisplay() string
	}
	DebugContainerKeyer interface {
		DebugContainerKey() string
	}
)

var (
	objectSuffix = regexp.MustCompile(`:?:ember\d+>$`)
	objectID     = regexp.MustCompile(`:(ember\d+)>$`)
)

// Name derives a display name and an optional view id for p. It never
// fails: payload fields that are missing, empty or panic when probed
// are skipped. A nil registry means ident.Default.
func Name(p Payload, ids *ident.Registry) (name, viewID string) {
	if ids == nil {
		ids = ident.Default
	}
	var obj any
	switch p := p.(type) {
	case Template:
		name = p.Name
	case View:
		name = viewName(p.View)
		if id, ok := ids.ID(p.View); ok {
			viewID = id
		}
		obj = p.Object
	case Object:
		obj = p.Value
	}

	if name == "" && !isNil(obj) {
		if s, ok := stringify(obj); ok {
			name = strings.TrimPrefix(objectSuffix.ReplaceAllString(s, ""), "<")
			if viewID == "" {
				if m := objectID.FindStringSubmatch(s); m != nil {
					viewID = m[1]
				}
			}
		}
	}

	if name == "" {
		name = UnknownName
	}
	return name, viewID
}

func viewName(v any) string {
	name := field(v, "instrumentDisplay", func(v any) string {
		if d, ok := v.(InstrumentDisplayer); ok {
			return d.InstrumentDisplay()
		}
		return ""
	})
	if name == "" {
		name = field(v, "_debugContainerKey", func(v any) string {
			if k, ok := v.(DebugContainerKeyer); ok {
				return k.DebugContainerKey()
			}
			return ""
		})
	}
	return strings.TrimPrefix(name, "view:")
}

func field(v any, key string, method func(any) string) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	switch m := v.(type) {
	case map[string]any:
		s, _ = m[key].(string)
		return s
	case map[string]string:
		return m[key]
	}
	return method(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func stringify(v any) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	switch v := v.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	case error:
		return v.Error(), true
	}
	return fmt.Sprint(v), true
}
