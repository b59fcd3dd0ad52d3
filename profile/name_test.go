package profile_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.universe.tf/rendertrace/ident"
	"go.universe.tf/rendertrace/profile"
)

type testView struct {
	display, key string
}

func (v *testView) InstrumentDisplay() string { return v.display }
func (v *testView) DebugContainerKey() string { return v.key }

type stringer string

func (s stringer) String() string { return string(s) }

type panicky struct{}

func (panicky) String() string { panic("boom") }

type panickyView struct{}

func (*panickyView) InstrumentDisplay() string { panic("boom") }

func TestNamePriority(t *testing.T) {
	f, _ := newFactory()

	p := f.Create(1000, profile.View{
		View:   map[string]any{"instrumentDisplay": "donuts", "_debugContainerKey": "candy"},
		Object: "coffee",
	}, nil)
	require.Equal(t, "donuts", p.Name)

	p = f.Create(1000, profile.View{
		View:   map[string]any{"_debugContainerKey": "candy"},
		Object: "coffee",
	}, nil)
	require.Equal(t, "candy", p.Name)

	p = f.Create(1000, profile.Object{Value: "coffee"}, nil)
	require.Equal(t, "coffee", p.Name)
}

func TestNamePriorityFromMap(t *testing.T) {
	f, _ := newFactory()
	for _, tc := range []struct {
		payload map[string]any
		want    string
	}{
		{map[string]any{"template": "users", "view": map[string]any{"instrumentDisplay": "x"}, "object": "y"}, "users"},
		{map[string]any{"view": map[string]any{"instrumentDisplay": "donuts", "_debugContainerKey": "candy"}, "object": "coffee"}, "donuts"},
		{map[string]any{"view": map[string]any{"_debugContainerKey": "candy"}, "object": "coffee"}, "candy"},
		{map[string]any{"object": "coffee"}, "coffee"},
		{map[string]any{"template": "", "object": "coffee"}, "coffee"},
		{map[string]any{"view": map[string]any{}}, "Unknown view"},
		{map[string]any{"view": map[string]any{"instrumentDisplay": ""}, "object": "<Foo:ember3>"}, "Foo"},
		{map[string]any{}, "Unknown view"},
		{nil, "Unknown view"},
	} {
		require.Equal(t, tc.want, f.Create(0, profile.FromMap(tc.payload), nil).Name, "%v", tc.payload)
	}
}

func TestViewPrefixStripped(t *testing.T) {
	f, _ := newFactory()
	p := f.Create(0, profile.View{View: &testView{key: "view:application"}}, nil)
	require.Equal(t, "application", p.Name)

	p = f.Create(0, profile.View{View: &testView{display: "posts view:index"}}, nil)
	require.Equal(t, "posts view:index", p.Name)
}

func TestViewIDAssigned(t *testing.T) {
	ids := ident.New(ident.DefaultPrefix)
	v := &testView{display: "posts"}

	name, id := profile.Name(profile.View{View: v}, ids)
	require.Equal(t, "posts", name)
	require.NotEmpty(t, id)

	// Assigned even when the view yields no name.
	unnamed := &testView{}
	name, id2 := profile.Name(profile.View{View: unnamed, Object: "<Foo:ember99>"}, ids)
	require.Equal(t, "Foo", name)
	require.NotEmpty(t, id2)
	require.NotEqual(t, "ember99", id2)

	_, again := profile.Name(profile.View{View: v}, ids)
	require.Equal(t, id, again)
}

func TestRegistryIDsDistinctFromObjectIDs(t *testing.T) {
	ids := ident.New(ident.DefaultPrefix)
	seen := map[string]bool{}
	for i := 0; i < 12; i++ {
		_, id := profile.Name(profile.View{View: &testView{display: "item"}}, ids)
		seen[id] = true
	}
	require.Len(t, seen, 12)

	_, id := profile.Name(profile.Object{Value: "<App.ItemView:ember12>"}, ids)
	require.Equal(t, "ember12", id)
	require.False(t, seen[id])
}

func TestObjectName(t *testing.T) {
	ids := ident.New(ident.DefaultPrefix)
	for _, tc := range []struct {
		obj      any
		wantName string
		wantID   string
	}{
		{"<App.PostView:ember195>", "App.PostView", "ember195"},
		{"<App.PostView::ember195>", "App.PostView", "ember195"},
		{"<App.PostView:12>", "App.PostView:12>", ""},
		{"plain", "plain", ""},
		{"<<nested", "<nested", ""},
		{stringer("custom toString()"), "custom toString()", ""},
		{errors.New("<Err:ember4>"), "Err", "ember4"},
		{42, "42", ""},
	} {
		name, id := profile.Name(profile.Object{Value: tc.obj}, ids)
		require.Equal(t, tc.wantName, name, "%v", tc.obj)
		require.Equal(t, tc.wantID, id, "%v", tc.obj)
	}
}

func TestLenientPayloads(t *testing.T) {
	f, _ := newFactory()
	var nilView *testView
	for _, p := range []profile.Payload{
		nil,
		profile.Template{},
		profile.View{},
		profile.View{View: nilView},
		profile.View{View: &panickyView{}},
		profile.Object{},
		profile.Object{Value: panicky{}},
		profile.View{View: map[string]any{"instrumentDisplay": 7}},
		profile.Object{Value: (*struct{ X int })(nil)},
		profile.Object{Value: []string(nil)},
		profile.View{View: &testView{}, Object: map[string]any(nil)},
	} {
		var n *profile.Node
		require.NotPanics(t, func() { n = f.Create(0, p, nil) }, "%#v", p)
		require.Equal(t, "Unknown view", n.Name, "%#v", p)
	}
}

func TestFromMap(t *testing.T) {
	view := map[string]any{"instrumentDisplay": "x"}
	require.Nil(t, profile.FromMap(nil))
	require.Equal(t, profile.Template{Name: "t"}, profile.FromMap(map[string]any{"template": "t"}))
	require.Equal(t, profile.View{View: view, Object: "o"}, profile.FromMap(map[string]any{"view": view, "object": "o"}))
	require.Equal(t, profile.Object{Value: "o"}, profile.FromMap(map[string]any{"template": 3, "object": "o"}))
}
