package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.universe.tf/rendertrace/db"
	"go.universe.tf/rendertrace/profile"
)

func openDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "rendertrace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func tree(t *testing.T, name string, children ...string) *profile.Node {
	t.Helper()
	root := profile.New(0, profile.Template{Name: name}, nil)
	for i, c := range children {
		require.NoError(t, profile.New(float64(i), profile.Template{Name: c}, root).Finish(float64(i)+0.5))
	}
	require.NoError(t, root.Finish(10))
	return root
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rendertrace.db")
	d, err := db.Open(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = db.Open(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

func TestUnknownSource(t *testing.T) {
	d := openDB(t)
	src, err := d.Source("logs/a.jsonl")
	require.NoError(t, err)
	require.Equal(t, db.Source{}, src)
}

func TestSaveAndLoad(t *testing.T) {
	d := openDB(t)
	src := db.Source{
		Path:  "logs/a.jsonl",
		Mtime: time.Unix(1700000000, 123),
		Size:  42,
		Hash:  "abc",
	}
	_, err := d.SaveSource(src, []*profile.Node{tree(t, "application", "posts", "comments"), tree(t, "index")})
	require.NoError(t, err)

	got, err := d.Source(src.Path)
	require.NoError(t, err)
	require.True(t, src.Mtime.Equal(got.Mtime))
	require.Equal(t, src.Size, got.Size)
	require.Equal(t, src.Hash, got.Hash)

	sums, err := d.Profiles(0)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	require.Equal(t, "index", sums[0].Name)
	require.Equal(t, "application", sums[1].Name)
	require.Equal(t, 3, sums[1].Nodes)
	require.Equal(t, "logs/a.jsonl", sums[1].Source)
	require.Equal(t, 10.0, sums[1].Duration)

	n, err := d.Profile(sums[1].ID)
	require.NoError(t, err)
	require.True(t, n.Finished())
	require.Len(t, n.Children, 2)
	require.Equal(t, "posts", n.Children[0].Name)
	require.Equal(t, 0.5, n.Children[0].Duration)

	limited, err := d.Profiles(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSaveReplacesTrees(t *testing.T) {
	d := openDB(t)
	src := db.Source{Path: "a.jsonl", Mtime: time.Unix(1, 0), Size: 1, Hash: "h1"}
	id1, err := d.SaveSource(src, []*profile.Node{tree(t, "one"), tree(t, "two")})
	require.NoError(t, err)

	src.Hash = "h2"
	id2, err := d.SaveSource(src, []*profile.Node{tree(t, "three")})
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	sums, err := d.Profiles(0)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	require.Equal(t, "three", sums[0].Name)
}

func TestTouch(t *testing.T) {
	d := openDB(t)
	src := db.Source{Path: "a.jsonl", Mtime: time.Unix(1, 0), Size: 1, Hash: "h"}
	_, err := d.SaveSource(src, nil)
	require.NoError(t, err)

	src.Mtime = time.Unix(2, 5)
	require.NoError(t, d.Touch(src))
	got, err := d.Source("a.jsonl")
	require.NoError(t, err)
	require.True(t, got.Mtime.Equal(src.Mtime))
	require.Equal(t, "h", got.Hash)
}

func TestProfileNotFound(t *testing.T) {
	d := openDB(t)
	_, err := d.Profile(99)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestSaveFailedSource(t *testing.T) {
	d := openDB(t)
	src := db.Source{Path: "a.jsonl", Mtime: time.Unix(1, 0), Size: 1, Hash: "good"}
	_, err := d.SaveSource(src, []*profile.Node{tree(t, "one")})
	require.NoError(t, err)

	src.Hash = "bad"
	src.Error = "line 1: end without matching begin"
	_, err = d.SaveSource(src, nil)
	require.NoError(t, err)

	got, err := d.Source("a.jsonl")
	require.NoError(t, err)
	require.Equal(t, src.Error, got.Error)
	require.Equal(t, "bad", got.Hash)
	sums, err := d.Profiles(0)
	require.NoError(t, err)
	require.Empty(t, sums)

	src.Hash = "fixed"
	src.Error = ""
	_, err = d.SaveSource(src, []*profile.Node{tree(t, "two")})
	require.NoError(t, err)
	got, err = d.Source("a.jsonl")
	require.NoError(t, err)
	require.Empty(t, got.Error)
}
