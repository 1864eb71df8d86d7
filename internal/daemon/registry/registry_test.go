package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neustart-io/neustart/internal/daemon/app"
	"github.com/neustart-io/neustart/internal/models"
)

type noStats struct{}

func (noStats) Usage(int) (app.Usage, error) { return app.Usage{}, nil }
func (noStats) Title(int) (string, error)    { return "", nil }
func (noStats) Cores() int                   { return 1 }

func newApp(id string) *app.App {
	return app.New(models.AppDefinition{ID: id, ExecutablePath: "/bin/true"}, app.Options{Stats: noStats{}})
}

func ids(apps []*app.App) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ID())
	}
	return out
}

func TestAdd_KeepsInsertionOrder(t *testing.T) {
	r := New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Add(newApp(id)))
	}

	assert.Equal(t, []string{"c", "a", "b"}, ids(r.List()))
	assert.Equal(t, 3, r.Len())
}

func TestAdd_Conflict(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newApp("web")))

	err := r.Add(newApp("web"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, r.Len())
}

func TestAdd_BlankID(t *testing.T) {
	for _, id := range []string{"", " ", "\t", " \n "} {
		r := New()
		assert.ErrorIs(t, r.Add(newApp(id)), ErrInvalidID, "id %q", id)
		assert.Zero(t, r.Len())
	}
}

func TestGet(t *testing.T) {
	r := New()
	web := newApp("web")
	require.NoError(t, r.Add(web))

	got, err := r.Get("web")
	require.NoError(t, err)
	assert.Same(t, web, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRename(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newApp("a")))
	require.NoError(t, r.Add(newApp("b")))

	require.NoError(t, r.Rename("a", "alpha"))

	_, err := r.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.ID())
	assert.Equal(t, "alpha", got.Definition().ID)
	assert.Equal(t, []string{"alpha", "b"}, ids(r.List()))
}

func TestRename_ConflictLeavesRegistryUnchanged(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newApp("a")))
	require.NoError(t, r.Add(newApp("b")))

	err := r.Rename("a", "b")
	assert.ErrorIs(t, err, ErrConflict)

	a, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", a.ID())
	assert.Equal(t, []string{"a", "b"}, ids(r.List()))
}

func TestRename_Errors(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newApp("a")))

	assert.ErrorIs(t, r.Rename("missing", "x"), ErrNotFound)
	assert.ErrorIs(t, r.Rename("a", ""), ErrInvalidID)
	assert.NoError(t, r.Rename("a", "a"))
}

func TestRename_BlankID(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newApp("a")))

	for _, id := range []string{" ", "\t", "  \n"} {
		assert.ErrorIs(t, r.Rename("a", id), ErrInvalidID, "id %q", id)
	}
	_, err := r.Get("a")
	assert.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRemove(t *testing.T) {
	r := New()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Add(newApp(id)))
	}

	removed, err := r.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, "b", removed.ID())
	assert.Equal(t, []string{"a", "c"}, ids(r.List()))

	_, err = r.Remove("b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_ReturnsCopy(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newApp("a")))

	list := r.List()
	list[0] = newApp("z")

	assert.Equal(t, []string{"a"}, ids(r.List()))
}

func TestDefinitions(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(newApp("a")))
	require.NoError(t, r.Add(newApp("b")))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "a", defs[0].ID)
	assert.Equal(t, "/bin/true", defs[1].ExecutablePath)
}
