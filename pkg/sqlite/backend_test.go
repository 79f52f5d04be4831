package sqlite

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dsmodel/pkg/model"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

func TestRegistryOverSQLite(t *testing.T) {
	backend := NewBackend(zerolog.Nop())
	require.NoError(t, backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer backend.Detach()

	reg := model.NewRegistry(backend)
	note, err := reg.Register("Note",
		model.Must(model.NewString("title", model.Required())),
		model.Must(model.NewText("body", model.Compressed())),
		model.Must(model.NewPickled("extra")),
		model.Must(model.NewJSON("meta")),
		model.Must(model.NewDateTime("created", model.AutoNowAdd())),
		model.Must(model.NewInteger("votes", model.Repeated())),
	)
	require.NoError(t, err)

	inst, err := note.New(nil, map[string]any{
		"title": "hello",
		"body":  "a long body",
		"extra": map[string]any{"n": int64(1)},
		"meta":  map[string]any{"tag": "x"},
		"votes": []int{3, 4},
	})
	require.NoError(t, err)
	key, err := inst.Put()
	require.NoError(t, err)
	assert.Equal(t, int64(1), key.ID())

	got, err := note.GetByID(1)
	require.NoError(t, err)
	require.NotNil(t, got)

	for attr, want := range map[string]any{
		"title": "hello",
		"body":  "a long body",
		"extra": map[string]any{"n": int64(1)},
		"meta":  map[string]any{"tag": "x"},
		"votes": []any{int64(3), int64(4)},
	} {
		v, err := got.Get(attr)
		require.NoError(t, err, attr)
		assert.Equal(t, want, v, attr)
	}
	created, err := got.Get("created")
	require.NoError(t, err)
	assert.NotNil(t, created)
}
