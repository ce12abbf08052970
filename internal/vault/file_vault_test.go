package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestVault(t *testing.T) *FileVault {
	t.Helper()
	v, err := NewFileVault(t.TempDir(), "test-secret")
	require.NoError(t, err)
	return v
}

func TestFileVaultRoundTrip(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	in := record{Name: "alice", Count: 3}
	require.NoError(t, v.Save(ctx, "users/alice-admin.json", in))

	var out record
	require.NoError(t, v.Load(ctx, "users/alice-admin.json", &out))
	assert.Equal(t, in, out)
}

func TestFileVaultBlobsAreEncrypted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	v, err := NewFileVault(dir, "test-secret")
	require.NoError(t, err)

	require.NoError(t, v.Save(ctx, "users/alice-admin.json", record{Name: "alice"}))

	raw, err := os.ReadFile(filepath.Join(dir, "users", "alice-admin.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "alice")
}

func TestFileVaultLoadMissing(t *testing.T) {
	v := newTestVault(t)
	var out record
	err := v.Load(context.Background(), "users/ghost-admin.json", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileVaultDelete(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	require.NoError(t, v.Save(ctx, "users/a.json", record{}))
	require.NoError(t, v.Delete(ctx, "users/a.json"))
	assert.ErrorIs(t, v.Delete(ctx, "users/a.json"), ErrNotFound)
}

func TestFileVaultRename(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	require.NoError(t, v.Save(ctx, "users/a.json", record{Name: "a"}))
	require.NoError(t, v.Rename(ctx, "users/a.json", "users/b.json"))

	var out record
	assert.ErrorIs(t, v.Load(ctx, "users/a.json", &out), ErrNotFound)
	require.NoError(t, v.Load(ctx, "users/b.json", &out))
	assert.Equal(t, "a", out.Name)

	assert.ErrorIs(t, v.Rename(ctx, "users/a.json", "users/c.json"), ErrNotFound)
}

func TestFileVaultList(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	require.NoError(t, v.Save(ctx, "users/a.json", record{}))
	require.NoError(t, v.Save(ctx, "users/b.json", record{}))
	require.NoError(t, v.Save(ctx, "sessions/a.json", record{}))

	keys, err := v.List(ctx, "users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users/a.json", "users/b.json"}, keys)

	empty, err := v.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFileVaultRejectsTraversal(t *testing.T) {
	v := newTestVault(t)
	err := v.Save(context.Background(), "../outside.json", record{})
	assert.Error(t, err)
}

func TestFileVaultKeyPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	v1, err := NewFileVault(dir, "secret")
	require.NoError(t, err)
	require.NoError(t, v1.Save(ctx, "users/a.json", record{Name: "a"}))

	v2, err := NewFileVault(dir, "secret")
	require.NoError(t, err)
	var out record
	require.NoError(t, v2.Load(ctx, "users/a.json", &out))
	assert.Equal(t, "a", out.Name)
}

func TestFileVaultWrongSecretFailsDecryption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	v1, err := NewFileVault(dir, "secret")
	require.NoError(t, err)
	require.NoError(t, v1.Save(ctx, "users/a.json", record{Name: "a"}))

	v2, err := NewFileVault(dir, "other-secret")
	require.NoError(t, err)
	var out record
	assert.Error(t, v2.Load(ctx, "users/a.json", &out))
}
