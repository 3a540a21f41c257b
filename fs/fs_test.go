package fs_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusrt/kestrel"
	kfs "github.com/corvusrt/kestrel/fs"
)

func TestFileRoundTrip(t *testing.T) {
	rt, err := kestrel.New(kestrel.WithFS())
	require.NoError(t, err)
	defer rt.Shutdown()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("kestrel-roundtrip-%d", os.Getpid()))

	got := kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) string {
		created := kestrel.Await(a, kfs.Create(path))
		require.NoError(t, created.Err)
		file := created.Value

		written := kestrel.Await(a, file.WriteAll([]byte("hello world")))
		require.NoError(t, written.Err)
		require.NoError(t, file.Close())

		opened := kestrel.Await(a, kfs.Open(path))
		require.NoError(t, opened.Err)
		file = opened.Value
		defer file.Close()

		buf := make([]byte, 11)
		read := kestrel.Await(a, file.Read(buf))
		require.NoError(t, read.Err)
		require.Equal(t, 11, read.Value)
		return string(buf)
	}))

	assert.Equal(t, "hello world", got)
}

func TestOpenWithoutFeaturePanics(t *testing.T) {
	rt, err := kestrel.New()
	require.NoError(t, err)
	defer rt.Shutdown()

	assert.Panics(t, func() {
		kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) struct{} {
			kestrel.Await(a, kfs.Open("/nonexistent"))
			return struct{}{}
		}))
	})
}
