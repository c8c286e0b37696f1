package fat12_test

import (
	"io"
	"testing"

	"github.com/dargueta/fat12fs/errors"
	dt "github.com/dargueta/fat12fs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileCache(t *testing.T) {
	for _, fragmented := range []bool{false, true} {
		spec, contents := fileSpec(t, fragmented)
		volume, _, _ := openSpec(t, spec)

		entry, err := volume.Resolve("/DATA.BIN")
		require.NoError(t, err)

		cache, err := volume.NewFileCache(entry)
		require.NoError(t, err)
		assert.EqualValues(t, 3, cache.TotalBlocks())
		assert.EqualValues(t, 1280, cache.Size())
		assert.Zero(t, cache.LoadedBlockCount(), "nothing should be loaded yet")

		buffer := make([]byte, 100)
		count, err := cache.ReadAt(buffer, 1000)
		require.NoError(t, err)
		assert.Equal(t, 100, count)
		assert.Equal(t, contents[1000:1100], buffer, "fragmented=%v", fragmented)
		assert.EqualValues(t, 2, cache.LoadedBlockCount())

		data, err := cache.Data()
		require.NoError(t, err)
		assert.Equal(t, contents, data, "fragmented=%v", fragmented)
	}
}

func TestNewFileCache__Empty(t *testing.T) {
	spec, _ := fileSpec(t, false)
	volume, _, _ := openSpec(t, spec)

	entry, err := volume.Resolve("/EMPTY.TXT")
	require.NoError(t, err)

	cache, err := volume.NewFileCache(entry)
	require.NoError(t, err)
	assert.Zero(t, cache.TotalBlocks())

	_, err = cache.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewFileCache__ChainTooShort(t *testing.T) {
	spec, _ := fileSpec(t, false)
	image, layout := dt.BuildImage(t, spec)
	chain := layout.Clusters["/DATA.BIN"]
	dt.PatchFATEntry(image, spec.Geometry, chain[1], 0xFFF)
	volume := openBytes(t, image)

	entry, err := volume.Resolve("/DATA.BIN")
	require.NoError(t, err)

	_, err = volume.NewFileCache(entry)
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)
}

func TestNewFileCache__IgnoresChainPastSize(t *testing.T) {
	spec, contents := fileSpec(t, false)
	image, layout := dt.BuildImage(t, spec)
	chain := layout.Clusters["/DATA.BIN"]

	// Garbage after the last cluster the file needs is never followed.
	dt.PatchFATEntry(image, spec.Geometry, chain[2], 0xFF7)
	volume := openBytes(t, image)

	entry, err := volume.Resolve("/DATA.BIN")
	require.NoError(t, err)

	cache, err := volume.NewFileCache(entry)
	require.NoError(t, err)
	data, err := cache.Data()
	require.NoError(t, err)
	assert.Equal(t, contents, data)
}

func TestNewFileCache__Directory(t *testing.T) {
	volume, _, _ := openSpec(t, scenarioSpec())

	dir, err := volume.Resolve("/A")
	require.NoError(t, err)

	_, err = volume.NewFileCache(dir)
	assert.ErrorIs(t, err, errors.ErrIsADirectory)
}
